package dispatch

// SetIDGeneratorForTests replaces the job id source.
func (d *Dispatcher) SetIDGeneratorForTests(fn func() string) {
	d.newID = fn
}
