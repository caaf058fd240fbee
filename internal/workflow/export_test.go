package workflow

import "time"

// SetShutdownTimeoutForTests overrides how long Run waits for the running job.
func (m *Manager) SetShutdownTimeoutForTests(d time.Duration) {
	m.shutdownTimeout = d
}
