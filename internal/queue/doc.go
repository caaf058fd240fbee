// Package queue serializes sticker jobs behind a single in-flight slot.
//
// Enqueue appends to a bounded FIFO and never blocks. When the queue is
// idle, Enqueue starts one drain goroutine that pops jobs until the queue is
// empty and then returns the queue to idle. A job that fails or panics is
// recorded as failed and draining continues with the next one.
//
// Queue state is in memory only; pending jobs are dropped on Stop.
package queue
