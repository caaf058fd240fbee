// Package daemon owns the long-running bot process lifecycle.
//
// It enforces single-instance execution with a flock-based lock in the state
// directory, records the pid, and sends operator notifications when the
// process starts and stops. Message handling itself lives in workflow; the
// daemon only brackets it.
package daemon
