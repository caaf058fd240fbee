// Package logs reads the daemon's log file for the CLI logs command.
//
// Last returns the final lines of a file with bounded memory, optionally
// keeping only lines that contain a filter string such as a job id. Follow
// polls from an offset and emits new lines until the context is cancelled.
package logs
