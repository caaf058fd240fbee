// Package main hosts the stickerbot CLI entrypoint and command graph.
//
// "stickerbot run" starts the bot in the foreground. The remaining commands
// inspect a deployment without talking to the running process: status reads
// the lock file, dependency checks and the metrics endpoint, journal reads
// the SQLite job history, and convert runs the sticker conversion pipeline on
// a local file.
package main
