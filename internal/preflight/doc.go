// Package preflight provides readiness checks for the filesystem paths,
// transports and external binaries the bot depends on.
//
// The daemon runs RunAll before connecting to any platform and refuses to
// start when a check fails. The CLI status command reuses the individual
// checks for display.
package preflight
