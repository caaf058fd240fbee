// Package workflow runs sticker jobs and the daemon's message intake.
//
// Pipeline is the queue's processor and observer: for each job it resolves
// the media, converts it inside a per-job staging scope, delivers the
// sticker, and records the outcome in logs, the journal, metrics, and
// operator notifications. Manager connects the transports to the dispatcher
// and owns the queue's lifetime.
package workflow
