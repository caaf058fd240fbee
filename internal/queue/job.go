package queue

import (
	"context"
	"time"

	"stickerbot/internal/channel"
	"stickerbot/internal/media"
	"stickerbot/internal/sticker"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Command names the user action that produced a job.
type Command string

const (
	CommandCreate Command = "create"
	CommandRename Command = "rename"
)

// SourceFunc resolves the job's media. It is called exactly once, when the
// job starts running.
type SourceFunc func(ctx context.Context) (media.Descriptor, error)

// Job is one sticker conversion request.
type Job struct {
	ID             string
	Platform       string
	ConversationID string
	Command        Command
	// Kind is the classification of the target attachment at intake.
	Kind     media.Kind
	Metadata sticker.Metadata
	Source   SourceFunc
	Reply    channel.Replier
	// FailureNotice is the text sent to the user when the job fails.
	FailureNotice string
	EnqueuedAt    time.Time

	status Status
	err    error
}

// Status returns the job's current lifecycle state.
func (j *Job) Status() Status { return j.status }

// Err returns the failure of a finished job.
func (j *Job) Err() error { return j.err }
