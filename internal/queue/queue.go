package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"stickerbot/internal/logging"
	"stickerbot/internal/services"
)

var (
	// ErrQueueFull is returned by Enqueue when max pending jobs are waiting.
	ErrQueueFull = errors.New("queue full")
	// ErrStopped is returned by Enqueue after Stop and recorded on dropped jobs.
	ErrStopped = errors.New("queue stopped")
)

// State is the queue's drain state.
type State int

const (
	StateIdle State = iota
	StateDraining
)

func (s State) String() string {
	if s == StateDraining {
		return "draining"
	}
	return "idle"
}

// Processor runs one job. Returned errors mark the job failed.
type Processor interface {
	Process(ctx context.Context, job *Job) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, job *Job) error

// Process implements Processor.
func (f ProcessorFunc) Process(ctx context.Context, job *Job) error { return f(ctx, job) }

// Observer receives lifecycle transitions. Calls are made one at a time, in
// the order the transitions happened, from a notification goroutine that
// never holds the queue lock. A slow observer delays later notifications but
// never Enqueue or the drain loop. WaitIdle returns only after every
// notification of the finished drain has been delivered.
type Observer interface {
	JobQueued(job *Job, pending int)
	JobStarted(job *Job)
	JobFinished(job *Job, elapsed time.Duration)
}

// Options tune a Queue.
type Options struct {
	// MaxPending bounds waiting jobs; the running job does not count.
	MaxPending int
	Observer   Observer
	Logger     *slog.Logger
}

const defaultMaxPending = 32

// Queue is a bounded FIFO drained by at most one goroutine.
type Queue struct {
	processor  Processor
	observer   Observer
	logger     *slog.Logger
	maxPending int

	mu        sync.Mutex
	pending   []*Job
	draining  bool
	stopped   bool
	idle      chan struct{}
	events    []event
	notifying bool
}

type eventKind int

const (
	eventQueued eventKind = iota
	eventStarted
	eventFinished
	eventIdle
)

type event struct {
	kind    eventKind
	job     *Job
	pending int
	elapsed time.Duration
	idle    chan struct{}
}

// New constructs an idle queue.
func New(processor Processor, opts Options) *Queue {
	if opts.MaxPending <= 0 {
		opts.MaxPending = defaultMaxPending
	}
	return &Queue{
		processor:  processor,
		observer:   opts.Observer,
		logger:     logging.NewComponentLogger(opts.Logger, "queue"),
		maxPending: opts.MaxPending,
	}
}

// Enqueue appends job and starts draining if the queue was idle.
func (q *Queue) Enqueue(job *Job) error {
	if job == nil {
		return errors.New("enqueue nil job")
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}

	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return ErrStopped
	}
	if len(q.pending) >= q.maxPending {
		q.mu.Unlock()
		return fmt.Errorf("%w: %d jobs pending", ErrQueueFull, q.maxPending)
	}
	job.status = StatusQueued
	q.pending = append(q.pending, job)
	q.emitJob(event{kind: eventQueued, job: job, pending: len(q.pending)})
	var idle chan struct{}
	if !q.draining {
		q.draining = true
		q.idle = make(chan struct{})
		idle = q.idle
	}
	q.mu.Unlock()

	if idle != nil {
		go q.drain(idle)
	}
	return nil
}

// Len returns the number of jobs waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// State reports whether a drain goroutine is active.
func (q *Queue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.draining {
		return StateDraining
	}
	return StateIdle
}

// WaitIdle blocks until the queue is idle and its observer notifications
// are delivered, or ctx is done.
func (q *Queue) WaitIdle(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()
	if idle == nil {
		return nil
	}
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop rejects new jobs, drops pending ones, and waits for the running job
// to finish or ctx to end. Dropped jobs are reported to the observer as
// failed with ErrStopped.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	q.stopped = true
	dropped := q.pending
	q.pending = nil
	for _, job := range dropped {
		job.status = StatusFailed
		job.err = ErrStopped
		q.emitJob(event{kind: eventFinished, job: job})
	}
	q.mu.Unlock()

	if len(dropped) > 0 {
		q.logger.Info("dropped pending jobs on shutdown",
			logging.Int("dropped", len(dropped)),
			logging.String(logging.FieldEventType, "queue_stop"),
		)
	}
	return q.WaitIdle(ctx)
}

func (q *Queue) drain(idle chan struct{}) {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.draining = false
			q.emit(event{kind: eventIdle, idle: idle})
			q.mu.Unlock()
			return
		}
		job := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		job.status = StatusRunning
		q.emitJob(event{kind: eventStarted, job: job})
		q.mu.Unlock()

		q.run(job)
	}
}

func (q *Queue) run(job *Job) {
	ctx := services.WithJobID(context.Background(), job.ID)
	ctx = services.WithConversationID(ctx, job.ConversationID)

	started := time.Now()
	err := q.safeProcess(ctx, job)
	elapsed := time.Since(started)

	q.mu.Lock()
	if err != nil {
		job.status = StatusFailed
		job.err = err
	} else {
		job.status = StatusCompleted
	}
	q.emitJob(event{kind: eventFinished, job: job, elapsed: elapsed})
	q.mu.Unlock()
}

// emitJob records a job transition for the observer. Callers hold q.mu.
func (q *Queue) emitJob(ev event) {
	if q.observer == nil {
		return
	}
	q.emit(ev)
}

// emit appends ev and starts the notification goroutine if none is running.
// Callers hold q.mu.
func (q *Queue) emit(ev event) {
	q.events = append(q.events, ev)
	if !q.notifying {
		q.notifying = true
		go q.notify()
	}
}

func (q *Queue) notify() {
	for {
		q.mu.Lock()
		if len(q.events) == 0 {
			q.notifying = false
			q.mu.Unlock()
			return
		}
		ev := q.events[0]
		q.events[0] = event{}
		q.events = q.events[1:]
		q.mu.Unlock()

		switch ev.kind {
		case eventQueued:
			q.observer.JobQueued(ev.job, ev.pending)
		case eventStarted:
			q.observer.JobStarted(ev.job)
		case eventFinished:
			q.observer.JobFinished(ev.job, ev.elapsed)
		case eventIdle:
			close(ev.idle)
		}
	}
}

func (q *Queue) safeProcess(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logging.WithContext(ctx, q.logger), "job panicked", "job_panic",
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldErrorHint, "report the stack trace; draining continues"),
			)
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return q.processor.Process(ctx, job)
}
