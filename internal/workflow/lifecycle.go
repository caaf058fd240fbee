package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stickerbot/internal/journal"
	"stickerbot/internal/logging"
	"stickerbot/internal/metrics"
	"stickerbot/internal/queue"
	"stickerbot/internal/services"
)

// Journal is the subset of the job history store the pipeline writes to.
type Journal interface {
	Insert(ctx context.Context, e journal.Entry) error
	MarkStarted(ctx context.Context, id string, at time.Time) error
	MarkFinished(ctx context.Context, id, status, errorKind, errorMessage string, outputBytes int64, at time.Time) error
}

// JobQueued implements queue.Observer.
func (p *Pipeline) JobQueued(job *queue.Job, pending int) {
	metrics.QueueDepth.Set(float64(pending))
	logger := p.jobLogger(job)
	if p.logJobs {
		logger.Info("job queued",
			logging.String(logging.FieldEventType, "job_queued"),
			logging.String("command", string(job.Command)),
			logging.String("media_kind", job.Kind.String()),
			logging.Int("pending", pending),
		)
	}
	if p.journal == nil {
		return
	}
	err := p.journal.Insert(context.Background(), journal.Entry{
		ID:             job.ID,
		Platform:       job.Platform,
		ConversationID: job.ConversationID,
		Command:        string(job.Command),
		MediaKind:      job.Kind.String(),
		StickerName:    job.Metadata.Name,
		StickerAuthor:  job.Metadata.Author,
		Status:         journal.StatusQueued,
		EnqueuedAt:     job.EnqueuedAt,
	})
	p.journalWarn(logger, err)
}

// JobStarted implements queue.Observer.
func (p *Pipeline) JobStarted(job *queue.Job) {
	metrics.QueueDepth.Dec()
	metrics.QueueWait.Observe(time.Since(job.EnqueuedAt).Seconds())
	logger := p.jobLogger(job)
	if p.logJobs {
		logger.Info("job started",
			logging.String(logging.FieldEventType, "job_started"),
			logging.Duration("waited", time.Since(job.EnqueuedAt)),
		)
	}
	if p.journal != nil {
		p.journalWarn(logger, p.journal.MarkStarted(context.Background(), job.ID, time.Now()))
	}
}

// JobFinished implements queue.Observer.
func (p *Pipeline) JobFinished(job *queue.Job, elapsed time.Duration) {
	logger := p.jobLogger(job)
	err := job.Err()
	outputBytes := p.takeBytes(job.ID)
	dropped := errors.Is(err, queue.ErrStopped)
	if dropped {
		metrics.QueueDepth.Dec()
	}

	status := journal.StatusCompleted
	if job.Status() == queue.StatusFailed {
		status = journal.StatusFailed
	}
	kind := services.Kind(err)

	p.mu.Lock()
	if status == journal.StatusCompleted {
		p.totals.Completed++
	} else {
		p.totals.Failed++
	}
	p.mu.Unlock()

	metrics.JobsTotal.WithLabelValues(string(job.Command), status, kind).Inc()
	if !dropped {
		metrics.JobDuration.WithLabelValues(string(job.Command), job.Kind.String()).Observe(elapsed.Seconds())
	}

	switch {
	case err == nil:
		metrics.StickerBytes.WithLabelValues(job.Kind.String()).Observe(float64(outputBytes))
		if p.logJobs {
			logger.Info("sticker sent",
				logging.String(logging.FieldEventType, "job_sent"),
				logging.Duration("elapsed", elapsed),
				logging.Int64("output_bytes", outputBytes),
			)
		}
	case dropped:
		if p.logJobs {
			logger.Info("job dropped on shutdown", logging.String(logging.FieldEventType, "job_dropped"))
		}
	default:
		if p.logJobs {
			logging.WarnWithContext(logger, "job failed", "job_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorKind, kind),
				logging.String(logging.FieldErrorHint, services.Hint(err)),
				logging.String(logging.FieldImpact, "user received the failure notice"),
				logging.Duration("elapsed", elapsed),
			)
		}
		if notifyErr := p.notifier.NotifyJobFailed(context.Background(), job.ID, string(job.Command), err); notifyErr != nil {
			logger.Debug("failure notification not sent", logging.Error(notifyErr))
		}
	}

	if p.journal != nil {
		message := ""
		if err != nil {
			message = err.Error()
		}
		p.journalWarn(logger, p.journal.MarkFinished(context.Background(), job.ID, status, kind, message, outputBytes, time.Now()))
	}
}

func (p *Pipeline) jobLogger(job *queue.Job) *slog.Logger {
	ctx := services.WithJobID(context.Background(), job.ID)
	ctx = services.WithConversationID(ctx, job.ConversationID)
	return logging.WithContext(ctx, p.logger)
}

func (p *Pipeline) journalWarn(logger *slog.Logger, err error) {
	if err == nil {
		return
	}
	logging.WarnWithContext(logger, "journal write failed", "journal_write_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "job history incomplete"),
		logging.String(logging.FieldErrorHint, "check state_dir permissions and disk space"),
	)
}
