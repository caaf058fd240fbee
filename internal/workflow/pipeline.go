package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"stickerbot/internal/config"
	"stickerbot/internal/convert"
	"stickerbot/internal/delivery"
	"stickerbot/internal/logging"
	"stickerbot/internal/media"
	"stickerbot/internal/notifications"
	"stickerbot/internal/queue"
	"stickerbot/internal/services"
	"stickerbot/internal/staging"
)

// Notices that replace the job's failure notice when the media cannot be used.
const (
	NoticeNoMedia    = "No media found."
	NoticeIneligible = "Reply to a sticker or image."
)

// Converter normalizes a descriptor into a sticker file inside ws.
type Converter interface {
	Normalize(ctx context.Context, ws convert.Workspace, desc media.Descriptor) (convert.Asset, error)
}

// Pipeline processes sticker jobs.
type Pipeline struct {
	workDir   string
	logJobs   bool
	converter Converter
	deliverer *delivery.Deliverer
	journal   Journal
	notifier  notifications.Service
	logger    *slog.Logger

	mu     sync.Mutex
	totals Totals
	bytes  map[string]int64
}

// Totals counts finished jobs.
type Totals struct {
	Completed int
	Failed    int
}

// NewPipeline constructs a Pipeline. journal may be nil.
func NewPipeline(cfg *config.Config, converter Converter, deliverer *delivery.Deliverer, journal Journal, notifier notifications.Service, logger *slog.Logger) *Pipeline {
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Pipeline{
		workDir:   cfg.Paths.WorkDir,
		logJobs:   cfg.Bot.LogJobs,
		converter: converter,
		deliverer: deliverer,
		journal:   journal,
		notifier:  notifier,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		bytes:     make(map[string]int64),
	}
}

// Process implements queue.Processor. Every failure is reported to the user
// exactly once before Process returns, and the job's scope is removed on
// every path.
func (p *Pipeline) Process(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, p.logger)

	scope, err := staging.NewScope(p.workDir, job.ID, logger)
	if err != nil {
		err = services.Wrap(services.ErrConfiguration, "stage", "scope", "create job scope", err)
		p.deliverer.Fail(ctx, job.Reply, job.FailureNotice, err)
		return err
	}
	defer scope.Close()

	desc, err := p.resolve(ctx, job)
	if err != nil {
		notice := job.FailureNotice
		switch {
		case errors.Is(err, services.ErrDownload):
			notice = NoticeNoMedia
		case errors.Is(err, services.ErrIneligibleTarget):
			notice = NoticeIneligible
		}
		p.deliverer.Fail(services.WithStage(ctx, "fetch"), job.Reply, notice, err)
		return err
	}

	asset, err := p.converter.Normalize(services.WithStage(ctx, "convert"), scope, desc)
	if err != nil {
		p.deliverer.Fail(ctx, job.Reply, job.FailureNotice, err)
		return err
	}

	sent, err := p.deliverer.Deliver(services.WithStage(ctx, "deliver"), job.Reply, asset.Path, asset.Animated, job.Metadata, job.FailureNotice)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.bytes[job.ID] = int64(len(sent.Data))
	p.mu.Unlock()
	return nil
}

func (p *Pipeline) resolve(ctx context.Context, job *queue.Job) (media.Descriptor, error) {
	if job.Source == nil {
		return media.Descriptor{}, services.Wrap(services.ErrDownload, "fetch", "resolve", "job has no media source", nil)
	}
	return job.Source(services.WithStage(ctx, "fetch"))
}

// Totals returns counts of finished jobs since start.
func (p *Pipeline) Totals() Totals {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totals
}

func (p *Pipeline) takeBytes(id string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.bytes[id]
	delete(p.bytes, id)
	return n
}
