package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stickerbot/internal/channel"
	"stickerbot/internal/dispatch"
	"stickerbot/internal/logging"
	"stickerbot/internal/metrics"
	"stickerbot/internal/queue"
)

const defaultShutdownTimeout = 30 * time.Second

// Handler dispatches one inbound message.
type Handler interface {
	Handle(ctx context.Context, transport channel.Transport, msg channel.Message) dispatch.Action
}

// Manager runs the transports and owns the job queue's lifetime.
type Manager struct {
	transports      []channel.Transport
	handler         Handler
	queue           *queue.Queue
	logger          *slog.Logger
	shutdownTimeout time.Duration

	mu      sync.Mutex
	running bool
}

// NewManager constructs a Manager.
func NewManager(transports []channel.Transport, handler Handler, q *queue.Queue, logger *slog.Logger) *Manager {
	return &Manager{
		transports:      transports,
		handler:         handler,
		queue:           q,
		logger:          logging.NewComponentLogger(logger, "workflow"),
		shutdownTimeout: defaultShutdownTimeout,
	}
}

// Run receives messages on every transport until ctx is cancelled or all
// transports fail, then stops the queue, waiting for the running job.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.transports) == 0 {
		m.mu.Unlock()
		return errors.New("no transports configured")
	}
	m.running = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		failures []error
	)
	for _, transport := range m.transports {
		wg.Add(1)
		go func(t channel.Transport) {
			defer wg.Done()
			m.logger.Info("transport starting", logging.String("platform", t.Name()))
			err := t.Run(ctx, func(msgCtx context.Context, msg channel.Message) {
				action := m.handler.Handle(msgCtx, t, msg)
				metrics.InboundTotal.WithLabelValues(t.Name(), action.String()).Inc()
			})
			if err != nil && ctx.Err() == nil {
				logging.ErrorWithContext(m.logger, "transport stopped", "transport_failed",
					logging.String("platform", t.Name()),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check the bot token and network access"),
				)
				errMu.Lock()
				failures = append(failures, fmt.Errorf("%s: %w", t.Name(), err))
				errMu.Unlock()
			}
		}(transport)
	}
	wg.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), m.shutdownTimeout)
	defer cancel()
	if err := m.queue.Stop(stopCtx); err != nil {
		logging.WarnWithContext(m.logger, "running job did not finish before shutdown", "queue_stop_timeout",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the in-flight sticker may not be delivered"),
		)
	}
	m.logger.Info("workflow stopped")

	if ctx.Err() == nil && len(failures) > 0 {
		return errors.Join(failures...)
	}
	return nil
}
