package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stickerbot/internal/channel"
	"stickerbot/internal/logging"
	"stickerbot/internal/media"
	"stickerbot/internal/metrics"
	"stickerbot/internal/queue"
	"stickerbot/internal/services"
)

// Failure notices attached to queued jobs.
const (
	NoticeCreateFailed = "Failed to create sticker."
	NoticeRenameFailed = "Failed to rename."
)

// Enqueuer accepts sticker jobs.
type Enqueuer interface {
	Enqueue(job *queue.Job) error
}

// AudioFetcher runs the audio extraction command and reports back through reply.
type AudioFetcher interface {
	Fetch(ctx context.Context, reply channel.Replier, url string)
}

// Dispatcher applies Decide results.
type Dispatcher struct {
	grammar Grammar
	queue   Enqueuer
	audio   AudioFetcher
	logger  *slog.Logger
	newID   func() string
}

// New constructs a Dispatcher. audio may be nil when the command is disabled.
func New(grammar Grammar, q Enqueuer, audio AudioFetcher, logger *slog.Logger) *Dispatcher {
	if audio == nil {
		grammar.AudioEnabled = false
	}
	return &Dispatcher{
		grammar: grammar,
		queue:   q,
		audio:   audio,
		logger:  logging.NewComponentLogger(logger, "dispatch"),
		newID:   func() string { return uuid.NewString() },
	}
}

// Handle performs the single action chosen for msg: one reply, one enqueue,
// one audio fetch, or a read acknowledgement. It returns the chosen action.
func (d *Dispatcher) Handle(ctx context.Context, transport channel.Transport, msg channel.Message) Action {
	ctx = services.WithConversationID(ctx, msg.ConversationID)
	logger := logging.WithContext(ctx, d.logger)
	decision := d.grammar.Decide(msg)
	reply := channel.Bind(transport, msg.Target())
	if decision.Action != ActionIgnore && decision.Action != ActionPassThrough {
		logger.Debug("message routed", logging.Args(logging.DecisionAttrs("dispatch", decision.Action.String(), decisionReason(decision))...)...)
	}

	switch decision.Action {
	case ActionPassThrough:
		if err := transport.MarkRead(ctx, msg.Target()); err != nil {
			logger.Debug("mark read failed", logging.Error(err))
		}
	case ActionReply:
		if decision.Err != nil {
			logger.Info("command rejected",
				logging.String(logging.FieldEventType, "command_rejected"),
				logging.String(logging.FieldErrorKind, services.Kind(decision.Err)),
				logging.Error(decision.Err),
			)
		}
		d.say(ctx, logger, reply, decision.Reply)
	case ActionCreate, ActionRename:
		d.enqueue(ctx, logger, transport, msg, reply, decision)
	case ActionFetchAudio:
		d.audio.Fetch(ctx, reply, decision.URL)
	}
	return decision.Action
}

func (d *Dispatcher) enqueue(ctx context.Context, logger *slog.Logger, transport channel.Transport, msg channel.Message, reply channel.Replier, decision Decision) {
	job := &queue.Job{
		ID:             d.newID(),
		Platform:       transport.Name(),
		ConversationID: msg.ConversationID,
		Command:        queue.CommandCreate,
		Kind:           decision.Target.Kind,
		Metadata:       decision.Metadata,
		Source:         downloadSource(transport, *decision.Target, decision.Action == ActionRename),
		Reply:          reply,
		FailureNotice:  NoticeCreateFailed,
		EnqueuedAt:     time.Now(),
	}
	if decision.Action == ActionRename {
		job.Command = queue.CommandRename
		job.FailureNotice = NoticeRenameFailed
	}

	err := d.queue.Enqueue(job)
	switch {
	case err == nil:
		return
	case errors.Is(err, queue.ErrQueueFull):
		metrics.JobsShedTotal.Inc()
		logging.WarnWithContext(logger, "job shed, queue full", "job_shed",
			logging.String(logging.FieldJobID, job.ID),
			logging.String(logging.FieldImpact, "user asked to retry"),
			logging.String(logging.FieldErrorHint, "raise queue.max_pending if this persists"),
		)
		d.say(ctx, logger, reply, ReplyBusy)
	default:
		logger.Info("job not accepted", logging.String(logging.FieldJobID, job.ID), logging.Error(err))
	}
}

func (d *Dispatcher) say(ctx context.Context, logger *slog.Logger, reply channel.Replier, text string) {
	if err := reply.Text(ctx, text); err != nil {
		logging.WarnWithContext(logger, "reply not sent", "reply_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "user got no response"),
			logging.String(logging.FieldErrorHint, "check platform connectivity"),
		)
	}
}

func decisionReason(d Decision) string {
	switch {
	case d.Err != nil:
		return services.Kind(d.Err)
	case d.Implicit:
		return "implicit media"
	default:
		return "explicit command"
	}
}

// downloadSource defers the download until the queue runs the job. With
// staticOnly set, a payload that turns out to be motion content is rejected.
func downloadSource(transport channel.Transport, att channel.Attachment, staticOnly bool) queue.SourceFunc {
	return func(ctx context.Context) (media.Descriptor, error) {
		payload, err := transport.Download(ctx, att)
		if err != nil {
			if !errors.Is(err, services.ErrDownload) {
				err = services.Wrap(services.ErrDownload, "fetch", "download", "", err)
			}
			return media.Descriptor{}, err
		}
		desc, err := media.NewDescriptor(att.Kind, att.ContentType, payload, att.Duration)
		if err != nil {
			return media.Descriptor{}, err
		}
		if staticOnly && desc.Kind != media.KindStaticImage {
			return media.Descriptor{}, services.Wrap(services.ErrIneligibleTarget, "fetch", "rename",
				"rename target is "+desc.Kind.String()+" content", nil)
		}
		return desc, nil
	}
}
