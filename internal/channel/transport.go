package channel

import (
	"context"

	"stickerbot/internal/sticker"
)

// Handler receives inbound messages. Transports may invoke it concurrently.
type Handler func(ctx context.Context, msg Message)

// Transport is a connected messaging platform.
type Transport interface {
	// Name identifies the platform in logs and metrics.
	Name() string
	// Run receives messages until ctx is cancelled, then disconnects.
	Run(ctx context.Context, handler Handler) error
	// Download fetches the attachment payload. An empty payload is an error.
	Download(ctx context.Context, att Attachment) ([]byte, error)
	SendText(ctx context.Context, target Target, text string) error
	SendSticker(ctx context.Context, target Target, asset sticker.Asset) error
	SendAudio(ctx context.Context, target Target, path string) error
	// MarkRead acknowledges the conversation. Platforms without read receipts
	// treat it as a no-op.
	MarkRead(ctx context.Context, target Target) error
}

// Replier sends responses to one fixed target.
type Replier interface {
	Text(ctx context.Context, text string) error
	Sticker(ctx context.Context, asset sticker.Asset) error
	Audio(ctx context.Context, path string) error
}

// Bind returns a Replier that answers target through t.
func Bind(t Transport, target Target) Replier {
	return boundReplier{transport: t, target: target}
}

type boundReplier struct {
	transport Transport
	target    Target
}

func (r boundReplier) Text(ctx context.Context, text string) error {
	return r.transport.SendText(ctx, r.target, text)
}

func (r boundReplier) Sticker(ctx context.Context, asset sticker.Asset) error {
	return r.transport.SendSticker(ctx, r.target, asset)
}

func (r boundReplier) Audio(ctx context.Context, path string) error {
	return r.transport.SendAudio(ctx, r.target, path)
}
