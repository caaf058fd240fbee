package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"stickerbot/internal/channel"
	"stickerbot/internal/logging"
	"stickerbot/internal/services"
	"stickerbot/internal/sticker"
)

// Deliverer sends stickers and failure notices.
type Deliverer struct {
	logger *slog.Logger
}

// New constructs a Deliverer.
func New(logger *slog.Logger) *Deliverer {
	return &Deliverer{logger: logging.NewComponentLogger(logger, "delivery")}
}

// Deliver reads the encoded sticker at path, embeds meta, and sends it
// through reply. On failure the notice is sent instead and the delivery
// error is returned for bookkeeping.
func (d *Deliverer) Deliver(ctx context.Context, reply channel.Replier, path string, animated bool, meta sticker.Metadata, notice string) (sticker.Asset, error) {
	asset, err := d.prepare(path, animated, meta)
	if err == nil {
		err = d.send(ctx, reply, asset)
	}
	if err != nil {
		d.Fail(ctx, reply, notice, err)
		return sticker.Asset{}, err
	}
	return asset, nil
}

func (d *Deliverer) prepare(path string, animated bool, meta sticker.Metadata) (sticker.Asset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return sticker.Asset{}, services.Wrap(services.ErrOutputMissing, "deliver", "read asset", "", err)
	}
	data, err := sticker.Embed(raw, meta, sticker.PackID(meta))
	if err != nil {
		return sticker.Asset{}, services.Wrap(services.ErrDelivery, "deliver", "embed metadata", "", err)
	}
	return sticker.Asset{Data: data, Animated: animated, Metadata: meta}, nil
}

func (d *Deliverer) send(ctx context.Context, reply channel.Replier, asset sticker.Asset) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = services.Wrap(services.ErrDelivery, "deliver", "send sticker", fmt.Sprintf("panic: %v", r), nil)
		}
	}()
	if err := reply.Sticker(ctx, asset); err != nil {
		return services.Wrap(services.ErrDelivery, "deliver", "send sticker", "", err)
	}
	return nil
}

// Fail sends notice for an upstream failure. Errors and panics raised while
// sending are logged and swallowed.
func (d *Deliverer) Fail(ctx context.Context, reply channel.Replier, notice string, cause error) {
	logger := logging.WithContext(ctx, d.logger)
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logger, "failure notice panicked", "notice_panic",
				logging.Any("panic", r),
			)
		}
	}()
	if reply == nil || notice == "" {
		return
	}
	if err := reply.Text(ctx, notice); err != nil {
		logging.WarnWithContext(logger, "failure notice not sent", "notice_failed",
			logging.Error(err),
			logging.String("cause", errorString(cause)),
			logging.String(logging.FieldImpact, "user was not told the job failed"),
			logging.String(logging.FieldErrorHint, "check platform connectivity"),
		)
	}
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
