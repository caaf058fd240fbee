package discord

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bwmarrin/discordgo"

	"stickerbot/internal/channel"
	"stickerbot/internal/config"
	"stickerbot/internal/logging"
	"stickerbot/internal/services"
	"stickerbot/internal/sticker"
)

// Adapter is a Discord gateway transport.
type Adapter struct {
	session  *discordgo.Session
	logger   *slog.Logger
	client   *http.Client
	maxBytes int64
}

// New creates a session for the bot token. The gateway connects in Run.
func New(cfg config.Discord, logger *slog.Logger) (*Adapter, error) {
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "discord", "connect", "create session", err)
	}
	session.Identify.Intents = discordgo.IntentsAll
	return &Adapter{
		session:  session,
		logger:   logging.NewComponentLogger(logger, "discord"),
		client:   &http.Client{Timeout: 60 * time.Second},
		maxBytes: config.MaxDownloadBytes(cfg.MaxDownloadMB),
	}, nil
}

// Name implements channel.Transport.
func (a *Adapter) Name() string { return Platform }

// Run opens the gateway and dispatches messages until ctx is cancelled.
func (a *Adapter) Run(ctx context.Context, handler channel.Handler) error {
	remove := a.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author != nil && m.Author.Bot {
			return
		}
		if ctx.Err() != nil {
			return
		}
		msg, ok := toMessage(m.Message)
		if !ok {
			return
		}
		a.logger.Debug("inbound received",
			logging.String(logging.FieldConversationID, msg.ConversationID),
			logging.String("message_id", msg.ID),
			logging.Bool("direct", msg.Direct),
		)
		go handler(ctx, msg)
	})
	defer remove()

	if err := a.session.Open(); err != nil {
		return fmt.Errorf("discord open connection: %w", err)
	}
	a.logger.Info("discord gateway connected")
	<-ctx.Done()
	return a.session.Close()
}

// Download fetches an attachment from the Discord CDN.
func (a *Adapter) Download(ctx context.Context, att channel.Attachment) ([]byte, error) {
	if att.Ref == "" {
		return nil, services.Wrap(services.ErrDownload, "fetch", "discord", "attachment has no url", nil)
	}
	return channel.FetchURL(ctx, a.client, att.Ref, a.maxBytes)
}

// SendText implements channel.Transport.
func (a *Adapter) SendText(_ context.Context, target channel.Target, text string) error {
	return a.send(target, &discordgo.MessageSend{Content: text}, "text")
}

// SendSticker uploads the WebP as a file; bots cannot create guild stickers
// on the fly.
func (a *Adapter) SendSticker(_ context.Context, target channel.Target, asset sticker.Asset) error {
	file := &discordgo.File{Name: "sticker.webp", ContentType: "image/webp", Reader: bytes.NewReader(asset.Data)}
	return a.send(target, &discordgo.MessageSend{Files: []*discordgo.File{file}}, "sticker")
}

// SendAudio uploads a local audio file.
func (a *Adapter) SendAudio(_ context.Context, target channel.Target, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return services.Wrap(services.ErrDelivery, "deliver", "discord", "read audio file", err)
	}
	file := &discordgo.File{Name: filepath.Base(path), ContentType: "audio/mpeg", Reader: bytes.NewReader(data)}
	return a.send(target, &discordgo.MessageSend{Files: []*discordgo.File{file}}, "audio")
}

// MarkRead is a no-op: Discord has no bot read receipts.
func (a *Adapter) MarkRead(context.Context, channel.Target) error {
	return nil
}

func (a *Adapter) send(target channel.Target, msg *discordgo.MessageSend, what string) error {
	if target.ConversationID == "" {
		return services.Wrap(services.ErrDelivery, "deliver", "discord", "target channel is required", nil)
	}
	if target.ReplyToMessageID != "" {
		msg.Reference = &discordgo.MessageReference{
			ChannelID: target.ConversationID,
			MessageID: target.ReplyToMessageID,
		}
	}
	if _, err := a.session.ChannelMessageSendComplex(target.ConversationID, msg); err != nil {
		return services.Wrap(services.ErrDelivery, "deliver", "discord", "send "+what, err)
	}
	return nil
}
