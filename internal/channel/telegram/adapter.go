package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stickerbot/internal/channel"
	"stickerbot/internal/config"
	"stickerbot/internal/logging"
	"stickerbot/internal/services"
	"stickerbot/internal/sticker"
)

// Adapter is a long-polling Telegram transport.
type Adapter struct {
	bot         *tgbotapi.BotAPI
	logger      *slog.Logger
	client      *http.Client
	pollTimeout int
	maxBytes    int64
}

// New authenticates the bot token and returns a ready adapter.
func New(cfg config.Telegram, logger *slog.Logger) (*Adapter, error) {
	logger = logging.NewComponentLogger(logger, "telegram")
	_ = tgbotapi.SetLogger(&slogBotLogger{log: logger})
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "telegram", "connect", "authenticate bot token", err)
	}
	logger.Info("telegram bot authenticated", logging.String("username", bot.Self.UserName))
	return &Adapter{
		bot:         bot,
		logger:      logger,
		client:      &http.Client{Timeout: 60 * time.Second},
		pollTimeout: cfg.PollTimeout,
		maxBytes:    config.MaxDownloadBytes(cfg.MaxDownloadMB),
	}, nil
}

// Name implements channel.Transport.
func (a *Adapter) Name() string { return Platform }

// Run polls for updates until ctx is cancelled.
func (a *Adapter) Run(ctx context.Context, handler channel.Handler) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = a.pollTimeout
	updates := a.bot.GetUpdatesChan(updateConfig)
	defer func() {
		a.bot.StopReceivingUpdates()
		// Drain so the polling goroutine can exit before a restart reuses the token.
		for range updates {
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("telegram updates channel closed")
			}
			msg, ok := toMessage(update.Message)
			if !ok {
				continue
			}
			a.logger.Debug("inbound received",
				logging.String(logging.FieldConversationID, msg.ConversationID),
				logging.String("message_id", msg.ID),
				logging.Bool("direct", msg.Direct),
			)
			go handler(ctx, msg)
		}
	}
}

// Download resolves a file id and fetches it from the Bot API file endpoint.
func (a *Adapter) Download(ctx context.Context, att channel.Attachment) ([]byte, error) {
	if att.Ref == "" {
		return nil, services.Wrap(services.ErrDownload, "fetch", "telegram", "attachment has no file id", nil)
	}
	url, err := a.bot.GetFileDirectURL(att.Ref)
	if err != nil {
		return nil, services.Wrap(services.ErrDownload, "fetch", "telegram", "resolve file url", err)
	}
	return channel.FetchURL(ctx, a.client, url, a.maxBytes)
}

// SendText implements channel.Transport.
func (a *Adapter) SendText(_ context.Context, target channel.Target, text string) error {
	chatID, err := parseChatID(target)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyID(target)
	return a.send(msg, "text")
}

// SendSticker uploads the WebP bytes as a sticker.
func (a *Adapter) SendSticker(_ context.Context, target channel.Target, asset sticker.Asset) error {
	chatID, err := parseChatID(target)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewSticker(chatID, tgbotapi.FileBytes{Name: "sticker.webp", Bytes: asset.Data})
	msg.ReplyToMessageID = replyID(target)
	return a.send(msg, "sticker")
}

// SendAudio uploads a local audio file.
func (a *Adapter) SendAudio(_ context.Context, target channel.Target, path string) error {
	chatID, err := parseChatID(target)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewAudio(chatID, tgbotapi.FilePath(path))
	msg.ReplyToMessageID = replyID(target)
	return a.send(msg, "audio")
}

// MarkRead is a no-op: bots cannot send read receipts on Telegram.
func (a *Adapter) MarkRead(context.Context, channel.Target) error {
	return nil
}

func (a *Adapter) send(c tgbotapi.Chattable, what string) error {
	if _, err := a.bot.Send(c); err != nil {
		return services.Wrap(services.ErrDelivery, "deliver", "telegram", "send "+what, err)
	}
	return nil
}

func parseChatID(target channel.Target) (int64, error) {
	id, err := strconv.ParseInt(target.ConversationID, 10, 64)
	if err != nil {
		return 0, services.Wrap(services.ErrDelivery, "deliver", "telegram", "invalid chat id "+strconv.Quote(target.ConversationID), err)
	}
	return id, nil
}

func replyID(target channel.Target) int {
	id, err := strconv.Atoi(target.ReplyToMessageID)
	if err != nil {
		return 0
	}
	return id
}

// slogBotLogger routes the library's internal logging into slog.
type slogBotLogger struct {
	log *slog.Logger
}

func (l *slogBotLogger) Println(v ...interface{}) {
	l.log.Debug(fmt.Sprint(v...))
}

func (l *slogBotLogger) Printf(format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, v...))
}
