package telegram

import (
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stickerbot/internal/channel"
	"stickerbot/internal/media"
)

// Platform is the name this adapter reports.
const Platform = "telegram"

// toMessage converts a Telegram message, including the message it replies to.
func toMessage(msg *tgbotapi.Message) (channel.Message, bool) {
	out, ok := toMessageShallow(msg)
	if !ok {
		return channel.Message{}, false
	}
	if quoted, ok := toMessageShallow(msg.ReplyToMessage); ok {
		out.Quoted = &quoted
	}
	return out, true
}

func toMessageShallow(msg *tgbotapi.Message) (channel.Message, bool) {
	if msg == nil || msg.Chat == nil {
		return channel.Message{}, false
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		text = strings.TrimSpace(msg.Caption)
	}
	out := channel.Message{
		ID:             strconv.Itoa(msg.MessageID),
		Platform:       Platform,
		ConversationID: strconv.FormatInt(msg.Chat.ID, 10),
		Direct:         msg.Chat.IsPrivate(),
		Text:           text,
		Attachment:     attachmentOf(msg),
		Timestamp:      time.Unix(int64(msg.Date), 0).UTC(),
	}
	if msg.From != nil {
		out.SenderID = strconv.FormatInt(msg.From.ID, 10)
	}
	return out, true
}

// attachmentOf picks the single media item of a message. Telegram sends at
// most one kind of media per message.
func attachmentOf(msg *tgbotapi.Message) *channel.Attachment {
	switch {
	case len(msg.Photo) > 0:
		photo := pickPhoto(msg.Photo)
		return channel.NewAttachment(photo.FileID, "image/jpeg", "", int64(photo.FileSize), 0, media.Flags{})
	case msg.Animation != nil:
		a := msg.Animation
		return channel.NewAttachment(a.FileID, fallbackType(a.MimeType, "video/mp4"), a.FileName, int64(a.FileSize), seconds(a.Duration), media.Flags{AnimatedGIF: true})
	case msg.Video != nil:
		v := msg.Video
		return channel.NewAttachment(v.FileID, fallbackType(v.MimeType, "video/mp4"), v.FileName, int64(v.FileSize), seconds(v.Duration), media.Flags{})
	case msg.Sticker != nil:
		s := msg.Sticker
		contentType := "image/webp"
		if s.IsAnimated {
			contentType = "application/x-tgsticker"
		}
		return channel.NewAttachment(s.FileID, contentType, "", int64(s.FileSize), 0, media.Flags{Sticker: true})
	case msg.Document != nil:
		d := msg.Document
		return channel.NewAttachment(d.FileID, d.MimeType, d.FileName, int64(d.FileSize), 0, media.Flags{})
	}
	return nil
}

func pickPhoto(items []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := items[0]
	for _, item := range items[1:] {
		if item.Width*item.Height > best.Width*best.Height {
			best = item
		}
	}
	return best
}

func fallbackType(declared, fallback string) string {
	if strings.TrimSpace(declared) == "" {
		return fallback
	}
	return declared
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
