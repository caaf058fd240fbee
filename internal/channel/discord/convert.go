package discord

import (
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"stickerbot/internal/channel"
	"stickerbot/internal/media"
)

// Platform is the name this adapter reports.
const Platform = "discord"

const stickerCDN = "https://media.discordapp.net/stickers/"

func toMessage(msg *discordgo.Message) (channel.Message, bool) {
	out, ok := toMessageShallow(msg)
	if !ok {
		return channel.Message{}, false
	}
	if quoted, ok := toMessageShallow(msg.ReferencedMessage); ok {
		out.Quoted = &quoted
	}
	return out, true
}

func toMessageShallow(msg *discordgo.Message) (channel.Message, bool) {
	if msg == nil || msg.ChannelID == "" {
		return channel.Message{}, false
	}
	out := channel.Message{
		ID:             msg.ID,
		Platform:       Platform,
		ConversationID: msg.ChannelID,
		Direct:         msg.GuildID == "",
		Text:           strings.TrimSpace(msg.Content),
		Attachment:     attachmentOf(msg),
		Timestamp:      msg.Timestamp.UTC(),
	}
	if out.Timestamp.IsZero() {
		out.Timestamp = time.Now().UTC()
	}
	if msg.Author != nil {
		out.SenderID = msg.Author.ID
	}
	return out, true
}

// attachmentOf returns the first eligible attachment, falling back to the
// first attachment of any kind, then to a PNG sticker.
func attachmentOf(msg *discordgo.Message) *channel.Attachment {
	var first *channel.Attachment
	for _, att := range msg.Attachments {
		if att == nil {
			continue
		}
		converted := channel.NewAttachment(att.URL, contentTypeOf(att), att.Filename, int64(att.Size), 0, media.Flags{})
		if converted.Eligible() {
			return converted
		}
		if first == nil {
			first = converted
		}
	}
	if first != nil {
		return first
	}
	for _, item := range msg.StickerItems {
		if item == nil {
			continue
		}
		if item.FormatType == discordgo.StickerFormatTypePNG {
			return channel.NewAttachment(stickerCDN+item.ID+".png", "image/png", item.Name, 0, 0, media.Flags{Sticker: true})
		}
	}
	return nil
}

func contentTypeOf(att *discordgo.MessageAttachment) string {
	if att.ContentType != "" {
		return att.ContentType
	}
	return mime.TypeByExtension(strings.ToLower(filepath.Ext(att.Filename)))
}
