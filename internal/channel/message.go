package channel

import (
	"strings"
	"time"

	"stickerbot/internal/media"
)

// Attachment is a downloadable media reference carried by a message.
type Attachment struct {
	// Ref is the platform handle used by Transport.Download (a file id or URL).
	Ref         string
	ContentType string
	FileName    string
	Size        int64
	// Duration is the platform-reported length; zero means unknown.
	Duration time.Duration
	Flags    media.Flags
	Kind     media.Kind
}

// NewAttachment builds an attachment and classifies it.
func NewAttachment(ref, contentType, fileName string, size int64, duration time.Duration, flags media.Flags) *Attachment {
	contentType = media.NormalizeContentType(contentType)
	return &Attachment{
		Ref:         strings.TrimSpace(ref),
		ContentType: contentType,
		FileName:    strings.TrimSpace(fileName),
		Size:        size,
		Duration:    duration,
		Flags:       flags,
		Kind:        media.Classify(contentType, flags),
	}
}

// Eligible reports whether the attachment can become a sticker.
func (a *Attachment) Eligible() bool {
	return a != nil && a.Kind.Eligible()
}

// Message is one inbound chat message.
type Message struct {
	ID             string
	Platform       string
	ConversationID string
	// Direct is true for one-to-one conversations.
	Direct     bool
	SenderID   string
	Text       string
	Attachment *Attachment
	// Quoted is the message this one replies to, if any. Quoted messages
	// never carry a Quoted message of their own.
	Quoted    *Message
	Timestamp time.Time
}

// Target returns the reply destination for the message.
func (m Message) Target() Target {
	return Target{ConversationID: m.ConversationID, ReplyToMessageID: m.ID}
}

// Target addresses an outbound message.
type Target struct {
	ConversationID string
	// ReplyToMessageID threads the outbound message under an inbound one when set.
	ReplyToMessageID string
}
