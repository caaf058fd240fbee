package media

import (
	"time"

	"stickerbot/internal/services"
	"stickerbot/internal/sticker"
)

// Descriptor is the resolved input of one conversion. It is built once per job
// at dequeue time and never mutated afterwards.
type Descriptor struct {
	ContentType string
	Kind        Kind
	Payload     []byte
	// ApproxDuration is the platform-reported length; zero means unknown.
	ApproxDuration time.Duration
	// Extension is the sniffed file extension including the dot, used to name
	// staged input files so the transcoder can pick a demuxer.
	Extension string
}

// NewDescriptor validates a downloaded payload and wraps it with the kind the
// dispatcher assigned at intake. An empty or non-media payload is a download
// failure. When the payload bytes show motion content (a video container, a
// GIF or an animated WebP) the payload kind replaces the declared one, since
// platforms label video and animated stickers as plain image/webp.
func NewDescriptor(kind Kind, declaredType string, payload []byte, approx time.Duration) (Descriptor, error) {
	if len(payload) == 0 {
		return Descriptor{}, services.Wrap(services.ErrDownload, "fetch", "describe", "empty media payload", nil)
	}
	if !kind.Eligible() {
		return Descriptor{}, services.Wrap(services.ErrIneligibleTarget, "fetch", "describe", "kind "+kind.String()+" cannot become a sticker", nil)
	}
	sniffed := Sniff(payload)
	if Classify(sniffed.ContentType, Flags{}) == KindUnsupported {
		return Descriptor{}, services.Wrap(services.ErrDownload, "fetch", "describe", "payload is "+sniffed.ContentType+", not media", nil)
	}
	contentType := NormalizeContentType(declaredType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = sniffed.ContentType
	}
	if payloadKind := PayloadKind(sniffed, payload); payloadKind.Motion() && payloadKind != kind {
		kind = payloadKind
		contentType = sniffed.ContentType
	}
	return Descriptor{
		ContentType:    contentType,
		Kind:           kind,
		Payload:        payload,
		ApproxDuration: approx,
		Extension:      sniffed.Extension,
	}, nil
}

// PayloadKind classifies sniffed payload bytes. Animated WebP has no distinct
// MIME type, so the VP8X animation flag is checked directly.
func PayloadKind(sniffed Sniffed, payload []byte) Kind {
	kind := Classify(sniffed.ContentType, Flags{})
	if kind == KindStaticImage && sniffed.ContentType == "image/webp" && sticker.IsAnimated(payload) {
		return KindAnimated
	}
	return kind
}
