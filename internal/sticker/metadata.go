package sticker

import (
	"github.com/google/uuid"

	"stickerbot/internal/textutil"
)

// Metadata is the pack attribution carried by a sticker.
type Metadata struct {
	Name   string
	Author string
}

// NewMetadata normalizes user-supplied labels. An empty author is allowed.
func NewMetadata(name, author string) Metadata {
	return Metadata{
		Name:   textutil.NormalizeLabel(name),
		Author: textutil.NormalizeLabel(author),
	}
}

// Asset is a sticker ready to hand to a transport.
type Asset struct {
	Data     []byte
	Animated bool
	Metadata Metadata
}

// PackID derives a stable pack identifier from the metadata so stickers with
// the same name and author group together in clients.
func PackID(meta Metadata) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(meta.Name+"\x00"+meta.Author)).String()
}
