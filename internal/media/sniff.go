package media

import "github.com/gabriel-vasile/mimetype"

// Sniffed is the content type detected from payload bytes.
type Sniffed struct {
	ContentType string
	Extension   string
}

// Sniff detects the payload's real content type from its magic bytes.
func Sniff(payload []byte) Sniffed {
	detected := mimetype.Detect(payload)
	ext := detected.Extension()
	if ext == "" {
		ext = ".bin"
	}
	return Sniffed{
		ContentType: NormalizeContentType(detected.String()),
		Extension:   ext,
	}
}
