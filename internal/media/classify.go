package media

import "strings"

// Flags carries platform hints that the content type alone does not express.
type Flags struct {
	// AnimatedGIF is set when the platform marks the attachment as a GIF
	// animation, whatever container it actually ships in.
	AnimatedGIF bool
	// Sticker is set for attachments that already are stickers.
	Sticker bool
}

var stillSubtypes = map[string]struct{}{
	"jpeg": {},
	"jpg":  {},
	"png":  {},
	"webp": {},
	"bmp":  {},
	"tiff": {},
}

// Classify maps a declared content type and flags onto a Kind. It is total:
// unknown or empty types classify as KindUnsupported.
func Classify(contentType string, flags Flags) Kind {
	major, minor := splitContentType(contentType)
	switch major {
	case "video":
		return KindVideo
	case "image":
		if flags.AnimatedGIF || minor == "gif" {
			return KindAnimated
		}
		if _, ok := stillSubtypes[minor]; ok {
			return KindStaticImage
		}
	}
	return KindUnsupported
}

// NormalizeContentType lowercases a MIME type and strips its parameters.
func NormalizeContentType(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

func splitContentType(contentType string) (string, string) {
	major, minor, ok := strings.Cut(NormalizeContentType(contentType), "/")
	if !ok {
		return "", ""
	}
	return major, minor
}
