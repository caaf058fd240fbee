package media

// Kind is the conversion-relevant category of an attachment.
type Kind string

const (
	KindUnsupported Kind = "unsupported"
	KindStaticImage Kind = "static_image"
	KindAnimated    Kind = "animated_image"
	KindVideo       Kind = "video"
)

// Eligible reports whether the kind can be turned into a sticker.
func (k Kind) Eligible() bool {
	switch k {
	case KindStaticImage, KindAnimated, KindVideo:
		return true
	default:
		return false
	}
}

// Motion reports whether the kind goes through the frame pipeline.
func (k Kind) Motion() bool {
	return k == KindAnimated || k == KindVideo
}

func (k Kind) String() string { return string(k) }
