package convert

import (
	"bytes"
	"fmt"
	"os"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// encodeNative decodes a still image, fill-resizes it to the square, and
// writes a lossy WebP to dest.
func encodeNative(payload []byte, dest string, opts Options) error {
	img, err := imaging.Decode(bytes.NewReader(payload), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	resized := imaging.Resize(img, opts.Size, opts.Size, imaging.Lanczos)

	file, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := webp.Encode(file, resized, &webp.Options{Lossless: false, Quality: float32(opts.Quality)}); err != nil {
		_ = file.Close()
		return fmt.Errorf("encode webp: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}
