package sticker_test

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/chai2010/webp"

	"stickerbot/internal/sticker"
)

func encodeWebP(t *testing.T, lossless bool) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 8), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: lossless, Quality: 75}); err != nil {
		t.Fatalf("encode webp: %v", err)
	}
	return buf.Bytes()
}

func TestEmbedRoundTrip(t *testing.T) {
	for _, lossless := range []bool{false, true} {
		src := encodeWebP(t, lossless)
		meta := sticker.NewMetadata(" cat ", "jane")

		out, err := sticker.Embed(src, meta, "pack-1")
		if err != nil {
			t.Fatalf("Embed(lossless=%v): %v", lossless, err)
		}
		got, ok, err := sticker.ReadMetadata(out)
		if err != nil || !ok {
			t.Fatalf("ReadMetadata: ok=%v err=%v", ok, err)
		}
		if got != (sticker.Metadata{Name: "cat", Author: "jane"}) {
			t.Fatalf("unexpected metadata: %+v", got)
		}

		cfg, err := webp.DecodeConfig(bytes.NewReader(out))
		if err != nil {
			t.Fatalf("embedded webp no longer decodes: %v", err)
		}
		if cfg.Width != 64 || cfg.Height != 32 {
			t.Fatalf("unexpected dimensions %dx%d", cfg.Width, cfg.Height)
		}
		if sticker.IsAnimated(out) {
			t.Fatal("still image must not be flagged animated")
		}
	}
}

func TestEmbedReplacesExistingMetadata(t *testing.T) {
	first, err := sticker.Embed(encodeWebP(t, false), sticker.NewMetadata("one", ""), "p")
	if err != nil {
		t.Fatalf("first embed: %v", err)
	}
	second, err := sticker.Embed(first, sticker.NewMetadata("two", "me"), "p")
	if err != nil {
		t.Fatalf("second embed: %v", err)
	}
	if bytes.Count(second, []byte("EXIF")) != 1 {
		t.Fatal("expected exactly one EXIF chunk")
	}
	got, _, err := sticker.ReadMetadata(second)
	if err != nil || got.Name != "two" || got.Author != "me" {
		t.Fatalf("unexpected metadata %+v err=%v", got, err)
	}
}

func TestEmbedRejectsNonWebP(t *testing.T) {
	if _, err := sticker.Embed([]byte("\x89PNG\r\n\x1a\n...."), sticker.Metadata{}, ""); err == nil {
		t.Fatal("expected error for png input")
	}
	if _, ok, err := sticker.ReadMetadata(encodeWebP(t, false)); ok || err != nil {
		t.Fatalf("expected no metadata on plain webp, ok=%v err=%v", ok, err)
	}
}

func TestPackIDStableAndDistinct(t *testing.T) {
	a := sticker.PackID(sticker.Metadata{Name: "cat", Author: "jane"})
	b := sticker.PackID(sticker.NewMetadata(" cat ", "jane"))
	c := sticker.PackID(sticker.Metadata{Name: "catjane"})
	if a != b {
		t.Fatalf("pack id not stable: %s vs %s", a, b)
	}
	if a == c {
		t.Fatal("different metadata produced the same pack id")
	}
}
