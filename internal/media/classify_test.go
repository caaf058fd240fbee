package media_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"stickerbot/internal/media"
	"stickerbot/internal/services"
	"stickerbot/internal/testsupport"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		contentType string
		flags       media.Flags
		want        media.Kind
	}{
		{"image/jpeg", media.Flags{}, media.KindStaticImage},
		{"IMAGE/PNG; charset=binary", media.Flags{}, media.KindStaticImage},
		{"image/webp", media.Flags{Sticker: true}, media.KindStaticImage},
		{"image/gif", media.Flags{}, media.KindAnimated},
		{"image/jpeg", media.Flags{AnimatedGIF: true}, media.KindAnimated},
		{"video/mp4", media.Flags{}, media.KindVideo},
		{"video/mp4", media.Flags{AnimatedGIF: true}, media.KindVideo},
		{"video/webm", media.Flags{Sticker: true}, media.KindVideo},
		{"image/svg+xml", media.Flags{}, media.KindUnsupported},
		{"audio/ogg", media.Flags{}, media.KindUnsupported},
		{"application/pdf", media.Flags{}, media.KindUnsupported},
		{"", media.Flags{}, media.KindUnsupported},
		{"garbage", media.Flags{AnimatedGIF: true}, media.KindUnsupported},
	}
	for _, tc := range cases {
		got := media.Classify(tc.contentType, tc.flags)
		if got != tc.want {
			t.Fatalf("Classify(%q, %+v) = %s, want %s", tc.contentType, tc.flags, got, tc.want)
		}
		if again := media.Classify(tc.contentType, tc.flags); again != got {
			t.Fatalf("Classify(%q) not deterministic: %s then %s", tc.contentType, got, again)
		}
	}
}

func TestKindPredicates(t *testing.T) {
	if media.KindUnsupported.Eligible() {
		t.Fatal("unsupported must not be eligible")
	}
	if !media.KindVideo.Motion() || !media.KindAnimated.Motion() || media.KindStaticImage.Motion() {
		t.Fatal("unexpected motion classification")
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestNewDescriptorSniffsPayload(t *testing.T) {
	desc, err := media.NewDescriptor(media.KindStaticImage, "", pngBytes(t), 0)
	if err != nil {
		t.Fatalf("NewDescriptor: %v", err)
	}
	if desc.ContentType != "image/png" {
		t.Fatalf("expected sniffed content type, got %q", desc.ContentType)
	}
	if desc.Extension != ".png" {
		t.Fatalf("expected .png extension, got %q", desc.Extension)
	}
	if desc.Kind != media.KindStaticImage {
		t.Fatalf("kind must be preserved, got %s", desc.Kind)
	}
}

func TestNewDescriptorKeepsDeclaredTypeAndDuration(t *testing.T) {
	desc, err := media.NewDescriptor(media.KindStaticImage, "image/x-png", pngBytes(t), 2*time.Second)
	if err != nil {
		t.Fatalf("NewDescriptor: %v", err)
	}
	if desc.ContentType != "image/x-png" || desc.ApproxDuration != 2*time.Second {
		t.Fatalf("unexpected descriptor: %+v", desc)
	}
}

func TestNewDescriptorRejectsNonMedia(t *testing.T) {
	_, err := media.NewDescriptor(media.KindStaticImage, "image/jpeg", []byte("<html><body>not found</body></html>"), 0)
	if !errors.Is(err, services.ErrDownload) {
		t.Fatalf("expected download error for html payload, got %v", err)
	}
	_, err = media.NewDescriptor(media.KindVideo, "video/mp4", nil, 0)
	if !errors.Is(err, services.ErrDownload) {
		t.Fatalf("expected download error for empty payload, got %v", err)
	}
	_, err = media.NewDescriptor(media.KindUnsupported, "image/png", pngBytes(t), 0)
	if !errors.Is(err, services.ErrIneligibleTarget) {
		t.Fatalf("expected ineligible target, got %v", err)
	}
}

func TestNewDescriptorPromotesMotionPayloads(t *testing.T) {
	cases := []struct {
		name     string
		declared media.Kind
		ctype    string
		payload  []byte
		want     media.Kind
		wantType string
	}{
		{"webm labelled as webp sticker", media.KindStaticImage, "image/webp", testsupport.WebMHeader(), media.KindVideo, "video/webm"},
		{"animated webp", media.KindStaticImage, "image/webp", testsupport.AnimatedWebP(64, 64), media.KindAnimated, "image/webp"},
		{"still png stays still", media.KindStaticImage, "image/png", pngBytes(t), media.KindStaticImage, "image/png"},
		{"declared video keeps kind", media.KindVideo, "video/webm", testsupport.WebMHeader(), media.KindVideo, "video/webm"},
	}
	for _, tc := range cases {
		desc, err := media.NewDescriptor(tc.declared, tc.ctype, tc.payload, 0)
		if err != nil {
			t.Fatalf("%s: NewDescriptor: %v", tc.name, err)
		}
		if desc.Kind != tc.want {
			t.Fatalf("%s: kind = %s, want %s", tc.name, desc.Kind, tc.want)
		}
		if desc.ContentType != tc.wantType {
			t.Fatalf("%s: content type = %q, want %q", tc.name, desc.ContentType, tc.wantType)
		}
	}
}

func TestPayloadKindDetectsAnimatedWebP(t *testing.T) {
	payload := testsupport.AnimatedWebP(32, 32)
	if got := media.PayloadKind(media.Sniff(payload), payload); got != media.KindAnimated {
		t.Fatalf("PayloadKind = %s, want %s", got, media.KindAnimated)
	}
}
