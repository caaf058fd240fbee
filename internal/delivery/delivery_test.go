package delivery_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/chai2010/webp"

	"stickerbot/internal/channel"
	"stickerbot/internal/delivery"
	"stickerbot/internal/logging"
	"stickerbot/internal/services"
	"stickerbot/internal/sticker"
	"stickerbot/internal/testsupport"
)

func writeWebP(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := webp.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 16, 16)), &webp.Options{Quality: 75}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "output.webp")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

type panickingReplier struct{}

func (panickingReplier) Text(context.Context, string) error { panic("text") }
func (panickingReplier) Sticker(context.Context, sticker.Asset) error { panic("sticker") }
func (panickingReplier) Audio(context.Context, string) error { panic("audio") }

func TestDeliverEmbedsMetadataAndSends(t *testing.T) {
	transport := testsupport.NewFakeTransport(nil)
	reply := channel.Bind(transport, channel.Target{ConversationID: "c", ReplyToMessageID: "m"})
	d := delivery.New(logging.NewNop())

	meta := sticker.Metadata{Name: "cat", Author: "jane"}
	asset, err := d.Deliver(context.Background(), reply, writeWebP(t), false, meta, "Failed to create sticker.")
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	sent := transport.Sent()
	if len(sent) != 1 || sent[0].Kind != "sticker" {
		t.Fatalf("unexpected sends %+v", sent)
	}
	got, ok, err := sticker.ReadMetadata(sent[0].Sticker.Data)
	if err != nil || !ok || got != meta {
		t.Fatalf("metadata = %+v, %v, %v", got, ok, err)
	}
	if asset.Metadata != meta {
		t.Fatalf("asset metadata = %+v", asset.Metadata)
	}
}

func TestDeliverSendsNoticeOnFailure(t *testing.T) {
	transport := testsupport.NewFakeTransport(nil)
	transport.SendStickerErr = testsupport.ErrSendFailed
	reply := channel.Bind(transport, channel.Target{ConversationID: "c"})
	d := delivery.New(logging.NewNop())

	_, err := d.Deliver(context.Background(), reply, writeWebP(t), false, sticker.Metadata{Name: "x"}, "Failed to create sticker.")
	if !errors.Is(err, services.ErrDelivery) {
		t.Fatalf("expected delivery error, got %v", err)
	}
	texts := transport.Texts()
	if len(texts) != 1 || texts[0] != "Failed to create sticker." {
		t.Fatalf("texts = %v", texts)
	}
}

func TestDeliverMissingAsset(t *testing.T) {
	transport := testsupport.NewFakeTransport(nil)
	reply := channel.Bind(transport, channel.Target{ConversationID: "c"})
	d := delivery.New(logging.NewNop())

	_, err := d.Deliver(context.Background(), reply, filepath.Join(t.TempDir(), "missing.webp"), false, sticker.Metadata{}, "Failed.")
	if !errors.Is(err, services.ErrOutputMissing) {
		t.Fatalf("expected output missing, got %v", err)
	}
	if texts := transport.Texts(); len(texts) != 1 {
		t.Fatalf("expected one notice, got %v", texts)
	}
}

func TestFailSwallowsPanics(t *testing.T) {
	d := delivery.New(logging.NewNop())
	d.Fail(context.Background(), panickingReplier{}, "notice", errors.New("cause"))
	d.Fail(context.Background(), nil, "notice", nil)

	_, err := d.Deliver(context.Background(), panickingReplier{}, writeWebP(t), false, sticker.Metadata{}, "notice")
	if !errors.Is(err, services.ErrDelivery) {
		t.Fatalf("expected delivery error from panicking send, got %v", err)
	}
}
