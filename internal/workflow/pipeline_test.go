package workflow_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"stickerbot/internal/channel"
	"stickerbot/internal/config"
	"stickerbot/internal/convert"
	"stickerbot/internal/delivery"
	"stickerbot/internal/dispatch"
	"stickerbot/internal/journal"
	"stickerbot/internal/logging"
	"stickerbot/internal/media"
	"stickerbot/internal/queue"
	"stickerbot/internal/sticker"
	"stickerbot/internal/testsupport"
	"stickerbot/internal/workflow"
)

type harness struct {
	cfg        *config.Config
	transport  *testsupport.FakeTransport
	journal    *journal.Store
	pipeline   *workflow.Pipeline
	queue      *queue.Queue
	dispatcher *dispatch.Dispatcher
}

func newHarness(t *testing.T, payloads map[string][]byte, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	return newLoggedHarness(t, logging.NewNop(), payloads, opts...)
}

func newLoggedHarness(t *testing.T, logger *slog.Logger, payloads map[string][]byte, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	opts = append([]testsupport.ConfigOption{
		testsupport.WithImageBackend(config.ImageBackendNative),
		testsupport.WithStickerDefaults("pack", "bot"),
	}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenJournal(t, cfg)

	pipeline := workflow.NewPipeline(cfg,
		convert.NewEngine(convert.OptionsFromConfig(cfg), logger),
		delivery.New(logger),
		store, nil, logger)
	q := queue.New(pipeline, queue.Options{MaxPending: cfg.Queue.MaxPending, Observer: pipeline, Logger: logger})
	return &harness{
		cfg:        cfg,
		transport:  testsupport.NewFakeTransport(payloads),
		journal:    store,
		pipeline:   pipeline,
		queue:      q,
		dispatcher: dispatch.New(dispatch.GrammarFromConfig(cfg), q, nil, logger),
	}
}

func (h *harness) send(t *testing.T, msg channel.Message) {
	t.Helper()
	h.dispatcher.Handle(context.Background(), h.transport, msg)
}

func (h *harness) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.queue.WaitIdle(ctx); err != nil {
		t.Fatalf("queue did not drain: %v", err)
	}
}

func (h *harness) assertWorkDirEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(h.cfg.Paths.WorkDir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func jpegAttachment(ref string) *channel.Attachment {
	return channel.NewAttachment(ref, "image/jpeg", "", 0, 0, media.Flags{})
}

func TestCreateStickerFromJPEG(t *testing.T) {
	h := newHarness(t, map[string][]byte{"photo": testsupport.JPEG(t, 300, 900)})

	h.send(t, channel.Message{ID: "1", ConversationID: "chat", Direct: true, Text: "!s", Attachment: jpegAttachment("photo")})
	h.wait(t)

	var stickers []testsupport.Sent
	for _, s := range h.transport.Sent() {
		if s.Kind == "sticker" {
			stickers = append(stickers, s)
		}
	}
	if len(stickers) != 1 {
		t.Fatalf("expected one sticker, got %+v", h.transport.Sent())
	}
	meta, ok, err := sticker.ReadMetadata(stickers[0].Sticker.Data)
	if err != nil || !ok || meta != (sticker.Metadata{Name: "pack", Author: "bot"}) {
		t.Fatalf("metadata = %+v, %v, %v", meta, ok, err)
	}
	if stickers[0].Target.ReplyToMessageID != "1" {
		t.Fatalf("sticker not threaded to the command: %+v", stickers[0].Target)
	}
	if texts := h.transport.Texts(); len(texts) != 0 {
		t.Fatalf("unexpected text replies %v", texts)
	}
	h.assertWorkDirEmpty(t)

	entries, err := h.journal.List(context.Background(), 10)
	if err != nil || len(entries) != 1 {
		t.Fatalf("journal = %+v, %v", entries, err)
	}
	if entries[0].Status != journal.StatusCompleted || entries[0].OutputBytes == 0 || entries[0].MediaKind != string(media.KindStaticImage) {
		t.Fatalf("unexpected journal entry %+v", entries[0])
	}
}

func TestRenameStampsRequestedMetadata(t *testing.T) {
	h := newHarness(t, map[string][]byte{"sticker": testsupport.PNG(t, 64, 64)})

	h.send(t, channel.Message{
		ID:             "2",
		ConversationID: "chat",
		Direct:         true,
		Text:           "!r cat|jane",
		Quoted:         &channel.Message{ID: "1", Attachment: channel.NewAttachment("sticker", "image/webp", "", 0, 0, media.Flags{Sticker: true})},
	})
	h.wait(t)

	sent := h.transport.Sent()
	if len(sent) != 1 || sent[0].Kind != "sticker" {
		t.Fatalf("unexpected sends %+v", sent)
	}
	if sent[0].Sticker.Metadata != (sticker.Metadata{Name: "cat", Author: "jane"}) {
		t.Fatalf("metadata = %+v", sent[0].Sticker.Metadata)
	}
}

func TestDownloadFailureRepliesNoMedia(t *testing.T) {
	h := newHarness(t, nil)

	h.send(t, channel.Message{ID: "1", ConversationID: "chat", Direct: true, Attachment: jpegAttachment("gone")})
	h.wait(t)

	texts := h.transport.Texts()
	if len(texts) != 1 || texts[0] != workflow.NoticeNoMedia {
		t.Fatalf("texts = %v", texts)
	}
	h.assertWorkDirEmpty(t)

	entries, _ := h.journal.List(context.Background(), 1)
	if len(entries) != 1 || entries[0].Status != journal.StatusFailed || entries[0].ErrorKind != "download" {
		t.Fatalf("unexpected journal %+v", entries)
	}
}

func TestRenameOfVideoStickerRepliesIneligible(t *testing.T) {
	h := newHarness(t, map[string][]byte{"sticker": testsupport.WebMHeader()})

	h.send(t, channel.Message{
		ID:             "2",
		ConversationID: "chat",
		Direct:         true,
		Text:           "!r cat|jane",
		Quoted:         &channel.Message{ID: "1", Attachment: channel.NewAttachment("sticker", "image/webp", "", 0, 0, media.Flags{Sticker: true})},
	})
	h.wait(t)

	texts := h.transport.Texts()
	if len(texts) != 1 || texts[0] != workflow.NoticeIneligible {
		t.Fatalf("texts = %v", texts)
	}
	for _, s := range h.transport.Sent() {
		if s.Kind == "sticker" {
			t.Fatalf("no sticker expected, got %+v", s)
		}
	}
	h.assertWorkDirEmpty(t)

	entries, _ := h.journal.List(context.Background(), 1)
	if len(entries) != 1 || entries[0].ErrorKind != "ineligible_target" {
		t.Fatalf("unexpected journal %+v", entries)
	}
}

func TestConversionFailureRepliesWithJobNotice(t *testing.T) {
	restore := convert.SetFFmpegRunnerForTests(func(context.Context, string, []string) error {
		return errors.New("ffmpeg exploded")
	})
	defer restore()
	h := newHarness(t, map[string][]byte{"photo": testsupport.JPEG(t, 32, 32)},
		testsupport.WithImageBackend(config.ImageBackendFFmpeg))

	h.send(t, channel.Message{ID: "1", ConversationID: "chat", Direct: true, Text: "!s", Attachment: jpegAttachment("photo")})
	h.wait(t)

	texts := h.transport.Texts()
	if len(texts) != 1 || texts[0] != dispatch.NoticeCreateFailed {
		t.Fatalf("texts = %v", texts)
	}
	h.assertWorkDirEmpty(t)
}

func TestFailedJobDoesNotBlockLaterJobs(t *testing.T) {
	h := newHarness(t, map[string][]byte{
		"a": testsupport.JPEG(t, 40, 40),
		"c": testsupport.PNG(t, 40, 20),
	})
	for i, ref := range []string{"a", "missing", "c"} {
		h.send(t, channel.Message{ID: string(rune('1' + i)), ConversationID: "chat", Direct: true, Attachment: jpegAttachment(ref)})
	}
	h.wait(t)

	totals := h.pipeline.Totals()
	if totals.Completed != 2 || totals.Failed != 1 {
		t.Fatalf("totals = %+v", totals)
	}
	if h.queue.State() != queue.StateIdle {
		t.Fatalf("queue state = %v", h.queue.State())
	}
	stats, err := h.journal.Stats(context.Background())
	if err != nil || stats[journal.StatusCompleted] != 2 || stats[journal.StatusFailed] != 1 {
		t.Fatalf("journal stats = %v, %v", stats, err)
	}
	h.assertWorkDirEmpty(t)
}

func TestJobLoggingToggleCoversFailures(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		h := newLoggedHarness(t, logger, nil, testsupport.WithJobLogging(enabled))

		h.send(t, channel.Message{ID: "1", ConversationID: "chat", Direct: true, Attachment: jpegAttachment("gone")})
		h.wait(t)

		out := buf.String()
		for _, line := range []string{`"msg":"job queued"`, `"msg":"job failed"`} {
			if strings.Contains(out, line) != enabled {
				t.Fatalf("log_jobs=%v: presence of %s wrong in:\n%s", enabled, line, out)
			}
		}
		if texts := h.transport.Texts(); len(texts) != 1 || texts[0] != workflow.NoticeNoMedia {
			t.Fatalf("log_jobs=%v: user notice must not depend on logging, got %v", enabled, texts)
		}
	}
}
