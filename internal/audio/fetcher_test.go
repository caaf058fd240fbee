package audio_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stickerbot/internal/audio"
	"stickerbot/internal/channel"
	"stickerbot/internal/logging"
	"stickerbot/internal/testsupport"
)

func outputDir(args []string) string {
	for i, arg := range args {
		if arg == "-o" && i+1 < len(args) {
			return filepath.Dir(args[i+1])
		}
	}
	return ""
}

func TestFetchSendsMP3AndCleansUp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var seenDir string
	var seenArgs []string
	restore := audio.SetRunnerForTests(func(_ context.Context, _ string, args []string) error {
		seenArgs = args
		seenDir = outputDir(args)
		return os.WriteFile(filepath.Join(seenDir, "song.mp3"), []byte("ID3"), 0o600)
	})
	defer restore()

	transport := testsupport.NewFakeTransport(nil)
	fetcher := audio.New(cfg, logging.NewNop())
	fetcher.Fetch(context.Background(), channel.Bind(transport, channel.Target{ConversationID: "c"}), "https://youtu.be/x")

	sent := transport.Sent()
	if len(sent) != 2 || sent[0].Text != audio.ReplyDownloading || sent[1].Kind != "audio" {
		t.Fatalf("unexpected sends %+v", sent)
	}
	if filepath.Base(sent[1].Path) != "song.mp3" {
		t.Fatalf("sent path = %s", sent[1].Path)
	}
	if strings.Join(seenArgs[:4], " ") != "-x --audio-format mp3 -o" || strings.Join(seenArgs[len(seenArgs)-2:], " ") != "-- https://youtu.be/x" {
		t.Fatalf("unexpected args %v", seenArgs)
	}
	if _, err := os.Stat(seenDir); !os.IsNotExist(err) {
		t.Fatalf("scope dir not removed: %v", err)
	}
}

func TestFetchFailureReplies(t *testing.T) {
	cases := []struct {
		name    string
		run     func(context.Context, string, []string) error
		sendErr error
		want    string
	}{
		{"tool fails", func(context.Context, string, []string) error { return errors.New("exit 1") }, nil, audio.ReplyInvalid},
		{"no mp3", func(context.Context, string, []string) error { return nil }, nil, audio.ReplyNoFile},
		{"send fails", func(_ context.Context, _ string, args []string) error {
			return os.WriteFile(filepath.Join(outputDir(args), "a.mp3"), []byte("x"), 0o600)
		}, testsupport.ErrSendFailed, audio.ReplySendFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t)
			restore := audio.SetRunnerForTests(tc.run)
			defer restore()

			transport := testsupport.NewFakeTransport(nil)
			transport.SendAudioErr = tc.sendErr
			audio.New(cfg, logging.NewNop()).Fetch(context.Background(), channel.Bind(transport, channel.Target{ConversationID: "c"}), "https://youtu.be/x")

			texts := transport.Texts()
			if len(texts) != 2 || texts[1] != tc.want {
				t.Fatalf("texts = %v, want final %q", texts, tc.want)
			}
			entries, _ := os.ReadDir(cfg.Paths.WorkDir)
			if len(entries) != 0 {
				t.Fatalf("work dir not empty: %v", entries)
			}
		})
	}
}
