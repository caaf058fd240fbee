package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"stickerbot/internal/channel"
	"stickerbot/internal/config"
	"stickerbot/internal/logging"
	"stickerbot/internal/services"
	"stickerbot/internal/staging"
)

// User-facing replies.
const (
	ReplyDownloading = "Downloading, please wait..."
	ReplyInvalid     = "Invalid link or download failed."
	ReplyNoFile      = "Download failed."
	ReplySendFailed  = "Failed to send the file."
)

var runYtDlp = execYtDlp

// SetRunnerForTests swaps the yt-dlp invocation and returns a restore func.
func SetRunnerForTests(fn func(ctx context.Context, binary string, args []string) error) func() {
	prev := runYtDlp
	runYtDlp = fn
	return func() { runYtDlp = prev }
}

// Fetcher downloads audio tracks as MP3 and sends them back.
type Fetcher struct {
	binary  string
	workDir string
	logger  *slog.Logger
}

// New constructs a Fetcher from the audio and paths sections.
func New(cfg *config.Config, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		binary:  cfg.Audio.YtDlpBinary,
		workDir: cfg.Paths.WorkDir,
		logger:  logging.NewComponentLogger(logger, "audio"),
	}
}

// Fetch runs yt-dlp for url and replies with the MP3 or a failure message.
// Every temp file is removed before it returns.
func (f *Fetcher) Fetch(ctx context.Context, reply channel.Replier, url string) {
	id := uuid.NewString()
	ctx = services.WithRequestID(ctx, id)
	logger := logging.WithContext(ctx, f.logger)
	logger.Info("audio download requested", logging.String("url", url))

	f.say(ctx, logger, reply, ReplyDownloading)

	scope, err := staging.NewScope(f.workDir, "audio-"+id, logger)
	if err != nil {
		logging.ErrorWithContext(logger, "audio scope unavailable", "audio_failed", logging.Error(err))
		f.say(ctx, logger, reply, ReplyInvalid)
		return
	}
	defer scope.Close()

	template := filepath.Join(scope.Dir(), "%(title)s.%(ext)s")
	args := []string{"-x", "--audio-format", "mp3", "-o", template, "--", url}
	if err := runYtDlp(ctx, f.binary, args); err != nil {
		err = services.Wrap(services.ErrExternalTool, "audio", "yt-dlp", "download failed", err)
		logging.WarnWithContext(logger, "audio download failed", "audio_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "user received no audio"),
			logging.String(logging.FieldErrorHint, "check the link and that yt-dlp is up to date"),
		)
		f.say(ctx, logger, reply, ReplyInvalid)
		return
	}

	track, ok := firstMP3(scope.Dir())
	if !ok {
		logging.WarnWithContext(logger, "yt-dlp produced no mp3", "audio_failed",
			logging.String(logging.FieldImpact, "user received no audio"),
			logging.String(logging.FieldErrorHint, "check ffmpeg is installed for yt-dlp post-processing"),
		)
		f.say(ctx, logger, reply, ReplyNoFile)
		return
	}
	if err := reply.Audio(ctx, track); err != nil {
		logging.WarnWithContext(logger, "audio send failed", "audio_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "user received no audio"),
			logging.String(logging.FieldErrorHint, "the file may exceed the platform upload limit"),
		)
		f.say(ctx, logger, reply, ReplySendFailed)
		return
	}
	logger.Info("audio sent", logging.String("file", filepath.Base(track)))
}

func (f *Fetcher) say(ctx context.Context, logger *slog.Logger, reply channel.Replier, text string) {
	if err := reply.Text(ctx, text); err != nil {
		logger.Debug("audio reply failed", logging.Error(err))
	}
}

func firstMP3(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".mp3") {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), true
}

func execYtDlp(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("yt-dlp: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
