package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"stickerbot/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Transports and notifications stay disabled.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Metrics.Bind = ""
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithImageBackend selects the still image conversion backend.
func WithImageBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Conversion.ImageBackend = backend
	}
}

// WithJobLogging toggles the per-job lifecycle log lines.
func WithJobLogging(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Bot.LogJobs = enabled
	}
}

// WithStickerDefaults overrides the default sticker metadata.
func WithStickerDefaults(name, author string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sticker.Name = name
		b.cfg.Sticker.Author = author
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg, ffprobe and yt-dlp are
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return WithStubScripts(defaultStubs(names), "#!/bin/sh\nexit 0\n")
}

// WithStubScripts writes the same shell script under every name and puts the
// directory first on PATH.
func WithStubScripts(names []string, script string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

func defaultStubs(names []string) []string {
	if len(names) > 0 {
		return names
	}
	return []string{"ffmpeg", "ffprobe", "yt-dlp"}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
