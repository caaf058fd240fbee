package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"stickerbot/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains working and state directories.
type Paths struct {
	WorkDir  string `toml:"work_dir"`
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// Bot contains command grammar and chat behaviour settings.
type Bot struct {
	Prefix           string `toml:"prefix"`
	RenameSeparator  string `toml:"rename_separator"`
	Groups           bool   `toml:"groups"`
	ImplicitInGroups bool   `toml:"implicit_in_groups"`
	LogJobs          bool   `toml:"log_jobs"`
}

// Sticker contains the default metadata stamped on every sticker.
type Sticker struct {
	Name   string `toml:"name"`
	Author string `toml:"author"`
}

// Conversion contains the sticker geometry and transcoder settings.
type Conversion struct {
	ImageBackend     string `toml:"image_backend"`
	Size             int    `toml:"size"`
	MaxInputSeconds  int    `toml:"max_input_seconds"`
	MaxOutputSeconds int    `toml:"max_output_seconds"`
	FrameRate        int    `toml:"frame_rate"`
	Quality          int    `toml:"quality"`
	FFmpegBinary     string `toml:"ffmpeg_binary"`
	FFprobeBinary    string `toml:"ffprobe_binary"`
}

// Queue contains job queue bounds.
type Queue struct {
	MaxPending int `toml:"max_pending"`
}

// Telegram contains the Telegram Bot API transport settings.
type Telegram struct {
	Enabled       bool   `toml:"enabled"`
	BotToken      string `toml:"bot_token"`
	PollTimeout   int    `toml:"poll_timeout"`
	MaxDownloadMB int    `toml:"max_download_mb"`
}

// Discord contains the Discord gateway transport settings.
type Discord struct {
	Enabled       bool   `toml:"enabled"`
	BotToken      string `toml:"bot_token"`
	MaxDownloadMB int    `toml:"max_download_mb"`
}

// Audio contains settings for the audio extraction command.
type Audio struct {
	Enabled     bool   `toml:"enabled"`
	YtDlpBinary string `toml:"ytdlp_binary"`
}

// Notifications contains configuration for ntfy operator alerts.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Failures       bool   `toml:"failures"`
	Startup        bool   `toml:"startup"`
}

// Metrics contains the Prometheus exporter settings. An empty bind disables it.
type Metrics struct {
	Bind string `toml:"bind"`
}

// Journal controls the SQLite job history.
type Journal struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
	Timezone      string `toml:"timezone"`
}

// Config encapsulates all configuration values for stickerbot.
//
// Configuration sections by subsystem:
//   - Paths: work, log, and state directories
//   - Bot: command prefix, group behaviour, lifecycle logging
//   - Sticker: default pack name and author
//   - Conversion: output geometry, duration caps, transcoder binaries
//   - Queue: pending job bound
//   - Telegram / Discord: messaging transports
//   - Audio: yt-dlp audio extraction command
//   - Notifications: ntfy operator alerts
//   - Metrics: Prometheus exporter
//   - Journal: job history database
//   - Logging: log format, level, retention, and timezone
type Config struct {
	Paths         Paths         `toml:"paths"`
	Bot           Bot           `toml:"bot"`
	Sticker       Sticker       `toml:"sticker"`
	Conversion    Conversion    `toml:"conversion"`
	Queue         Queue         `toml:"queue"`
	Telegram      Telegram      `toml:"telegram"`
	Discord       Discord       `toml:"discord"`
	Audio         Audio         `toml:"audio"`
	Notifications Notifications `toml:"notifications"`
	Metrics       Metrics       `toml:"metrics"`
	Journal       Journal       `toml:"journal"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/stickerbot/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("stickerbot.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JournalPath returns the SQLite job history location.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "stickerbot.lock")
}

// PIDPath returns the daemon pid file location.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, "stickerbot.pid")
}

// MaxDownloadBytes converts a megabyte limit into bytes. Zero means unlimited.
func MaxDownloadBytes(mb int) int64 {
	if mb <= 0 {
		return 0
	}
	return int64(mb) << 20
}

// ExpandPath resolves ~ and relative segments into an absolute path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if err := fileutil.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
