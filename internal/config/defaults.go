package config

const (
	defaultWorkDir          = "~/.local/share/stickerbot/work"
	defaultLogDir           = "~/.local/share/stickerbot/logs"
	defaultStateDir         = "~/.local/share/stickerbot"
	defaultPrefix           = "!"
	defaultRenameSeparator  = "|"
	defaultStickerName      = "stickerbot"
	defaultStickerAuthor    = ""
	defaultImageBackend     = ImageBackendFFmpeg
	defaultStickerSize      = 512
	defaultMaxInputSeconds  = 6
	defaultMaxOutputSeconds = 5
	defaultFrameRate        = 15
	defaultWebPQuality      = 75
	defaultFFmpegBinary     = "ffmpeg"
	defaultFFprobeBinary    = "ffprobe"
	defaultYtDlpBinary      = "yt-dlp"
	defaultMaxPending       = 32
	defaultTelegramTimeout  = 30
	defaultMaxDownloadMB    = 20
	defaultNotifyTimeout    = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
)

// Image backends accepted by conversion.image_backend.
const (
	ImageBackendFFmpeg = "ffmpeg"
	ImageBackendNative = "native"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir,
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Bot: Bot{
			Prefix:          defaultPrefix,
			RenameSeparator: defaultRenameSeparator,
			Groups:          true,
			LogJobs:         true,
		},
		Sticker: Sticker{
			Name:   defaultStickerName,
			Author: defaultStickerAuthor,
		},
		Conversion: Conversion{
			ImageBackend:     defaultImageBackend,
			Size:             defaultStickerSize,
			MaxInputSeconds:  defaultMaxInputSeconds,
			MaxOutputSeconds: defaultMaxOutputSeconds,
			FrameRate:        defaultFrameRate,
			Quality:          defaultWebPQuality,
			FFmpegBinary:     defaultFFmpegBinary,
			FFprobeBinary:    defaultFFprobeBinary,
		},
		Queue: Queue{
			MaxPending: defaultMaxPending,
		},
		Telegram: Telegram{
			PollTimeout:   defaultTelegramTimeout,
			MaxDownloadMB: defaultMaxDownloadMB,
		},
		Discord: Discord{
			MaxDownloadMB: defaultMaxDownloadMB,
		},
		Audio: Audio{
			Enabled:     true,
			YtDlpBinary: defaultYtDlpBinary,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Failures:       true,
			Startup:        true,
		},
		Journal: Journal{
			Enabled: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
