package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBot()
	c.normalizeSticker()
	c.normalizeConversion()
	c.normalizeTransports()
	c.normalizeAudio()
	c.normalizeNotifications()
	c.Metrics.Bind = strings.TrimSpace(c.Metrics.Bind)
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeBot() {
	c.Bot.Prefix = strings.TrimSpace(c.Bot.Prefix)
	if c.Bot.Prefix == "" {
		c.Bot.Prefix = defaultPrefix
	}
	c.Bot.RenameSeparator = strings.TrimSpace(c.Bot.RenameSeparator)
	if c.Bot.RenameSeparator == "" {
		c.Bot.RenameSeparator = defaultRenameSeparator
	}
}

func (c *Config) normalizeSticker() {
	c.Sticker.Name = strings.TrimSpace(c.Sticker.Name)
	c.Sticker.Author = strings.TrimSpace(c.Sticker.Author)
}

func (c *Config) normalizeConversion() {
	c.Conversion.ImageBackend = strings.ToLower(strings.TrimSpace(c.Conversion.ImageBackend))
	if c.Conversion.ImageBackend == "" {
		c.Conversion.ImageBackend = defaultImageBackend
	}
	c.Conversion.FFmpegBinary = strings.TrimSpace(c.Conversion.FFmpegBinary)
	if c.Conversion.FFmpegBinary == "" {
		c.Conversion.FFmpegBinary = defaultFFmpegBinary
	}
	c.Conversion.FFprobeBinary = strings.TrimSpace(c.Conversion.FFprobeBinary)
	if c.Conversion.FFprobeBinary == "" {
		c.Conversion.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeTransports() {
	c.Telegram.BotToken = strings.TrimSpace(c.Telegram.BotToken)
	if c.Telegram.BotToken == "" {
		if value, ok := os.LookupEnv("TELEGRAM_BOT_TOKEN"); ok {
			c.Telegram.BotToken = strings.TrimSpace(value)
		}
	}
	if c.Telegram.PollTimeout <= 0 {
		c.Telegram.PollTimeout = defaultTelegramTimeout
	}
	c.Discord.BotToken = strings.TrimSpace(c.Discord.BotToken)
	if c.Discord.BotToken == "" {
		if value, ok := os.LookupEnv("DISCORD_BOT_TOKEN"); ok {
			c.Discord.BotToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeAudio() {
	c.Audio.YtDlpBinary = strings.TrimSpace(c.Audio.YtDlpBinary)
	if c.Audio.YtDlpBinary == "" {
		c.Audio.YtDlpBinary = defaultYtDlpBinary
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Timezone = strings.TrimSpace(c.Logging.Timezone)
}
