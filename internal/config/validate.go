package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBot(); err != nil {
		return err
	}
	if err := c.validateConversion(); err != nil {
		return err
	}
	if c.Queue.MaxPending < 1 {
		return errors.New("queue.max_pending must be at least 1")
	}
	if err := c.validateTransports(); err != nil {
		return err
	}
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be non-negative")
	}
	return c.validateLogging()
}

func (c *Config) validateBot() error {
	if strings.ContainsAny(c.Bot.Prefix, " \t\n") {
		return errors.New("bot.prefix must not contain whitespace")
	}
	if strings.ContainsAny(c.Bot.RenameSeparator, " \t\n") {
		return errors.New("bot.rename_separator must not contain whitespace")
	}
	return nil
}

func (c *Config) validateConversion() error {
	switch c.Conversion.ImageBackend {
	case ImageBackendFFmpeg, ImageBackendNative:
	default:
		return fmt.Errorf("conversion.image_backend: unsupported value %q (want %q or %q)", c.Conversion.ImageBackend, ImageBackendFFmpeg, ImageBackendNative)
	}
	if c.Conversion.Size < 64 || c.Conversion.Size > 2048 {
		return errors.New("conversion.size must be between 64 and 2048")
	}
	if c.Conversion.MaxInputSeconds <= 0 {
		return errors.New("conversion.max_input_seconds must be positive")
	}
	if c.Conversion.MaxOutputSeconds <= 0 {
		return errors.New("conversion.max_output_seconds must be positive")
	}
	if c.Conversion.FrameRate < 1 || c.Conversion.FrameRate > 60 {
		return errors.New("conversion.frame_rate must be between 1 and 60")
	}
	if c.Conversion.Quality < 0 || c.Conversion.Quality > 100 {
		return errors.New("conversion.quality must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateTransports() error {
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return errors.New("telegram.bot_token must be set when telegram.enabled is true (or set TELEGRAM_BOT_TOKEN)")
	}
	if c.Discord.Enabled && c.Discord.BotToken == "" {
		return errors.New("discord.bot_token must be set when discord.enabled is true (or set DISCORD_BOT_TOKEN)")
	}
	if c.Telegram.MaxDownloadMB < 0 || c.Discord.MaxDownloadMB < 0 {
		return errors.New("max_download_mb must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be non-negative")
	}
	if c.Logging.Timezone != "" {
		if _, err := time.LoadLocation(c.Logging.Timezone); err != nil {
			return fmt.Errorf("logging.timezone: %w", err)
		}
	}
	return nil
}

// HasTransport reports whether at least one messaging transport is enabled.
func (c *Config) HasTransport() bool {
	return c.Telegram.Enabled || c.Discord.Enabled
}
