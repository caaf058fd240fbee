// Package config loads, normalizes, and validates stickerbot configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TELEGRAM_BOT_TOKEN and DISCORD_BOT_TOKEN. The Config type centralizes every
// knob the daemon and CLI need: transports, conversion limits, queue bounds,
// and sticker defaults.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
