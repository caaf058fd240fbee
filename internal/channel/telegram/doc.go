// Package telegram adapts the Telegram Bot API (long polling) to the
// channel.Transport interface.
package telegram
