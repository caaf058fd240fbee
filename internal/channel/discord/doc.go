// Package discord adapts a discordgo gateway session to the channel.Transport
// interface.
package discord
