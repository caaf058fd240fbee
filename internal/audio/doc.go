// Package audio implements the yt-dlp audio extraction command. It is a
// one-shot external call per request and does not go through the sticker
// job queue.
package audio
