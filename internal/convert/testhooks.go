package convert

import (
	"context"

	"stickerbot/internal/media/ffprobe"
)

// probe is the ffprobe function used by the motion pipeline.
var probe = ffprobe.Inspect

// runFFmpeg executes one ffmpeg invocation.
var runFFmpeg = execFFmpeg

// SetProbeForTests overrides the ffprobe runner during tests.
func SetProbeForTests(fn func(context.Context, string, string) (ffprobe.Result, error)) func() {
	previous := probe
	probe = fn
	return func() {
		probe = previous
	}
}

// SetFFmpegRunnerForTests overrides the ffmpeg runner during tests.
func SetFFmpegRunnerForTests(fn func(ctx context.Context, binary string, args []string) error) func() {
	previous := runFFmpeg
	runFFmpeg = fn
	return func() {
		runFFmpeg = previous
	}
}
