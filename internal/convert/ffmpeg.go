package convert

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

func execFFmpeg(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func scaleFilter(size int) string {
	s := strconv.Itoa(size)
	return "scale=" + s + ":" + s + ":flags=lanczos"
}

// imageArgs builds a single-frame still encode. The scale filter has no
// aspect-ratio option, so the output fills the square exactly.
func imageArgs(opts Options, input, output string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
		"-vf", scaleFilter(opts.Size),
		"-frames:v", "1",
		"-c:v", "libwebp",
		"-lossless", "0",
		"-quality", strconv.Itoa(opts.Quality),
		"-f", "webp",
		output,
	}
}

// motionArgs builds the animated encode. When trim is set the input read is
// limited to the first MaxInputSeconds, which keeps the earliest segment.
func motionArgs(opts Options, input, output string, trim bool) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
	}
	if trim {
		args = append(args, "-t", strconv.Itoa(opts.MaxInputSeconds))
	}
	args = append(args,
		"-i", input,
		"-an",
		"-vf", "fps="+strconv.Itoa(opts.FrameRate)+","+scaleFilter(opts.Size),
		"-c:v", "libwebp",
		"-lossless", "0",
		"-quality", strconv.Itoa(opts.Quality),
		"-loop", "0",
		"-t", strconv.Itoa(opts.MaxOutputSeconds),
		"-f", "webp",
		output,
	)
	return args
}
