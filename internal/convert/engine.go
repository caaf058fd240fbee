package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"stickerbot/internal/config"
	"stickerbot/internal/logging"
	"stickerbot/internal/media"
	"stickerbot/internal/services"
)

const (
	inputBase  = "input"
	outputName = "output.webp"
	partialExt = ".partial"
)

// Workspace hands out scoped file paths. staging.Scope satisfies it.
type Workspace interface {
	Path(name string) string
}

// Asset is a finished sticker file.
type Asset struct {
	Path     string
	Animated bool
	Bytes    int64
}

// Engine runs sticker conversions.
type Engine struct {
	opts   Options
	logger *slog.Logger
}

// NewEngine constructs an engine; zero option fields fall back to defaults.
func NewEngine(opts Options, logger *slog.Logger) *Engine {
	return &Engine{
		opts:   opts.withDefaults(),
		logger: logging.NewComponentLogger(logger, "convert"),
	}
}

// Options returns the effective engine options.
func (e *Engine) Options() Options { return e.opts }

// Normalize routes the descriptor to the pipeline for its kind. Animated
// images always take the motion path.
func (e *Engine) Normalize(ctx context.Context, ws Workspace, desc media.Descriptor) (Asset, error) {
	switch {
	case desc.Kind == media.KindStaticImage:
		path, err := e.NormalizeImage(ctx, ws, desc.Payload, desc.Extension)
		if err != nil {
			return Asset{}, err
		}
		return finishedAsset(path, false)
	case desc.Kind.Motion():
		path, err := e.NormalizeMotion(ctx, ws, desc.Payload, desc.Extension, desc.ApproxDuration)
		if err != nil {
			return Asset{}, err
		}
		return finishedAsset(path, true)
	default:
		return Asset{}, services.Wrap(services.ErrIneligibleTarget, "convert", "route", "unsupported media kind "+desc.Kind.String(), nil)
	}
}

// NormalizeImage produces a size×size lossy WebP from a still image payload.
func (e *Engine) NormalizeImage(ctx context.Context, ws Workspace, payload []byte, ext string) (string, error) {
	output := ws.Path(outputName)
	partial := ws.Path(outputName + partialExt)

	if e.opts.ImageBackend == config.ImageBackendNative {
		if err := encodeNative(payload, partial, e.opts); err != nil {
			removeQuietly(partial)
			return "", services.Wrap(services.ErrConversion, "convert", "image", "native encode failed", err)
		}
		return e.promote(partial, output, "image")
	}

	input, err := stageInput(ws, payload, ext)
	if err != nil {
		return "", err
	}
	args := imageArgs(e.opts, input, partial)
	e.logger.Debug("ffmpeg still encode", logging.String("args", fmt.Sprint(args)))
	if err := runFFmpeg(ctx, e.opts.FFmpegBinary, args); err != nil {
		removeQuietly(partial)
		return "", services.Wrap(services.ErrConversion, "convert", "image", "ffmpeg encode failed", err)
	}
	return e.promote(partial, output, "image")
}

// NormalizeMotion produces a looping animated WebP from a video or animated
// image payload. approx is the platform-reported duration, used only when
// probing cannot determine one.
func (e *Engine) NormalizeMotion(ctx context.Context, ws Workspace, payload []byte, ext string, approx time.Duration) (string, error) {
	input, err := stageInput(ws, payload, ext)
	if err != nil {
		return "", err
	}

	result, err := probe(ctx, e.opts.FFprobeBinary, input)
	if err != nil {
		return "", services.Wrap(services.ErrConversion, "convert", "probe", "ffprobe failed", err)
	}
	if _, ok := result.VideoStream(); !ok {
		return "", services.Wrap(services.ErrConversion, "convert", "probe", "input has no video stream", nil)
	}

	duration := result.DurationSeconds()
	if (duration <= 0 || math.IsNaN(duration)) && approx > 0 {
		duration = approx.Seconds()
	}
	trim := shouldTrim(duration, e.opts.MaxInputSeconds)

	output := ws.Path(outputName)
	partial := ws.Path(outputName + partialExt)
	args := motionArgs(e.opts, input, partial, trim)
	e.logger.Debug("ffmpeg motion encode",
		logging.Float64("source_seconds", duration),
		logging.Bool("trimmed", trim),
		logging.String("args", fmt.Sprint(args)),
	)
	if err := runFFmpeg(ctx, e.opts.FFmpegBinary, args); err != nil {
		removeQuietly(partial)
		return "", services.Wrap(services.ErrConversion, "convert", "motion", "ffmpeg encode failed", err)
	}
	return e.promote(partial, output, "motion")
}

// shouldTrim reports whether the input read must be capped. Unknown durations
// are capped as well.
func shouldTrim(durationSeconds float64, ceiling int) bool {
	if durationSeconds <= 0 || math.IsNaN(durationSeconds) {
		return true
	}
	return durationSeconds > float64(ceiling)
}

// promote renames a completed partial encode into place after checking the
// encoder actually produced bytes.
func (e *Engine) promote(partial, output, operation string) (string, error) {
	info, err := os.Stat(partial)
	if err != nil || info.Size() == 0 {
		removeQuietly(partial)
		if err == nil {
			err = errors.New("encoder wrote an empty file")
		}
		return "", services.Wrap(services.ErrOutputMissing, "convert", operation, "no sticker produced", err)
	}
	if err := os.Rename(partial, output); err != nil {
		removeQuietly(partial)
		return "", services.Wrap(services.ErrConversion, "convert", operation, "finalize output", err)
	}
	return output, nil
}

func stageInput(ws Workspace, payload []byte, ext string) (string, error) {
	if ext == "" {
		ext = ".bin"
	}
	input := ws.Path(inputBase + ext)
	if err := os.WriteFile(input, payload, 0o600); err != nil {
		return "", services.Wrap(services.ErrConversion, "convert", "stage", "write input file", err)
	}
	return input, nil
}

func finishedAsset(path string, animated bool) (Asset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Asset{}, services.Wrap(services.ErrOutputMissing, "convert", "stat", "sticker vanished", err)
	}
	return Asset{Path: path, Animated: animated, Bytes: info.Size()}, nil
}

// removeQuietly drops a failed partial encode; the job scope removes anything left.
func removeQuietly(path string) {
	_ = os.Remove(path)
}
