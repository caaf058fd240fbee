package convert

import "stickerbot/internal/config"

// Options holds the sticker geometry and transcoder settings.
type Options struct {
	Size             int
	MaxInputSeconds  int
	MaxOutputSeconds int
	FrameRate        int
	Quality          int
	ImageBackend     string
	FFmpegBinary     string
	FFprobeBinary    string
}

// OptionsFromConfig maps the [conversion] section onto engine options.
func OptionsFromConfig(cfg *config.Config) Options {
	c := cfg.Conversion
	return Options{
		Size:             c.Size,
		MaxInputSeconds:  c.MaxInputSeconds,
		MaxOutputSeconds: c.MaxOutputSeconds,
		FrameRate:        c.FrameRate,
		Quality:          c.Quality,
		ImageBackend:     c.ImageBackend,
		FFmpegBinary:     c.FFmpegBinary,
		FFprobeBinary:    c.FFprobeBinary,
	}
}

func (o Options) withDefaults() Options {
	if o.Size <= 0 {
		o.Size = 512
	}
	if o.MaxInputSeconds <= 0 {
		o.MaxInputSeconds = 6
	}
	if o.MaxOutputSeconds <= 0 {
		o.MaxOutputSeconds = o.MaxInputSeconds
	}
	if o.FrameRate <= 0 {
		o.FrameRate = 15
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = 75
	}
	if o.ImageBackend == "" {
		o.ImageBackend = config.ImageBackendFFmpeg
	}
	if o.FFmpegBinary == "" {
		o.FFmpegBinary = "ffmpeg"
	}
	if o.FFprobeBinary == "" {
		o.FFprobeBinary = "ffprobe"
	}
	return o
}
