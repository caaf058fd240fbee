package deps

// Tools names the binaries used by conversion and the audio command.
type Tools struct {
	FFmpeg  string
	FFprobe string
	YtDlp   string
	// Audio marks yt-dlp as required instead of optional.
	Audio bool
}

// Requirements lists the external binaries for the given tool set.
// ffmpeg and ffprobe are always required: animated and video input cannot be
// converted without them.
func Requirements(tools Tools) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     tools.FFmpeg,
			Description: "Required for animated and video stickers",
		},
		{
			Name:        "FFprobe",
			Command:     tools.FFprobe,
			Description: "Required for measuring clip duration",
		},
		{
			Name:        "yt-dlp",
			Command:     tools.YtDlp,
			Description: "Used by the audio download command",
			Optional:    !tools.Audio,
		},
	}
}
