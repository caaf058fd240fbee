// Package convert turns resolved media into square WebP sticker assets.
//
// NormalizeImage fill-scales a still image to the configured square and
// encodes one lossy WebP frame, either through ffmpeg or in process with
// disintegration/imaging and chai2010/webp. NormalizeMotion probes the input
// with ffprobe, trims it to the earliest segment under the input ceiling,
// resamples the frame rate, drops audio, and encodes a looping animated WebP
// capped at the output duration.
//
// Every file the engine touches is acquired from the caller's workspace, so
// cleanup stays with the job scope. Encoders always write to a ".partial"
// path that is renamed only after a successful, non-empty encode; callers
// never observe a half-written sticker.
package convert
