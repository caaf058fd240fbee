// Package ffprobe provides a typed wrapper around ffprobe JSON output for the
// motion sticker path.
//
// Inspect runs ffprobe against a staged input file; Result helpers expose the
// duration (container first, falling back to the longest stream), the primary
// video geometry, and stream counts used to reject inputs without frames.
package ffprobe
