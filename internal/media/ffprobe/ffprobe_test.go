package ffprobe

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Width: 300, Height: 900, AvgFrameRate: "30000/1001"},
			{CodecType: "audio"},
		},
		Format: Format{Duration: "20.5"},
	}
	video, ok := result.VideoStream()
	if !ok || video.Width != 300 || video.Height != 900 {
		t.Fatalf("unexpected video stream: %+v ok=%v", video, ok)
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected 1 audio stream, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 20.5 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if rate := video.FrameRate(); math.Abs(rate-29.97) > 0.01 {
		t.Fatalf("unexpected frame rate: %v", rate)
	}
}

func TestDurationFallsBackToStreams(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", Duration: "3.2"}, {CodecType: "video", Duration: "N/A"}},
		Format:  Format{Duration: "N/A"},
	}
	if got := result.DurationSeconds(); got != 3.2 {
		t.Fatalf("expected stream duration fallback, got %v", got)
	}
}

func TestDurationInvalid(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected NaN, got %v", result.DurationSeconds())
	}
	if (Stream{AvgFrameRate: "0/0"}).FrameRate() != 0 {
		t.Fatal("expected zero frame rate for 0/0")
	}
}

func TestInspectParsesStubOutput(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "ffprobe")
	body := "#!/bin/sh\ncat <<'JSON'\n{\"streams\":[{\"codec_type\":\"video\",\"width\":640,\"height\":480}],\"format\":{\"duration\":\"7.5\"}}\nJSON\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	result, err := Inspect(context.Background(), script, filepath.Join(dir, "input.mp4"))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if result.DurationSeconds() != 7.5 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
