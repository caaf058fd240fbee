package convert_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/chai2010/webp"

	"stickerbot/internal/config"
	"stickerbot/internal/convert"
	"stickerbot/internal/logging"
	"stickerbot/internal/media"
	"stickerbot/internal/media/ffprobe"
	"stickerbot/internal/services"
	"stickerbot/internal/staging"
	"stickerbot/internal/testsupport"
)

func newScope(t *testing.T) *staging.Scope {
	t.Helper()
	scope, err := staging.NewScope(t.TempDir(), "test", logging.NewNop())
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	t.Cleanup(scope.Close)
	return scope
}

func pngOfSize(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// recordingRunner writes a fake sticker to the output argument and keeps the args.
type recordingRunner struct {
	calls  [][]string
	err    error
	noFile bool
}

func (r *recordingRunner) run(_ context.Context, _ string, args []string) error {
	r.calls = append(r.calls, append([]string(nil), args...))
	if r.err != nil {
		return r.err
	}
	if r.noFile {
		return nil
	}
	return os.WriteFile(args[len(args)-1], []byte("RIFF....WEBP"), 0o600)
}

func stubProbe(seconds string) func(context.Context, string, string) (ffprobe.Result, error) {
	return func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{
			Streams: []ffprobe.Stream{{CodecType: "video", Width: 640, Height: 360}},
			Format:  ffprobe.Format{Duration: seconds},
		}, nil
	}
}

func indexOf(args []string, value string) int {
	return slices.Index(args, value)
}

func TestNormalizeImageNativeFillsSquare(t *testing.T) {
	engine := convert.NewEngine(convert.Options{ImageBackend: config.ImageBackendNative, Size: 512, Quality: 75}, logging.NewNop())
	scope := newScope(t)

	out, err := engine.NormalizeImage(context.Background(), scope, pngOfSize(t, 300, 900), ".png")
	if err != nil {
		t.Fatalf("NormalizeImage: %v", err)
	}
	file, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer file.Close()
	cfg, err := webp.DecodeConfig(file)
	if err != nil {
		t.Fatalf("decode webp config: %v", err)
	}
	if cfg.Width != 512 || cfg.Height != 512 {
		t.Fatalf("expected 512x512, got %dx%d", cfg.Width, cfg.Height)
	}
	if _, err := os.Stat(out + ".partial"); !os.IsNotExist(err) {
		t.Fatalf("expected partial file gone, stat err=%v", err)
	}
}

func TestNormalizeImageNativeRejectsGarbage(t *testing.T) {
	engine := convert.NewEngine(convert.Options{ImageBackend: config.ImageBackendNative}, logging.NewNop())
	scope := newScope(t)

	_, err := engine.NormalizeImage(context.Background(), scope, []byte("not an image"), ".png")
	if !errors.Is(err, services.ErrConversion) {
		t.Fatalf("expected conversion error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(scope.Dir(), "output.webp")); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output after failed encode, stat err=%v", statErr)
	}
}

func TestNormalizeImageFFmpegArgs(t *testing.T) {
	runner := &recordingRunner{}
	t.Cleanup(convert.SetFFmpegRunnerForTests(runner.run))

	engine := convert.NewEngine(convert.Options{Size: 512}, logging.NewNop())
	scope := newScope(t)

	out, err := engine.NormalizeImage(context.Background(), scope, pngOfSize(t, 300, 900), ".png")
	if err != nil {
		t.Fatalf("NormalizeImage: %v", err)
	}
	if filepath.Base(out) != "output.webp" {
		t.Fatalf("unexpected output path %s", out)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected one ffmpeg call, got %d", len(runner.calls))
	}
	args := runner.calls[0]
	if idx := indexOf(args, "-vf"); idx < 0 || args[idx+1] != "scale=512:512:flags=lanczos" {
		t.Fatalf("expected fill scale filter, got %v", args)
	}
	if idx := indexOf(args, "-frames:v"); idx < 0 || args[idx+1] != "1" {
		t.Fatalf("expected single frame, got %v", args)
	}
	if !strings.HasSuffix(args[indexOf(args, "-i")+1], "input.png") {
		t.Fatalf("expected staged input with sniffed extension, got %v", args)
	}
}

func TestNormalizeMotionTrimsLongInput(t *testing.T) {
	runner := &recordingRunner{}
	t.Cleanup(convert.SetFFmpegRunnerForTests(runner.run))
	t.Cleanup(convert.SetProbeForTests(stubProbe("20.0")))

	engine := convert.NewEngine(convert.Options{Size: 512, MaxInputSeconds: 6, MaxOutputSeconds: 5, FrameRate: 15}, logging.NewNop())
	scope := newScope(t)

	if _, err := engine.NormalizeMotion(context.Background(), scope, []byte("video"), ".mp4", 0); err != nil {
		t.Fatalf("NormalizeMotion: %v", err)
	}
	args := runner.calls[0]
	input := indexOf(args, "-i")
	trim := indexOf(args, "-t")
	if trim < 0 || trim > input || args[trim+1] != "6" {
		t.Fatalf("expected -t 6 before -i, got %v", args)
	}
	if indexOf(args, "-an") < 0 {
		t.Fatalf("expected audio stripped, got %v", args)
	}
	if idx := indexOf(args, "-vf"); idx < 0 || args[idx+1] != "fps=15,scale=512:512:flags=lanczos" {
		t.Fatalf("unexpected filter chain: %v", args)
	}
	if idx := indexOf(args, "-loop"); idx < 0 || args[idx+1] != "0" {
		t.Fatalf("expected infinite loop, got %v", args)
	}
	outputCap := slices.Index(args[input:], "-t")
	if outputCap < 0 || args[input+outputCap+1] != "5" {
		t.Fatalf("expected output cap of 5s after -i, got %v", args)
	}
}

func TestNormalizeMotionKeepsShortInputWhole(t *testing.T) {
	runner := &recordingRunner{}
	t.Cleanup(convert.SetFFmpegRunnerForTests(runner.run))
	t.Cleanup(convert.SetProbeForTests(stubProbe("3.2")))

	engine := convert.NewEngine(convert.Options{}, logging.NewNop())
	if _, err := engine.NormalizeMotion(context.Background(), newScope(t), []byte("gif"), ".gif", 0); err != nil {
		t.Fatalf("NormalizeMotion: %v", err)
	}
	args := runner.calls[0]
	if trim := indexOf(args, "-t"); trim >= 0 && trim < indexOf(args, "-i") {
		t.Fatalf("did not expect input trim for short source: %v", args)
	}
}

func TestNormalizeMotionProbeFailure(t *testing.T) {
	runner := &recordingRunner{}
	t.Cleanup(convert.SetFFmpegRunnerForTests(runner.run))
	t.Cleanup(convert.SetProbeForTests(func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{}, errors.New("moov atom not found")
	}))

	engine := convert.NewEngine(convert.Options{}, logging.NewNop())
	_, err := engine.NormalizeMotion(context.Background(), newScope(t), []byte("x"), ".mp4", 0)
	if !errors.Is(err, services.ErrConversion) {
		t.Fatalf("expected conversion error, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatal("encoder must not run after a failed probe")
	}
}

func TestNormalizeMotionEncoderFailure(t *testing.T) {
	runner := &recordingRunner{err: errors.New("exit status 1: Invalid data")}
	t.Cleanup(convert.SetFFmpegRunnerForTests(runner.run))
	t.Cleanup(convert.SetProbeForTests(stubProbe("2")))

	engine := convert.NewEngine(convert.Options{}, logging.NewNop())
	scope := newScope(t)
	_, err := engine.NormalizeMotion(context.Background(), scope, []byte("x"), ".mp4", 0)
	if !errors.Is(err, services.ErrConversion) {
		t.Fatalf("expected conversion error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(scope.Dir(), "output.webp")); !os.IsNotExist(statErr) {
		t.Fatal("expected no output after encoder failure")
	}
}

func TestNormalizeMotionOutputMissing(t *testing.T) {
	runner := &recordingRunner{noFile: true}
	t.Cleanup(convert.SetFFmpegRunnerForTests(runner.run))
	t.Cleanup(convert.SetProbeForTests(stubProbe("2")))

	engine := convert.NewEngine(convert.Options{}, logging.NewNop())
	_, err := engine.NormalizeMotion(context.Background(), newScope(t), []byte("x"), ".mp4", 0)
	if !errors.Is(err, services.ErrOutputMissing) {
		t.Fatalf("expected output missing error, got %v", err)
	}
}

func TestNormalizeRoutesByKind(t *testing.T) {
	runner := &recordingRunner{}
	t.Cleanup(convert.SetFFmpegRunnerForTests(runner.run))
	t.Cleanup(convert.SetProbeForTests(stubProbe("1")))

	engine := convert.NewEngine(convert.Options{}, logging.NewNop())

	asset, err := engine.Normalize(context.Background(), newScope(t), media.Descriptor{Kind: media.KindAnimated, Payload: []byte("gif"), Extension: ".gif"})
	if err != nil {
		t.Fatalf("Normalize animated: %v", err)
	}
	if !asset.Animated || asset.Bytes == 0 {
		t.Fatalf("expected animated asset with bytes, got %+v", asset)
	}
	if indexOf(runner.calls[0], "-loop") < 0 {
		t.Fatal("animated images must use the motion pipeline")
	}

	_, err = engine.Normalize(context.Background(), newScope(t), media.Descriptor{Kind: media.KindUnsupported})
	if !errors.Is(err, services.ErrIneligibleTarget) {
		t.Fatalf("expected ineligible target, got %v", err)
	}
}

func TestNormalizeSendsAnimatedWebPThroughMotion(t *testing.T) {
	runner := &recordingRunner{}
	t.Cleanup(convert.SetFFmpegRunnerForTests(runner.run))
	t.Cleanup(convert.SetProbeForTests(stubProbe("2")))

	desc, err := media.NewDescriptor(media.KindStaticImage, "image/webp", testsupport.AnimatedWebP(64, 64), 0)
	if err != nil {
		t.Fatalf("NewDescriptor: %v", err)
	}
	engine := convert.NewEngine(convert.Options{}, logging.NewNop())
	asset, err := engine.Normalize(context.Background(), newScope(t), desc)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !asset.Animated {
		t.Fatalf("expected animated asset, got %+v", asset)
	}
	args := runner.calls[0]
	if indexOf(args, "-loop") < 0 || indexOf(args, "-frames:v") >= 0 {
		t.Fatalf("animated webp must not be flattened to one frame: %v", args)
	}
}
