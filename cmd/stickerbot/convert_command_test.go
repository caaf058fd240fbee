package main

import (
	"os"
	"path/filepath"
	"testing"

	"stickerbot/internal/config"
	"stickerbot/internal/sticker"
	"stickerbot/internal/testsupport"
)

func TestConvertCommandWritesStampedSticker(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithImageBackend(config.ImageBackendNative),
		testsupport.WithStickerDefaults("pack", "bot"),
	)
	input := filepath.Join(t.TempDir(), "in.png")
	if err := os.WriteFile(input, testsupport.PNG(t, 120, 60), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(t.TempDir(), "out.webp")

	out, _, err := runCLI(t, []string{"convert", input, output, "--author", "jane"}, env.configPath)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	requireContains(t, out, "Wrote static sticker")

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	meta, ok, err := sticker.ReadMetadata(data)
	if err != nil || !ok {
		t.Fatalf("ReadMetadata: %v, %v", ok, err)
	}
	if meta != (sticker.Metadata{Name: "pack", Author: "jane"}) {
		t.Fatalf("unexpected metadata %+v", meta)
	}

	entries, err := os.ReadDir(env.cfg.Paths.WorkDir)
	if err != nil {
		t.Fatalf("read work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("scope not cleaned up: %v", entries)
	}
}

func TestConvertCommandRejectsNonMedia(t *testing.T) {
	env := setupCLITestEnv(t)
	input := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(input, []byte("just text"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, []string{"convert", input, filepath.Join(t.TempDir(), "x.webp")}, env.configPath); err == nil {
		t.Fatal("expected error for text input")
	}
}
