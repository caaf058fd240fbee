package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"stickerbot/internal/config"
	"stickerbot/internal/convert"
	"stickerbot/internal/fileutil"
	"stickerbot/internal/logging"
	"stickerbot/internal/media"
	"stickerbot/internal/staging"
	"stickerbot/internal/sticker"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var name, author, backend string

	cmd := &cobra.Command{
		Use:   "convert <input> <output.webp>",
		Short: "Convert a local image or clip into a sticker file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if backend != "" {
				cfg.Conversion.ImageBackend = backend
			}
			meta := sticker.NewMetadata(cfg.Sticker.Name, cfg.Sticker.Author)
			if cmd.Flags().Changed("name") {
				meta.Name = sticker.NewMetadata(name, "").Name
			}
			if cmd.Flags().Changed("author") {
				meta.Author = sticker.NewMetadata("", author).Author
			}

			asset, err := convertFile(cmd, cfg, args[0], args[1], meta)
			if err != nil {
				return err
			}
			kind := "static"
			if asset.Animated {
				kind = "animated"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s sticker to %s (%d bytes)\n", kind, args[1], len(asset.Data))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Sticker pack name (defaults to sticker.name)")
	cmd.Flags().StringVar(&author, "author", "", "Sticker author (defaults to sticker.author)")
	cmd.Flags().StringVar(&backend, "image-backend", "", "Override conversion.image_backend (ffmpeg or native)")
	return cmd
}

func convertFile(cmd *cobra.Command, cfg *config.Config, input, output string, meta sticker.Metadata) (sticker.Asset, error) {
	payload, err := os.ReadFile(input)
	if err != nil {
		return sticker.Asset{}, fmt.Errorf("read input: %w", err)
	}
	sniffed := media.Sniff(payload)
	kind := media.Classify(sniffed.ContentType, media.Flags{})
	desc, err := media.NewDescriptor(kind, sniffed.ContentType, payload, 0)
	if err != nil {
		return sticker.Asset{}, err
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
		Timezone:    cfg.Logging.Timezone,
	})
	if err != nil {
		return sticker.Asset{}, err
	}
	scope, err := staging.NewScope(cfg.Paths.WorkDir, "cli-"+uuid.NewString(), logger)
	if err != nil {
		return sticker.Asset{}, err
	}
	defer scope.Close()

	engine := convert.NewEngine(convert.OptionsFromConfig(cfg), logger)
	converted, err := engine.Normalize(cmd.Context(), scope, desc)
	if err != nil {
		return sticker.Asset{}, err
	}
	data, err := os.ReadFile(converted.Path)
	if err != nil {
		return sticker.Asset{}, fmt.Errorf("read converted sticker: %w", err)
	}
	data, err = sticker.Embed(data, meta, sticker.PackID(meta))
	if err != nil {
		return sticker.Asset{}, err
	}
	if err := fileutil.WriteFile(strings.TrimSpace(output), data, 0o644); err != nil {
		return sticker.Asset{}, fmt.Errorf("write output: %w", err)
	}
	return sticker.Asset{Data: data, Animated: converted.Animated, Metadata: meta}, nil
}
