package preflight

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"stickerbot/internal/config"
	"stickerbot/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckTransports reports whether at least one messaging platform is enabled
// with a token.
func CheckTransports(cfg *config.Config) Result {
	const name = "Transports"

	var enabled []string
	if cfg.Telegram.Enabled {
		if strings.TrimSpace(cfg.Telegram.BotToken) == "" {
			return Result{Name: name, Detail: "telegram enabled without bot_token"}
		}
		enabled = append(enabled, "telegram")
	}
	if cfg.Discord.Enabled {
		if strings.TrimSpace(cfg.Discord.BotToken) == "" {
			return Result{Name: name, Detail: "discord enabled without bot_token"}
		}
		enabled = append(enabled, "discord")
	}
	if len(enabled) == 0 {
		return Result{Name: name, Detail: "no transport enabled"}
	}
	return Result{Name: name, Passed: true, Detail: strings.Join(enabled, ", ")}
}

// CheckSystemDeps evaluates the external binaries for the given config.
// Both the daemon and the CLI status command use this list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(deps.Tools{
		FFmpeg:  cfg.Conversion.FFmpegBinary,
		FFprobe: cfg.Conversion.FFprobeBinary,
		YtDlp:   cfg.Audio.YtDlpBinary,
		Audio:   cfg.Audio.Enabled,
	}))
}
