package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"stickerbot/internal/config"
	"stickerbot/internal/daemon"
	"stickerbot/internal/journal"
	"stickerbot/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show bot, dependency and journal status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			lines, err := buildStatusLines(cmd.Context(), cfg, shouldColorize(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))
			return nil
		},
	}
}

func buildStatusLines(ctx context.Context, cfg *config.Config, colorize bool) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var lines []string

	lines = append(lines, renderSectionHeader("Bot", colorize)...)
	status, err := daemon.Probe(cfg)
	if err != nil {
		return nil, err
	}
	if status.Running {
		detail := "running"
		if status.PID > 0 {
			detail = fmt.Sprintf("running (pid %d)", status.PID)
		}
		lines = append(lines, renderStatusLine("Daemon", statusOK, detail, colorize))
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusInfo, "not running", colorize))
	}
	lines = append(lines, resultLine(preflight.CheckTransports(cfg), statusError, colorize))
	if status.Running {
		lines = append(lines, resultLine(preflight.CheckMetricsEndpoint(ctx, cfg.Metrics.Bind), statusWarn, colorize))
	}
	lines = append(lines, renderStatusLine("Audio command", statusInfo, yesNo(cfg.Audio.Enabled), colorize))
	lines = append(lines, renderStatusLine("Image backend", statusInfo, cfg.Conversion.ImageBackend, colorize))

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
	for _, dep := range preflight.CheckSystemDeps(cfg) {
		switch {
		case dep.Available:
			lines = append(lines, renderStatusLine(dep.Name, statusOK, dep.Command, colorize))
		case dep.Optional:
			lines = append(lines, renderStatusLine(dep.Name, statusWarn, dep.Detail+" (optional)", colorize))
		default:
			lines = append(lines, renderStatusLine(dep.Name, statusError, dep.Detail, colorize))
		}
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Directories", colorize)...)
	for _, r := range []preflight.Result{
		preflight.CheckDirectoryAccess("Work", cfg.Paths.WorkDir),
		preflight.CheckDirectoryAccess("Logs", cfg.Paths.LogDir),
		preflight.CheckDirectoryAccess("State", cfg.Paths.StateDir),
	} {
		lines = append(lines, resultLine(r, statusError, colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Journal", colorize)...)
	lines = append(lines, journalStatusLines(ctx, cfg, colorize)...)
	return lines, nil
}

func resultLine(r preflight.Result, failKind statusKind, colorize bool) string {
	if r.Passed {
		return renderStatusLine(r.Name, statusOK, r.Detail, colorize)
	}
	return renderStatusLine(r.Name, failKind, r.Detail, colorize)
}

func journalStatusLines(ctx context.Context, cfg *config.Config, colorize bool) []string {
	if !cfg.Journal.Enabled {
		return []string{renderStatusLine("Jobs", statusInfo, "journal disabled", colorize)}
	}
	store, err := journal.Open(cfg.JournalPath())
	if err != nil {
		return []string{renderStatusLine("Jobs", statusError, err.Error(), colorize)}
	}
	defer store.Close()

	stats, err := store.Stats(ctx)
	if err != nil {
		return []string{renderStatusLine("Jobs", statusError, err.Error(), colorize)}
	}
	if len(stats) == 0 {
		return []string{renderStatusLine("Jobs", statusInfo, "none recorded", colorize)}
	}
	statuses := make([]string, 0, len(stats))
	for s := range stats {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	lines := make([]string, 0, len(statuses))
	for _, s := range statuses {
		kind := statusInfo
		switch s {
		case journal.StatusCompleted:
			kind = statusOK
		case journal.StatusFailed, journal.StatusAbandoned:
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(s, kind, fmt.Sprintf("%d", stats[s]), colorize))
	}
	return lines
}
