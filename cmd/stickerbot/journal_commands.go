package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stickerbot/internal/journal"
)

func newJournalCommand(ctx *commandContext) *cobra.Command {
	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the sticker job history",
	}
	journalCmd.AddCommand(newJournalListCommand(ctx))
	journalCmd.AddCommand(newJournalShowCommand(ctx))
	return journalCmd
}

func (c *commandContext) withJournal(fn func(*journal.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Journal.Enabled {
		return fmt.Errorf("journal disabled in configuration")
	}
	store, err := journal.Open(cfg.JournalPath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newJournalListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(store *journal.Store) error {
				entries, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No jobs recorded")
					return nil
				}
				fmt.Fprintln(out, renderJournalTable(entries))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show")
	return cmd
}

func newJournalShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(store *journal.Store) error {
				entry, err := store.Get(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if entry == nil {
					return fmt.Errorf("job %s not found", args[0])
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Job:        %s\n", entry.ID)
				fmt.Fprintf(out, "Platform:   %s (%s)\n", entry.Platform, entry.ConversationID)
				fmt.Fprintf(out, "Command:    %s\n", entry.Command)
				fmt.Fprintf(out, "Media:      %s\n", entry.MediaKind)
				fmt.Fprintf(out, "Sticker:    %s / %s\n", entry.StickerName, entry.StickerAuthor)
				fmt.Fprintf(out, "Status:     %s\n", entry.Status)
				fmt.Fprintf(out, "Enqueued:   %s\n", entry.EnqueuedAt.Local().Format(time.DateTime))
				if d := entry.Duration(); d > 0 {
					fmt.Fprintf(out, "Duration:   %s\n", d.Round(time.Millisecond))
				}
				if entry.OutputBytes > 0 {
					fmt.Fprintf(out, "Output:     %d bytes\n", entry.OutputBytes)
				}
				if entry.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:      [%s] %s\n", entry.ErrorKind, entry.ErrorMessage)
				}
				return nil
			})
		},
	}
}

func renderJournalTable(entries []journal.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		duration := "-"
		if d := e.Duration(); d > 0 {
			duration = d.Round(time.Millisecond).String()
		}
		size := "-"
		if e.OutputBytes > 0 {
			size = strconv.FormatInt(e.OutputBytes, 10)
		}
		rows = append(rows, []string{
			shortJobID(e.ID),
			e.EnqueuedAt.Local().Format(time.DateTime),
			e.Platform,
			e.Command,
			e.MediaKind,
			e.Status,
			duration,
			size,
			e.ErrorKind,
		})
	}
	return renderTable(
		[]string{"ID", "Enqueued", "Platform", "Command", "Media", "Status", "Duration", "Bytes", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}

func shortJobID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
