package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/ferry/pkg/ferry/config"
	"github.com/jamesainslie/ferry/pkg/ferry/journal"
	"github.com/jamesainslie/ferry/pkg/ferry/types"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	Long: `View the history of scan, delete, copy, move and search operations.

Every operation ferry runs is recorded in the journal together with its
outcome and totals. IDs may be shortened to any unique prefix.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details of a specific operation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove records older than the retention period",
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// openJournal opens the configured journal.
func openJournal() (*journal.Journal, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	j, err := journal.Open(journal.Options{Path: cfg.Journal.Path})
	if err != nil {
		return nil, nil, err
	}
	return j, cfg, nil
}

// runHistory lists recent operations.
func runHistory(cmd *cobra.Command, _ []string) error {
	j, _, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	records, err := j.List(historyLimit)
	if err != nil {
		return fmt.Errorf("listing history: %w", err)
	}
	if len(records) == 0 {
		printInfo("No history entries found.")
		return nil
	}

	writeHistory(cmd.OutOrStdout(), records, time.Now())
	return nil
}

// writeHistory prints records newest first as a table.
func writeHistory(w io.Writer, records []journal.Record, now time.Time) {
	fmt.Fprintf(w, "\n%-8s  %-6s  %-8s  %-14s  %10s  %s\n", "ID", "KIND", "OUTCOME", "WHEN", "SIZE", "SOURCE")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, r := range records {
		fmt.Fprintf(w, "%-8s  %-6s  %-8s  %-14s  %10s  %s\n",
			r.ID.String()[:8],
			r.Kind,
			r.Outcome,
			humanize.RelTime(r.Started, now, "ago", "from now"),
			types.FormatSize(r.Bytes),
			truncateString(r.Source, 30),
		)
	}

	fmt.Fprintln(w, strings.Repeat("-", 80))
	fmt.Fprintf(w, "\nShowing %d entries. Use --limit to see more.\n", len(records))
	fmt.Fprintln(w, "Use 'ferry history show <id>' for details on a specific entry.")
}

// runHistoryShow displays one record.
func runHistoryShow(cmd *cobra.Command, args []string) error {
	j, _, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	r, err := j.Get(args[0])
	switch {
	case errors.Is(err, journal.ErrNotFound):
		return fmt.Errorf("no operation with ID %q", args[0])
	case errors.Is(err, journal.ErrAmbiguousID):
		return fmt.Errorf("ID %q matches several operations; give more characters", args[0])
	case err != nil:
		return err
	}

	writeRecord(cmd.OutOrStdout(), r)
	return nil
}

// writeRecord prints every field of r.
func writeRecord(w io.Writer, r *journal.Record) {
	fmt.Fprintln(w, "\nOperation Details")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "ID:         %s\n", r.ID)
	fmt.Fprintf(w, "Kind:       %s\n", r.Kind)
	fmt.Fprintf(w, "Outcome:    %s\n", r.Outcome)
	fmt.Fprintf(w, "Started:    %s\n", r.Started.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Elapsed:    %s\n", r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Source:     %s\n", r.Source)
	if r.Target != "" {
		fmt.Fprintf(w, "Target:     %s\n", r.Target)
	}
	fmt.Fprintf(w, "Nodes:      %s\n", humanize.Comma(r.Nodes))
	fmt.Fprintf(w, "Size:       %s\n", types.FormatSize(r.Bytes))
	if r.Completed > 0 || r.Skipped > 0 {
		fmt.Fprintf(w, "Completed:  %s\n", humanize.Comma(r.Completed))
		fmt.Fprintf(w, "Skipped:    %s\n", humanize.Comma(r.Skipped))
	}
	if r.Matches > 0 {
		fmt.Fprintf(w, "Matches:    %d\n", r.Matches)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "Error:      %s\n", r.Error)
	}
}

// runHistoryClean removes old records.
func runHistoryClean(_ *cobra.Command, _ []string) error {
	j, cfg, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	days := cfg.Journal.RetentionDays
	if days <= 0 {
		days = config.DefaultRetentionDays
	}

	printInfo("Cleaning history entries older than %d days...", days)
	n, err := j.Cleanup(days)
	if err != nil {
		return fmt.Errorf("cleaning history: %w", err)
	}
	printInfo("Removed %d entries.", n)
	return nil
}

// truncateString shortens s to maxLen, keeping the tail of the path.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[len(s)-maxLen:]
	}
	return "..." + s[len(s)-maxLen+3:]
}
