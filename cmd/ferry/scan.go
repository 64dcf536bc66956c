package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jamesainslie/ferry/pkg/ferry/entry"
	"github.com/jamesainslie/ferry/pkg/ferry/journal"
	"github.com/jamesainslie/ferry/pkg/ferry/operation"
	"github.com/jamesainslie/ferry/pkg/ferry/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Summarize the size of a tree",
	Long: `Scan walks a tree and reports the size of every directory, largest
first. Symbolic links are counted but never followed.

Examples:
  ferry scan                   # Current directory, one level deep
  ferry scan ~/src --depth 3   # Three levels below ~/src
  ferry scan /var -o json      # Machine-readable`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntP("depth", "d", 1, "levels below the root to list (-1 for all)")
	_ = viper.BindPFlag("depth", scanCmd.Flags().Lookup("depth"))
	rootCmd.AddCommand(scanCmd)
}

// interruptible returns a context cancelled by SIGINT or SIGTERM.
func interruptible(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// outcomeOf classifies the error an operation future returned.
func outcomeOf(err error) journal.Outcome {
	switch {
	case err == nil:
		return journal.OutcomeFinished
	case errors.Is(err, operation.ErrAborted):
		return journal.OutcomeAborted
	default:
		return journal.OutcomeFailed
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// runScan is the scan command handler.
func runScan(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}
	root, err := eng.existing(path)
	if err != nil {
		return err
	}

	ctx, stop := interruptible(cmd)
	defer stop()
	return eng.run(ctx, eng.scanJob(root, viper.GetInt("depth")))
}

// scanJob scans root and lists it down to depth.
func (e *engine) scanJob(root entry.Entry, depth int) job {
	return func(ctx context.Context, opts operation.Options) (*output.Result, error) {
		started := e.clock.Now()
		s := operation.NewScan(root, opts)
		e.log.Info("scan started", "id", s.ID(), "path", root.Path())

		tree, err := s.Run(ctx).Wait(context.WithoutCancel(ctx))
		rec := journal.Record{
			ID:      s.ID(),
			Kind:    operation.KindScan,
			Source:  root.Path(),
			Started: started,
			Elapsed: e.clock.Since(started),
			Outcome: outcomeOf(err),
			Error:   errorText(err),
		}

		var res *output.Result
		if tree != nil {
			rec.Nodes, rec.Bytes = tree.Count, tree.Size
			res = output.FromTree(tree, depth)
		} else {
			res = &output.Result{Operation: operation.KindScan, Source: root.Path(), Aborted: true}
		}
		res.ID = s.ID().String()
		res.Totals.Elapsed = rec.Elapsed
		e.record(rec)

		e.log.Info("scan ended", "id", s.ID(), "outcome", rec.Outcome, "nodes", rec.Nodes, "bytes", rec.Bytes)
		return res, err
	}
}
