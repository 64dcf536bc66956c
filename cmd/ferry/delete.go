package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jamesainslie/ferry/pkg/ferry/entry"
	"github.com/jamesainslie/ferry/pkg/ferry/journal"
	"github.com/jamesainslie/ferry/pkg/ferry/operation"
	"github.com/jamesainslie/ferry/pkg/ferry/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// errNotConfirmed is returned when the operator declines a delete.
var errNotConfirmed = errors.New("delete not confirmed (use --yes to skip the question)")

var deleteCmd = &cobra.Command{
	Use:   "delete <path>",
	Short: "Delete a file or a whole tree",
	Long: `Delete removes a path and everything below it, children before their
parent. Failures can be retried or skipped; a skipped entry keeps its
ancestors in place.

Examples:
  ferry delete ./build                 # Asks for confirmation
  ferry delete --yes -n --on-error skip ./cache`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	_ = viper.BindPFlag("yes", deleteCmd.Flags().Lookup("yes"))
	rootCmd.AddCommand(deleteCmd)
}

// runDelete is the delete command handler.
func runDelete(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	target, err := eng.existing(args[0])
	if err != nil {
		return err
	}
	if target.Parent() == nil {
		return fmt.Errorf("refusing to delete the filesystem root %s", target.Path())
	}

	if !viper.GetBool("yes") {
		ok, err := confirm(eng.stdin, eng.stderr, fmt.Sprintf("Delete %s and everything below it?", target.Path()))
		if err != nil {
			return err
		}
		if !ok {
			return errNotConfirmed
		}
	}

	ctx, stop := interruptible(cmd)
	defer stop()
	return eng.run(ctx, eng.deleteJob(target))
}

// confirm asks a yes/no question. Anything but y or yes is a no; end of
// input is a no as well.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	br, ok := in.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(in)
	}
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// deleteJob deletes target.
func (e *engine) deleteJob(target entry.Entry) job {
	return func(ctx context.Context, opts operation.Options) (*output.Result, error) {
		d := operation.NewDelete(target, opts)
		e.log.Info("delete started", "id", d.ID(), "path", target.Path())

		summary, err := d.Run(ctx).Wait(context.WithoutCancel(ctx))
		return e.finishSummary(summary, err), err
	}
}

// finishSummary records a delete, copy or move and returns its result.
func (e *engine) finishSummary(s operation.Summary, err error) *output.Result {
	rec := journal.FromSummary(s)
	rec.Outcome = outcomeOf(err)
	rec.Error = errorText(err)
	e.record(rec)

	e.log.Info(string(s.Kind)+" ended",
		"id", s.ID,
		"outcome", rec.Outcome,
		"completed", s.Completed,
		"skipped", s.Skipped,
		"elapsed", s.Elapsed)
	return output.FromSummary(s)
}
