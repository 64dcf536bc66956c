package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jamesainslie/ferry/pkg/ferry/entry"
	"github.com/jamesainslie/ferry/pkg/ferry/operation"
	"github.com/jamesainslie/ferry/pkg/ferry/output"
	"github.com/spf13/cobra"
)

var copyCmd = &cobra.Command{
	Use:   "copy <source> <destination>",
	Short: "Copy a file or tree",
	Long: `Copy streams a tree to a destination. If the destination does not
exist, the source is copied to it; otherwise the source is copied into it
under its own name. Modification times are kept and symbolic links are
recreated, not followed.

Examples:
  ferry copy ~/photos /mnt/backup          # Creates /mnt/backup/photos
  ferry copy --overwrite all report.pdf .. # Replace without asking`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransfer(cmd, operation.KindCopy, args[0], args[1])
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <source> <destination>",
	Short: "Move a file or tree",
	Long: `Move copies a tree and deletes each source entry once it and
everything below it have been copied. Entries that could not be copied stay
in the source together with their parents.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransfer(cmd, operation.KindMove, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(moveCmd)
}

// runTransfer is the copy and move handler.
func runTransfer(cmd *cobra.Command, kind operation.Kind, srcPath, dstPath string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	src, err := eng.existing(srcPath)
	if err != nil {
		return err
	}
	dst, err := eng.entry(dstPath)
	if err != nil {
		return err
	}
	if err := checkTransfer(src, dst); err != nil {
		return err
	}

	ctx, stop := interruptible(cmd)
	defer stop()
	return eng.run(ctx, eng.transferJob(kind, src, dst))
}

// checkTransfer rejects a directory destination at or below the source.
func checkTransfer(src, dst entry.Entry) error {
	if !src.Supports(entry.Children) {
		return nil
	}
	prefix := strings.TrimSuffix(src.Path(), "/") + "/"
	if strings.HasPrefix(dst.Path()+"/", prefix) {
		return fmt.Errorf("cannot copy %s into itself (%s)", src.Path(), dst.Path())
	}
	return nil
}

// transferJob copies or moves src to dst.
func (e *engine) transferJob(kind operation.Kind, src, dst entry.Entry) job {
	return func(ctx context.Context, opts operation.Options) (*output.Result, error) {
		var c *operation.Copy
		if kind == operation.KindMove {
			c = operation.NewMove(src, dst, opts)
		} else {
			c = operation.NewCopy(src, dst, opts)
		}
		e.log.Info(string(kind)+" started", "id", c.ID(), "source", src.Path(), "target", dst.Path())

		summary, err := c.Run(ctx).Wait(context.WithoutCancel(ctx))
		return e.finishSummary(summary, err), err
	}
}
