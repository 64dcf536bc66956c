package main

import (
	"context"

	"github.com/jamesainslie/ferry/pkg/ferry/entry"
	"github.com/jamesainslie/ferry/pkg/ferry/filter"
	"github.com/jamesainslie/ferry/pkg/ferry/journal"
	"github.com/jamesainslie/ferry/pkg/ferry/operation"
	"github.com/jamesainslie/ferry/pkg/ferry/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var searchCmd = &cobra.Command{
	Use:   "search [root]",
	Short: "Find entries by name, content, type, size or age",
	Long: `Search walks a tree depth-first and lists every entry matching all
given criteria. The name term may use * and ? and matches anywhere in the
name. The content pattern is a case-insensitive regular expression tested
against file contents.

Examples:
  ferry search ~ --name '*.iso' --min-size 1G
  ferry search src --content 'TODO\(' --type file
  ferry search /var/log --older-than 30d -o paths`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	flags := searchCmd.Flags()
	flags.String("name", "", "name term; * and ? are wildcards")
	flags.String("content", "", "regular expression file contents must contain")
	flags.String("type", "", "entry type: file, dir or any")
	flags.String("min-size", "", "minimum size (e.g. 100K, 1G)")
	flags.String("max-size", "", "maximum size")
	flags.String("newer-than", "", "modified within this age (e.g. 2h, 7d)")
	flags.String("older-than", "", "modified before this age (e.g. 30d, 1y)")

	_ = viper.BindPFlag("name", flags.Lookup("name"))
	_ = viper.BindPFlag("content", flags.Lookup("content"))
	_ = viper.BindPFlag("type", flags.Lookup("type"))
	_ = viper.BindPFlag("min_size", flags.Lookup("min-size"))
	_ = viper.BindPFlag("max_size", flags.Lookup("max-size"))
	_ = viper.BindPFlag("newer_than", flags.Lookup("newer-than"))
	_ = viper.BindPFlag("older_than", flags.Lookup("older-than"))

	rootCmd.AddCommand(searchCmd)
}

// runSearch is the search command handler.
func runSearch(cmd *cobra.Command, args []string) error {
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
	f, err := buildFilter(eng.clock.Now())
	if err != nil {
		return err
	}

	ctx, stop := interruptible(cmd)
	defer stop()
	return eng.run(ctx, eng.searchJob(root, f))
}

// searchJob searches below root and lists the hits in the order found.
func (e *engine) searchJob(root entry.Entry, f *filter.Filter) job {
	return func(ctx context.Context, opts operation.Options) (*output.Result, error) {
		started := e.clock.Now()

		var hits []entry.Entry
		s := operation.NewSearch(root, f, func(m entry.Entry) {
			hits = append(hits, m)
		}, opts)
		e.log.Info("search started", "id", s.ID(), "path", root.Path(), "criteria", f.String())

		n, err := s.Run(ctx).Wait(context.WithoutCancel(ctx))
		elapsed := e.clock.Since(started)

		var bytes int64
		for _, h := range hits {
			if size, ok := h.Size(); ok {
				bytes += size
			}
		}
		e.record(journal.Record{
			ID:      s.ID(),
			Kind:    operation.KindSearch,
			Source:  root.Path(),
			Started: started,
			Elapsed: elapsed,
			Outcome: outcomeOf(err),
			Nodes:   int64(n),
			Bytes:   bytes,
			Matches: n,
			Error:   errorText(err),
		})
		e.log.Info("search ended", "id", s.ID(), "matches", n, "elapsed", elapsed)

		res := output.FromSearch(root.Path(), hits, elapsed, err != nil)
		res.ID = s.ID().String()
		return res, err
	}
}
