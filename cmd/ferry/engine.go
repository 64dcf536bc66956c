package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jamesainslie/ferry/cmd/ferry/tui"
	"github.com/jamesainslie/ferry/pkg/ferry/config"
	"github.com/jamesainslie/ferry/pkg/ferry/entry"
	"github.com/jamesainslie/ferry/pkg/ferry/fsentry"
	"github.com/jamesainslie/ferry/pkg/ferry/journal"
	"github.com/jamesainslie/ferry/pkg/ferry/linker"
	"github.com/jamesainslie/ferry/pkg/ferry/logging"
	"github.com/jamesainslie/ferry/pkg/ferry/operation"
	"github.com/jamesainslie/ferry/pkg/ferry/output"
	"github.com/jonboulle/clockwork"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// job runs one operation with the given options and returns what should be
// printed once the UI is gone.
type job func(ctx context.Context, opts operation.Options) (*output.Result, error)

// engine holds what the operation commands share: configuration, the
// scheduler, the terminal and the journal.
type engine struct {
	cfg       *config.Config
	log       *logging.Logger
	clock     clockwork.Clock
	scheduler *operation.Scheduler

	// fs backs entries; nil means the host filesystem.
	fs afero.Fs

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	interactive bool
	quiet       bool
	format      string
}

// newEngine builds the engine for a command run from the global viper
// state.
func newEngine() (*engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	format := cfg.Output
	if format == "" {
		format = config.DefaultOutput
	}
	if _, err := output.Get(format); err != nil {
		return nil, fmt.Errorf("unknown output format %q: available formats are %v", format, output.Available())
	}

	return &engine{
		cfg:         cfg,
		log:         logging.Get("cli"),
		clock:       clockwork.NewRealClock(),
		scheduler:   operation.NewScheduler(),
		stdin:       bufio.NewReader(os.Stdin),
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		interactive: useTUI(format),
		quiet:       getQuiet(),
		format:      format,
	}, nil
}

// useTUI reports whether the run gets the terminal UI: never with
// --no-interactive, a machine output format, or without a terminal.
func useTUI(format string) bool {
	if viper.GetBool("no_interactive") {
		return false
	}
	if format != config.DefaultOutput {
		return false
	}
	return isatty.IsTerminal(os.Stderr.Fd()) && isatty.IsTerminal(os.Stdin.Fd())
}

// entry resolves a command-line path.
func (e *engine) entry(path string) (entry.Entry, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand path: %w", err)
	}
	if e.fs == nil {
		return fsentry.Local(expanded)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	return fsentry.New(e.fs, abs), nil
}

// existing resolves a path that must exist.
func (e *engine) existing(path string) (entry.Entry, error) {
	en, err := e.entry(path)
	if err != nil {
		return nil, err
	}
	if !en.Exists() {
		return nil, fmt.Errorf("path does not exist: %s", en.Path())
	}
	return en, nil
}

// options assembles operation options from the configuration.
func (e *engine) options(resolver operation.Resolver, observer operation.ObserverFactory) (operation.Options, error) {
	chunk, err := e.cfg.ChunkBytes()
	if err != nil {
		return operation.Options{}, err
	}
	return operation.Options{
		Scheduler:     e.scheduler,
		Clock:         e.clock,
		Resolver:      resolver,
		Observer:      observer,
		Texts:         operation.English,
		Linker:        linker.New(e.cfg.Link.Helper, e.cfg.Link.Timeout),
		ChunkSize:     chunk,
		SliceBudget:   e.cfg.Engine.SliceBudget,
		ProgressDelay: e.cfg.Engine.ProgressDelay,
		Logger:        logging.Get("operation"),
	}, nil
}

// run executes j next to the UI fitting the mode and prints its result
// after the UI has stopped. With the TUI, the session and the job run in
// one errgroup: a failing session cancels the job.
func (e *engine) run(ctx context.Context, j job) error {
	var (
		res    *output.Result
		jobErr error
	)

	if e.interactive {
		session := tui.NewSession(e.clock, tea.WithOutput(e.stderr))
		opts, err := e.options(newResolver(e.cfg.Issues, session), session.Observer())
		if err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(session.Run)
		g.Go(func() error {
			defer session.Quit()
			res, jobErr = j(gctx, opts)
			return nil
		})
		if err := g.Wait(); err != nil {
			e.log.Warn("terminal UI failed", "error", err)
			if jobErr == nil {
				jobErr = err
			}
		}
	} else {
		var observer operation.ObserverFactory
		if !e.quiet {
			observer = newLineObserver(e.stderr, e.clock)
		}
		opts, err := e.options(newResolver(e.cfg.Issues, newPromptResolver(e.stdin, e.stderr)), observer)
		if err != nil {
			return err
		}
		res, jobErr = j(ctx, opts)
	}

	if res != nil {
		if err := e.render(res); err != nil {
			return err
		}
	}
	return jobErr
}

// render prints a result in the configured format.
func (e *engine) render(r *output.Result) error {
	var formatter output.Formatter
	if tmpl := viper.GetString("template"); e.format == "template" && tmpl != "" {
		formatter = output.NewTemplateFormatter(tmpl)
	} else {
		f, err := output.Get(e.format)
		if err != nil {
			return fmt.Errorf("unknown output format %q: available formats are %v", e.format, output.Available())
		}
		formatter = f
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, r); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err := e.stdout.Write(buf.Bytes())
	return err
}

// record stores a journal entry. Journal failures are only logged.
func (e *engine) record(rec journal.Record) {
	if !e.cfg.Journal.Enabled {
		return
	}
	j, err := journal.Open(journal.Options{Path: e.cfg.Journal.Path, Clock: e.clock})
	if err != nil {
		e.log.Warn("cannot open journal", "path", e.cfg.Journal.Path, "error", err)
		return
	}
	defer func() {
		if err := j.Close(); err != nil {
			e.log.Warn("cannot close journal", "error", err)
		}
	}()

	if err := j.Put(rec); err != nil {
		e.log.Warn("cannot record operation", "id", rec.ID, "error", err)
		return
	}
	e.log.Debug("operation recorded", "id", rec.ID, "kind", rec.Kind, "outcome", rec.Outcome)
}
