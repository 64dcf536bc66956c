package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jamesainslie/ferry/pkg/ferry/config"
	"github.com/jamesainslie/ferry/pkg/ferry/operation"
	"github.com/jonboulle/clockwork"
)

// policyDecision maps an issues.* policy to the answer it gives. "ask"
// maps to None.
func policyDecision(policy string) operation.Decision {
	switch policy {
	case config.PolicyRetry:
		return operation.Retry
	case config.PolicySkip:
		return operation.Skip
	case config.PolicyAbort:
		return operation.Abort
	case config.PolicyAll:
		return operation.OverwriteAll
	default:
		return operation.None
	}
}

// policyResolver answers from the configured policies and hands "ask"
// categories to an interactive resolver.
type policyResolver struct {
	auto      *operation.AutoResolver
	askErrors bool
	askExists bool
	ask       operation.Resolver
}

// newResolver returns the resolver for the issues config. With both
// policies set, ask is never used.
func newResolver(cfg config.IssuesConfig, ask operation.Resolver) operation.Resolver {
	onError := policyDecision(cfg.OnError)
	onExists := policyDecision(cfg.Overwrite)
	auto := operation.NewAutoResolver(onError, onExists, cfg.MaxRetries)
	if onError != operation.None && onExists != operation.None {
		return auto
	}
	return &policyResolver{
		auto:      auto,
		askErrors: onError == operation.None,
		askExists: onExists == operation.None,
		ask:       ask,
	}
}

func (r *policyResolver) Resolve(ctx context.Context, issue operation.Issue) (operation.Decision, error) {
	asking := r.askErrors
	if issue.Category == operation.CategoryOverwrite {
		asking = r.askExists
	}
	if asking {
		return r.ask.Resolve(ctx, issue)
	}
	return r.auto.Resolve(ctx, issue)
}

// answerKeys are the one-letter answers accepted at the prompt.
var answerKeys = map[string]operation.Decision{
	"r": operation.Retry,
	"o": operation.Overwrite,
	"O": operation.OverwriteAll,
	"s": operation.Skip,
	"S": operation.SkipAll,
	"a": operation.Abort,
}

// promptResolver asks on a line-oriented terminal. Input is read by one
// goroutine so a waiting prompt still honours cancellation.
type promptResolver struct {
	in  io.Reader
	out io.Writer

	mu    sync.Mutex
	once  sync.Once
	lines chan string
	err   error
}

func newPromptResolver(in io.Reader, out io.Writer) *promptResolver {
	return &promptResolver{in: in, out: out, lines: make(chan string)}
}

func (p *promptResolver) Resolve(ctx context.Context, issue operation.Issue) (operation.Decision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.once.Do(func() { go p.read() })

	fmt.Fprintf(p.out, "\n%s: %s\n", issue.Title, issue.Text)
	for {
		fmt.Fprintf(p.out, "%s? ", optionList(issue.Options))

		var line string
		select {
		case l, ok := <-p.lines:
			if !ok {
				if p.err != nil {
					return operation.Abort, fmt.Errorf("reading answer: %w", p.err)
				}
				return operation.Abort, fmt.Errorf("reading answer: %w", io.EOF)
			}
			line = l
		case <-ctx.Done():
			return operation.Abort, ctx.Err()
		}

		if d, ok := parseAnswer(line); ok && issue.Offers(d) {
			return d, nil
		}
		fmt.Fprintf(p.out, "Please answer one of: %s\n", optionList(issue.Options))
	}
}

func (p *promptResolver) read() {
	defer close(p.lines)
	sc := bufio.NewScanner(p.in)
	for sc.Scan() {
		p.lines <- sc.Text()
	}
	p.err = sc.Err()
}

// parseAnswer accepts a one-letter key or a decision token.
func parseAnswer(line string) (operation.Decision, bool) {
	line = strings.TrimSpace(line)
	if d, ok := answerKeys[line]; ok {
		return d, true
	}
	d, err := operation.ParseDecision(line)
	return d, err == nil
}

// optionList renders options with their keys: "r=retry s=skip".
func optionList(options []operation.Decision) string {
	parts := make([]string, 0, len(options))
	for _, d := range options {
		for key, kd := range answerKeys {
			if kd == d {
				parts = append(parts, key+"="+d.String())
				break
			}
		}
	}
	return strings.Join(parts, " ")
}

// lineInterval bounds how often a line observer prints.
const lineInterval = time.Second

// lineObserver prints progress as plain lines for logs and pipes.
type lineObserver struct {
	out   io.Writer
	clock clockwork.Clock
	last  time.Time
}

func newLineObserver(out io.Writer, clock clockwork.Clock) operation.ObserverFactory {
	return func(_ operation.Controller, initial operation.Snapshot) operation.Observer {
		o := &lineObserver{out: out, clock: clock, last: clock.Now()}
		o.print(initial)
		return o
	}
}

func (o *lineObserver) Update(s operation.Snapshot) {
	now := o.clock.Now()
	if now.Sub(o.last) < lineInterval {
		return
	}
	o.last = now
	o.print(s)
}

func (o *lineObserver) Close() {}

func (o *lineObserver) print(s operation.Snapshot) {
	if s.Undetermined {
		fmt.Fprintf(o.out, "%s %s\n", s.Title, s.Row1Value)
		return
	}
	fmt.Fprintf(o.out, "%s %5.1f%% %s\n", s.Title, s.Progress1, s.Row1Value)
}
