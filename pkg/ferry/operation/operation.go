// Package operation is the engine behind ferry: long-running scan, delete,
// copy, move and search operations over entry.Entry stores.
//
// Every operation runs on its own goroutine but only works while it holds
// the turn of its Scheduler. Work is done in small steps; after each step
// the operation checks for abort and pause, creates its progress observer
// once the progress delay has passed, and yields the turn when its slice
// budget is spent. Recoverable failures are raised as Issues and answered
// by a Resolver, with "skip all" and "overwrite all" answers remembered per
// category for the rest of the operation.
//
//	op := operation.NewCopy(src, dst, operation.Options{Resolver: r})
//	summary, err := op.Run(ctx).Wait(ctx)
//	if errors.Is(err, operation.ErrAborted) {
//	    // partial copy
//	}
package operation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jamesainslie/ferry/pkg/ferry/logging"
)

// ErrAborted is returned by Future.Wait when the operation was aborted.
var ErrAborted = errors.New("operation aborted")

type sliceResult int

const (
	sliceYield sliceResult = iota
	slicePaused
	sliceDone
)

// base carries the state shared by every operation: lifecycle, slicing,
// progress and the issue protocol. Fields from ctx on are only touched from
// the operation goroutine.
type base struct {
	id   uuid.UUID
	kind Kind
	opts Options
	log  *logging.Logger

	state   atomic.Int32
	started atomic.Bool
	wake    chan struct{}

	childMu sync.Mutex
	child   Controller

	ctx        context.Context
	created    time.Time
	startTime  time.Time
	sliceStart time.Time
	observer   Observer
	snapshot   Snapshot
	decisions  map[Category]Decision
}

func newBase(kind Kind, opts Options) *base {
	opts.applyDefaults()
	id := uuid.New()
	return &base{
		id:        id,
		kind:      kind,
		opts:      opts,
		log:       opts.Logger.With("op", kind, "id", id.String()[:8]),
		wake:      make(chan struct{}, 1),
		ctx:       context.Background(),
		created:   opts.Clock.Now(),
		decisions: make(map[Category]Decision),
	}
}

// ID identifies the operation in logs and history.
func (b *base) ID() uuid.UUID {
	return b.id
}

// Kind returns the operation kind.
func (b *base) Kind() Kind {
	return b.kind
}

// State returns the current lifecycle state.
func (b *base) State() State {
	return State(b.state.Load())
}

// Abort requests termination. It takes effect at the next checkpoint and
// wakes a paused operation. Abort never replaces a terminal state.
func (b *base) Abort() {
	for {
		cur := b.State()
		if cur.Terminal() {
			return
		}
		if b.state.CompareAndSwap(int32(cur), int32(Aborted)) {
			break
		}
	}
	b.log.Debug("abort requested")
	b.signal()
	if c := b.currentChild(); c != nil {
		c.Abort()
	}
}

// Pause suspends a running operation after its current step.
func (b *base) Pause() {
	if b.state.CompareAndSwap(int32(Running), int32(Paused)) {
		b.log.Debug("paused")
	}
	if c := b.currentChild(); c != nil {
		c.Pause()
	}
}

// Resume continues a paused operation.
func (b *base) Resume() {
	if b.state.CompareAndSwap(int32(Paused), int32(Running)) {
		b.log.Debug("resumed")
		b.signal()
	}
	if c := b.currentChild(); c != nil {
		c.Resume()
	}
}

func (b *base) signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *base) aborted() bool {
	return b.State() == Aborted
}

// finish marks normal completion unless the operation was aborted.
func (b *base) finish() {
	b.state.CompareAndSwap(int32(Running), int32(Finished))
	b.state.CompareAndSwap(int32(Paused), int32(Finished))
}

func (b *base) setChild(c Controller) {
	b.childMu.Lock()
	b.child = c
	b.childMu.Unlock()
}

func (b *base) currentChild() Controller {
	b.childMu.Lock()
	defer b.childMu.Unlock()
	return b.child
}

// begin records the run context. It returns false if the operation was
// already started.
func (b *base) begin(ctx context.Context) bool {
	if !b.started.CompareAndSwap(false, true) {
		return false
	}
	b.ctx = ctx
	b.startTime = b.opts.Clock.Now()
	b.state.CompareAndSwap(int32(Ready), int32(Running))
	b.log.Debug("started")
	return true
}

// drive runs step in slices until the operation is finished or aborted,
// then closes the observer and calls done.
func (b *base) drive(ctx context.Context, step func(), done func()) {
	for {
		if err := b.opts.Scheduler.acquire(ctx); err != nil {
			b.Abort()
			break
		}
		res := b.slice(ctx, step)
		b.opts.Scheduler.release()

		if res == sliceDone {
			break
		}
		if res == slicePaused {
			b.waitResume(ctx)
		}
	}

	b.closeObserver()
	b.log.Debug("ended", "state", b.State(), "elapsed", b.opts.Clock.Since(b.created))
	done()
}

func (b *base) slice(ctx context.Context, step func()) sliceResult {
	b.sliceStart = b.opts.Clock.Now()
	for {
		if res, stop := b.checkpoint(ctx); stop {
			return res
		}
		step()
		if res, stop := b.checkpoint(ctx); stop {
			return res
		}

		now := b.opts.Clock.Now()
		if b.observer == nil && now.Sub(b.startTime) > b.opts.ProgressDelay {
			b.openObserver()
		}
		if now.Sub(b.sliceStart) > b.opts.SliceBudget {
			return sliceYield
		}
	}
}

func (b *base) checkpoint(ctx context.Context) (sliceResult, bool) {
	if ctx.Err() != nil {
		b.Abort()
	}
	switch b.State() {
	case Paused:
		return slicePaused, true
	case Finished, Aborted:
		return sliceDone, true
	}
	return sliceYield, false
}

func (b *base) waitResume(ctx context.Context) {
	for b.State() == Paused {
		select {
		case <-b.wake:
		case <-ctx.Done():
			b.Abort()
			return
		}
	}
}

// updateProgress edits the snapshot and pushes it to the observer, if any.
func (b *base) updateProgress(edit func(s *Snapshot)) {
	edit(&b.snapshot)
	if b.observer != nil {
		b.observer.Update(b.snapshot)
	}
}

func (b *base) openObserver() {
	if b.opts.Observer == nil {
		return
	}
	b.observer = b.opts.Observer(b, b.snapshot)
}

func (b *base) closeObserver() {
	if b.observer == nil {
		return
	}
	b.observer.Close()
	b.observer = nil
}

// Snapshot returns the latest progress. It must only be called after the
// operation has ended or from its own goroutine.
func (b *base) Snapshot() Snapshot {
	return b.snapshot
}

func (b *base) text(key string, args ...any) string {
	return b.opts.Texts.Text(key, args...)
}

// newIssue builds an issue whose text is looked up under textKey.
func (b *base) newIssue(cat Category, textKey, subject string, err error, options ...Decision) Issue {
	args := []any{subject}
	if err != nil {
		args = append(args, err)
	}
	return Issue{
		Operation: b.kind,
		Category:  cat,
		Subject:   subject,
		Err:       err,
		Title:     b.text("error"),
		Text:      b.text(textKey, args...),
		Options:   options,
	}
}

// showIssue hands the issue to the resolver. The scheduler turn is released
// while waiting so other operations keep running. When no observer exists
// yet, the progress delay restarts so the wait does not open one.
func (b *base) showIssue(issue Issue) Decision {
	b.opts.Scheduler.release()
	d, err := b.opts.Resolver.Resolve(b.ctx, issue)
	// The turn must come back even if ctx was cancelled meanwhile.
	_ = b.opts.Scheduler.acquire(context.WithoutCancel(b.ctx))

	now := b.opts.Clock.Now()
	b.sliceStart = now
	if b.observer == nil {
		b.startTime = now
	}

	switch {
	case err != nil:
		b.log.Warn("issue resolver failed", "category", issue.Category, "subject", issue.Subject, "error", err)
		return Abort
	case !issue.Offers(d):
		b.log.Warn("answer not offered", "category", issue.Category, "decision", d)
		return Abort
	}
	b.log.Debug("issue resolved", "category", issue.Category, "subject", issue.Subject, "decision", d)
	return d
}

// repeatedAttempt runs action until it succeeds or the resolver says
// otherwise. It reports whether action finally succeeded. A remembered
// SkipAll for the category returns false without asking.
func (b *base) repeatedAttempt(action func() error, subject string, cat Category) bool {
	for {
		err := action()
		if err == nil {
			return true
		}
		if b.ctx.Err() != nil {
			b.Abort()
		}
		if b.aborted() {
			return false
		}
		if b.decisions[cat] == SkipAll {
			b.log.Debug("skipped by earlier decision", "category", cat, "subject", subject, "error", err)
			return false
		}

		issue := b.newIssue(cat, "error."+string(cat), subject, err, Retry, Skip, SkipAll, Abort)
		switch b.showIssue(issue) {
		case Retry:
			continue
		case Skip:
			return false
		case SkipAll:
			b.decisions[cat] = SkipAll
			return false
		default:
			b.Abort()
			return false
		}
	}
}
