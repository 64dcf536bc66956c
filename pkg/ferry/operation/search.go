package operation

import (
	"context"
	"errors"
	"io"

	"github.com/jamesainslie/ferry/pkg/ferry/entry"
	"github.com/jamesainslie/ferry/pkg/ferry/filter"
)

// Search walks a tree depth-first with an explicit stack and reports every
// entry that passes the filter. With a content pattern, files are read in
// windows and the tail of each window is carried into the next test, so a
// match that straddles two reads is still found.
type Search struct {
	*base
	root    entry.Entry
	filter  *filter.Filter
	onMatch func(entry.Entry)

	stack   []entry.Entry
	reading *contentScan
	buf     []byte
	matches int
	future  *Future[int]
}

// contentScan is a file whose content is being tested.
type contentScan struct {
	entry   entry.Entry
	r       io.ReadCloser
	carried int
}

// NewSearch returns a search below root. onMatch is called from the
// search goroutine for every matching entry; it may be nil.
func NewSearch(root entry.Entry, f *filter.Filter, onMatch func(entry.Entry), opts Options) *Search {
	if f == nil {
		f, _ = filter.New()
	}
	if onMatch == nil {
		onMatch = func(entry.Entry) {}
	}
	return &Search{
		base:    newBase(KindSearch, opts),
		root:    root,
		filter:  f,
		onMatch: onMatch,
		stack:   []entry.Entry{root},
		future:  newFuture[int](),
	}
}

// Run starts the search. The future yields the number of matches. Later
// calls return the same future.
func (s *Search) Run(ctx context.Context) *Future[int] {
	if s.begin(ctx) {
		s.updateProgress(func(p *Snapshot) {
			p.Title = s.text("search.title")
			p.Row1Label = s.text("search.working")
			p.Row1Value = s.root.Path()
			p.Undetermined = true
		})
		go s.drive(ctx, s.iterate, s.done)
	}
	return s.future
}

// Matches returns the number of matches so far. It must only be called once
// the future is resolved.
func (s *Search) Matches() int {
	return s.matches
}

func (s *Search) iterate() {
	if s.reading != nil {
		s.readWindow()
		return
	}

	if len(s.stack) == 0 {
		s.finish()
		return
	}

	e := s.stack[len(s.stack)-1]
	s.stack[len(s.stack)-1] = nil
	s.stack = s.stack[:len(s.stack)-1]

	s.updateProgress(func(p *Snapshot) {
		p.Row1Value = e.Path()
	})

	container := e.Supports(entry.Children)
	if container {
		items, err := e.Items()
		if err != nil {
			s.log.Debug("listing failed, skipping children", "path", e.Path(), "error", err)
		}
		for i := len(items) - 1; i >= 0; i-- {
			s.stack = append(s.stack, items[i])
		}
	}

	if !s.filter.Match(e) {
		return
	}
	if s.filter.Content() == nil {
		s.match(e)
		return
	}
	if container || e.IsSymlink() {
		return
	}

	r, err := e.Open()
	if err != nil {
		s.log.Debug("cannot open for content search", "path", e.Path(), "error", err)
		return
	}
	if s.buf == nil {
		s.buf = make([]byte, s.filter.Carry()+s.filter.Window())
	}
	s.reading = &contentScan{entry: e, r: r}
}

// readWindow reads the next window of the current file behind the bytes
// carried from the previous one and tests the content pattern.
func (s *Search) readWindow() {
	cs := s.reading
	n, err := io.ReadFull(cs.r, s.buf[cs.carried:cs.carried+s.filter.Window()])
	data := s.buf[:cs.carried+n]

	if s.filter.Content().Match(data) {
		s.stopReading()
		s.match(cs.entry)
		return
	}

	if err != nil {
		if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			s.log.Debug("read failed during content search", "path", cs.entry.Path(), "error", err)
		}
		s.stopReading()
		return
	}

	keep := min(s.filter.Carry(), len(data))
	copy(s.buf, data[len(data)-keep:])
	cs.carried = keep
}

func (s *Search) stopReading() {
	if s.reading == nil {
		return
	}
	if err := s.reading.r.Close(); err != nil {
		s.log.Debug("close failed", "path", s.reading.entry.Path(), "error", err)
	}
	s.reading = nil
}

func (s *Search) match(e entry.Entry) {
	s.matches++
	s.onMatch(e)
}

func (s *Search) done() {
	s.stopReading()
	if s.aborted() {
		s.future.resolve(s.matches, ErrAborted)
		return
	}
	s.future.resolve(s.matches, nil)
}
