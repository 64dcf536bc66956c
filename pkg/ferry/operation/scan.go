package operation

import (
	"context"

	"github.com/jamesainslie/ferry/pkg/ferry/entry"
)

// Scan builds the Node tree below an entry, one entry per step. Unreadable
// containers become empty nodes; a scan never fails because of them.
type Scan struct {
	*base
	entry  entry.Entry
	root   *Node
	cursor *Node
	future *Future[*Node]
}

// NewScan returns a scan of root.
func NewScan(root entry.Entry, opts Options) *Scan {
	return &Scan{
		base:   newBase(KindScan, opts),
		entry:  root,
		future: newFuture[*Node](),
	}
}

// Run starts the scan. Later calls return the same future.
func (s *Scan) Run(ctx context.Context) *Future[*Node] {
	if s.begin(ctx) {
		s.updateProgress(func(p *Snapshot) {
			p.Title = s.text("scan.title")
			p.Row1Label = s.text("scan.working")
			p.Undetermined = true
		})
		go s.drive(ctx, s.iterate, s.done)
	}
	return s.future
}

func (s *Scan) iterate() {
	if s.cursor == nil {
		s.root = s.newNode(s.entry, nil)
		s.cursor = s.root
		return
	}

	for s.cursor.Parent != nil && len(s.cursor.todo) == 0 {
		parent := s.cursor.Parent
		parent.Count += s.cursor.Count
		parent.Size += s.cursor.Size
		s.cursor = parent
	}

	if len(s.cursor.todo) == 0 {
		s.finish()
		return
	}

	next := s.cursor.todo[0]
	s.cursor.todo[0] = nil
	s.cursor.todo = s.cursor.todo[1:]

	child := s.newNode(next, s.cursor)
	s.cursor.Children = append(s.cursor.Children, child)
	s.cursor = child
}

func (s *Scan) newNode(e entry.Entry, parent *Node) *Node {
	s.updateProgress(func(p *Snapshot) {
		p.Row1Value = e.Path()
	})

	n := &Node{Entry: e, Parent: parent, Count: 1}
	if !e.Supports(entry.Children) {
		if size, ok := e.Size(); ok {
			n.Size = size
		}
		return n
	}

	items, err := e.Items()
	if err != nil {
		s.log.Debug("listing failed, treating as empty", "path", e.Path(), "error", err)
		return n
	}
	n.todo = items
	return n
}

func (s *Scan) done() {
	if s.aborted() {
		s.future.resolve(nil, ErrAborted)
		return
	}
	s.log.Debug("scan complete", "path", s.entry.Path(), "nodes", s.root.Count, "bytes", s.root.Size)
	s.future.resolve(s.root, nil)
}

// scanFirst runs the implicit scan that delete, copy and move start with.
// The scan shares the operation's scheduler and options and receives its
// abort, pause and resume requests while it runs.
func (b *base) scanFirst(ctx context.Context, root entry.Entry) (*Node, error) {
	s := NewScan(root, b.opts)
	b.setChild(s)
	defer b.setChild(nil)

	if b.aborted() {
		s.Abort()
	}
	return s.Run(ctx).Wait(context.WithoutCancel(ctx))
}
