package operation

import (
	"context"
	"errors"
	"io"
	"slices"

	"github.com/jamesainslie/ferry/pkg/ferry/entry"
	"github.com/jamesainslie/ferry/pkg/ferry/types"
)

// CopyPrefix is prepended to a target name until it is free when an entry
// is copied onto itself.
const CopyPrefix = "Copy of "

// Copy copies a tree to a destination, streaming file content in chunks
// and recreating symlinks with the link helper. Move is a Copy whose
// finished nodes are deleted from the source.
//
// If the destination does not exist when the copy starts, the source root
// is copied to the destination itself. Otherwise the root is copied into
// the destination under its own name.
type Copy struct {
	*base
	src, dst   entry.Entry
	renameMode bool

	root *Node
	node *Node
	xfer *transfer
	buf  []byte

	// nodeDone runs once a node and all its descendants are done.
	nodeDone func(n *Node)

	summary Summary
	future  *Future[Summary]
}

// transfer is an open content stream from a source file to its target.
type transfer struct {
	node   *Node
	target entry.Entry
	r      io.ReadCloser
	w      io.WriteCloser
	size   int64
	done   int64
}

// NewCopy returns a copy of src to dst.
func NewCopy(src, dst entry.Entry, opts Options) *Copy {
	c := newCopy(KindCopy, src, dst, opts)
	c.nodeDone = func(*Node) {}
	return c
}

// NewMove returns a move of src to dst: a copy that deletes every source
// node once the node and its descendants are copied. Sources whose copy was
// skipped or failed, and their ancestors, are left in place.
func NewMove(src, dst entry.Entry, opts Options) *Copy {
	c := newCopy(KindMove, src, dst, opts)
	c.nodeDone = c.removeSource
	return c
}

func newCopy(kind Kind, src, dst entry.Entry, opts Options) *Copy {
	b := newBase(kind, opts)
	return &Copy{
		base:   b,
		src:    src,
		dst:    dst,
		future: newFuture[Summary](),
		summary: Summary{
			ID:     b.id,
			Kind:   kind,
			Source: src.Path(),
			Target: dst.Path(),
		},
	}
}

// Run scans the source and then copies it. Later calls return the same
// future.
func (c *Copy) Run(ctx context.Context) *Future[Summary] {
	if !c.begin(ctx) {
		return c.future
	}
	c.summary.Started = c.startTime
	c.renameMode = !c.dst.Exists()

	go func() {
		root, err := c.scanFirst(ctx, c.src)
		if err != nil {
			c.Abort()
			c.done()
			return
		}
		c.root, c.node = root, root
		c.summary.Nodes, c.summary.Bytes = root.Count, root.Size
		c.buf = make([]byte, c.opts.ChunkSize)

		prefix := string(c.kind)
		c.updateProgress(func(p *Snapshot) {
			p.Title = c.text(prefix + ".title")
			p.Row1Label = c.text(prefix + ".working")
			p.Row2Label = c.text(prefix + ".to")
			p.Progress1Label = c.text("progress.total")
			p.Progress2Label = c.text("progress.file")
		})
		c.drive(ctx, c.iterate, c.done)
	}()
	return c.future
}

// Summary returns the counters. Done and Bytes are in bytes. It must only
// be called once the future is resolved.
func (c *Copy) Summary() Summary {
	return c.summary
}

func (c *Copy) iterate() {
	if c.xfer != nil {
		c.pump()
		return
	}

	n := c.node
	target := c.targetFor(n)
	c.updateProgress(func(p *Snapshot) {
		p.Row1Value = n.Entry.Path()
		p.Row2Value = target.Path()
		p.Progress2 = 0
	})

	container := n.Entry.Supports(entry.Children)
	created := c.createPath(target, container, n.Entry)
	if c.aborted() {
		return
	}

	switch {
	case !created:
		c.skip(n)
		c.scheduleNext()
	case container:
		c.summary.Completed++
		c.scheduleNext()
	case n.Entry.IsSymlink():
		c.copySymlink(n, target)
	default:
		c.startTransfer(n, target)
	}

	c.updateProgress(func(p *Snapshot) {
		p.Progress1 = types.Percent(c.summary.Done, c.summary.Bytes)
	})
}

// targetFor maps a source node to its target entry. Ancestors contribute
// their TargetName when set. A target equal to the source gets a free
// "Copy of " name, which is remembered for descendants.
func (c *Copy) targetFor(n *Node) entry.Entry {
	var names []string
	for p := n; p != nil; p = p.Parent {
		names = append(names, p.Name())
	}
	slices.Reverse(names)
	if c.renameMode {
		names = names[1:]
	}

	target := c.dst
	for _, name := range names {
		target = target.Append(name)
	}

	if !target.Equal(n.Entry) {
		return target
	}
	parent := target.Parent()
	if parent == nil {
		return target
	}
	name := target.Name()
	for target.Exists() {
		name = CopyPrefix + name
		target = parent.Append(name)
	}
	n.TargetName = name
	return target
}

// createPath prepares the target. Existing files raise an overwrite issue
// unless an earlier answer covers it; missing directories are created with
// the source modification time. It reports whether the node should be
// copied.
func (c *Copy) createPath(target entry.Entry, container bool, source entry.Entry) bool {
	if !container && target.Exists() {
		switch c.decisions[CategoryOverwrite] {
		case SkipAll:
			return false
		case OverwriteAll:
			return true
		}

		issue := c.newIssue(CategoryOverwrite, "error.exists", target.Path(), nil,
			Overwrite, OverwriteAll, Skip, SkipAll, Abort)
		switch c.showIssue(issue) {
		case Overwrite:
		case OverwriteAll:
			c.decisions[CategoryOverwrite] = OverwriteAll
		case Skip:
			return false
		case SkipAll:
			c.decisions[CategoryOverwrite] = SkipAll
			return false
		default:
			c.Abort()
			return false
		}
	}

	if !container || target.Exists() {
		return true
	}

	created := c.repeatedAttempt(func() error {
		return target.Create(true)
	}, target.Path(), CategoryCreate)
	if created {
		c.copyModTime(source, target)
	}
	return created
}

func (c *Copy) copyModTime(source, target entry.Entry) {
	ts, ok := source.ModTime()
	if !ok {
		return
	}
	if err := target.SetModTime(ts); err != nil {
		c.log.Debug("cannot set modification time", "path", target.Path(), "error", err)
	}
}

// skip counts the node and its whole subtree as done without copying it.
func (c *Copy) skip(n *Node) {
	c.summary.Done += n.Size
	c.summary.Skipped += n.Count
	n.Children = nil
	n.keep()
}

func (c *Copy) startTransfer(n *Node, target entry.Entry) {
	perm, _ := n.Entry.Permissions()

	var w io.WriteCloser
	opened := c.repeatedAttempt(func() (err error) {
		w, err = target.OpenWriter(perm)
		return err
	}, target.Path(), CategoryCreate)
	if c.aborted() {
		return
	}
	if !opened {
		c.skip(n)
		c.scheduleNext()
		return
	}

	var r io.ReadCloser
	opened = c.repeatedAttempt(func() (err error) {
		r, err = n.Entry.Open()
		return err
	}, n.Entry.Path(), CategoryRead)
	if !opened {
		c.closeQuietly(w, target.Path())
		if c.aborted() {
			return
		}
		c.skip(n)
		c.scheduleNext()
		return
	}

	c.xfer = &transfer{node: n, target: target, r: r, w: w, size: n.Size}
}

// pump moves one chunk of the active transfer.
func (c *Copy) pump() {
	x := c.xfer

	var n int
	var eof bool
	ok := c.repeatedAttempt(func() error {
		m, err := io.ReadFull(x.r, c.buf[n:])
		n += m
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			eof = true
			return nil
		}
		return err
	}, x.node.Entry.Path(), CategoryRead)
	if c.aborted() {
		return
	}
	if !ok {
		c.abandonTransfer()
		return
	}

	written := 0
	ok = c.repeatedAttempt(func() error {
		m, err := x.w.Write(c.buf[written:n])
		written += m
		return err
	}, x.target.Path(), CategoryWrite)
	if c.aborted() {
		return
	}
	if !ok {
		c.abandonTransfer()
		return
	}

	x.done += int64(n)
	c.summary.Done += int64(n)
	c.updateProgress(func(p *Snapshot) {
		p.Progress1 = types.Percent(c.summary.Done, c.summary.Bytes)
		p.Progress2 = types.Percent(x.done, x.size)
	})

	if eof {
		c.closeTransfer()
		c.copyModTime(x.node.Entry, x.target)
		c.summary.Completed++
		c.scheduleNext()
	}
}

// abandonTransfer closes the streams of a skipped transfer and counts its
// remaining bytes as done.
func (c *Copy) abandonTransfer() {
	x := c.xfer
	c.closeTransfer()
	if rest := x.size - x.done; rest > 0 {
		c.summary.Done += rest
	}
	c.summary.Skipped++
	x.node.keep()
	c.scheduleNext()
}

func (c *Copy) closeTransfer() {
	x := c.xfer
	if x == nil {
		return
	}
	c.xfer = nil
	c.closeQuietly(x.r, x.node.Entry.Path())
	c.closeQuietly(x.w, x.target.Path())
}

func (c *Copy) closeQuietly(cl io.Closer, path string) {
	if err := cl.Close(); err != nil {
		c.log.Warn("close failed", "path", path, "error", err)
	}
}

// copySymlink recreates a symlink with the link helper. The node is done
// whether or not the link could be made.
func (c *Copy) copySymlink(n *Node, target entry.Entry) {
	linked := c.linkSymlink(n, target)
	if c.aborted() {
		return
	}
	if linked {
		c.summary.Done += n.Size
		c.summary.Completed++
	} else {
		c.skip(n)
	}
	c.scheduleNext()
}

func (c *Copy) linkSymlink(n *Node, target entry.Entry) bool {
	l := c.opts.Linker
	found := c.repeatedAttempt(func() error {
		_, err := l.Locate()
		return err
	}, "ln", CategoryLink)
	if !found || c.aborted() {
		return false
	}

	if target.Exists() {
		removed := c.repeatedAttempt(target.Delete, target.Path(), CategoryCreate)
		if !removed || c.aborted() {
			return false
		}
	}

	return c.repeatedAttempt(func() error {
		return l.Link(c.ctx, n.Entry.Path(), target.Path())
	}, target.Path(), CategoryLink)
}

// scheduleNext climbs from the current node past every finished node,
// running the node hook for each, and moves to the next unfinished child.
// Nodes are thus finished strictly after all their descendants.
func (c *Copy) scheduleNext() {
	cur := c.node
	for cur.Parent != nil && len(cur.Children) == 0 {
		c.nodeDone(cur)
		if c.aborted() {
			return
		}
		parent := cur.Parent
		parent.removeChild(cur)
		cur = parent
	}

	if len(cur.Children) > 0 {
		c.node = cur.Children[0]
		return
	}

	c.nodeDone(cur)
	c.finish()
}

// removeSource is the move hook.
func (c *Copy) removeSource(n *Node) {
	if n.kept {
		return
	}
	deleted := c.repeatedAttempt(n.Entry.Delete, n.Entry.Path(), CategoryDelete)
	if !deleted && !c.aborted() && n.Parent != nil {
		n.Parent.keep()
	}
}

func (c *Copy) done() {
	c.closeTransfer()
	c.summary.Elapsed = c.opts.Clock.Since(c.summary.Started)
	if c.aborted() {
		c.summary.Aborted = true
		c.future.resolve(c.summary, ErrAborted)
		return
	}
	c.future.resolve(c.summary, nil)
}
