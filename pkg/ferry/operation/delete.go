package operation

import (
	"context"

	"github.com/jamesainslie/ferry/pkg/ferry/entry"
	"github.com/jamesainslie/ferry/pkg/ferry/types"
)

// Delete removes an entry and everything below it, leaves first. Every node
// of the scanned tree gets exactly one delete attempt, not counting retries.
type Delete struct {
	*base
	entry   entry.Entry
	root    *Node
	cursor  *Node
	summary Summary
	future  *Future[Summary]
}

// NewDelete returns a delete of root.
func NewDelete(root entry.Entry, opts Options) *Delete {
	b := newBase(KindDelete, opts)
	return &Delete{
		base:   b,
		entry:  root,
		future: newFuture[Summary](),
		summary: Summary{
			ID:     b.id,
			Kind:   KindDelete,
			Source: root.Path(),
		},
	}
}

// Run scans the entry and then deletes it. Later calls return the same
// future.
func (d *Delete) Run(ctx context.Context) *Future[Summary] {
	if !d.begin(ctx) {
		return d.future
	}
	d.summary.Started = d.startTime

	go func() {
		root, err := d.scanFirst(ctx, d.entry)
		if err != nil {
			d.Abort()
			d.done()
			return
		}
		d.root, d.cursor = root, root
		d.summary.Nodes, d.summary.Bytes = root.Count, root.Size

		d.updateProgress(func(p *Snapshot) {
			p.Title = d.text("delete.title")
			p.Row1Label = d.text("delete.working")
			p.Progress1Label = d.text("progress.total")
		})
		d.drive(ctx, d.iterate, d.done)
	}()
	return d.future
}

// Summary returns the counters. It must only be called once the future is
// resolved.
func (d *Delete) Summary() Summary {
	return d.summary
}

func (d *Delete) iterate() {
	for len(d.cursor.Children) > 0 {
		d.cursor = d.cursor.Children[0]
	}

	path := d.cursor.Entry.Path()
	d.updateProgress(func(p *Snapshot) {
		p.Row1Value = path
	})

	ok := d.repeatedAttempt(d.cursor.Entry.Delete, path, CategoryDelete)
	if d.aborted() {
		return
	}

	d.summary.Done++
	if ok {
		d.summary.Completed++
	} else {
		d.summary.Skipped++
	}
	d.updateProgress(func(p *Snapshot) {
		p.Progress1 = types.Percent(d.summary.Done, d.summary.Nodes)
	})

	parent := d.cursor.Parent
	if parent == nil {
		d.finish()
		return
	}
	parent.Children = parent.Children[1:]
	d.cursor = parent
}

func (d *Delete) done() {
	d.summary.Elapsed = d.opts.Clock.Since(d.summary.Started)
	if d.aborted() {
		d.summary.Aborted = true
		d.future.resolve(d.summary, ErrAborted)
		return
	}
	d.future.resolve(d.summary, nil)
}
