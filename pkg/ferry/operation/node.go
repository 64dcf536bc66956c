package operation

import (
	"slices"

	"github.com/jamesainslie/ferry/pkg/ferry/entry"
)

// Node is one entry of a scanned tree. Once the scan has finished, Count is
// one plus the Count of every child and Size is the entry's own size (for
// leaves) plus the Size of every child.
type Node struct {
	Entry    entry.Entry
	Parent   *Node
	Children []*Node

	Count int64
	Size  int64

	// TargetName replaces the entry name in copy targets of this node and
	// its descendants. Set when a copy onto itself forces a new name.
	TargetName string

	todo []entry.Entry
	// kept marks sources that must survive a move.
	kept bool
}

// Name returns TargetName if set, else the entry name.
func (n *Node) Name() string {
	if n.TargetName != "" {
		return n.TargetName
	}
	return n.Entry.Name()
}

// WalkSorted visits n and its descendants depth-first, parents before
// children, siblings in the order given by cmp. A nil cmp keeps listing
// order and the tree itself is never reordered. Returning false from fn
// skips the node's children.
func (n *Node) WalkSorted(cmp func(a, b *Node) int, fn func(node *Node, depth int) bool) {
	n.walk(cmp, fn, 0)
}

func (n *Node) walk(cmp func(a, b *Node) int, fn func(*Node, int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	children := n.Children
	if cmp != nil {
		children = slices.Clone(children)
		slices.SortStableFunc(children, cmp)
	}
	for _, c := range children {
		c.walk(cmp, fn, depth+1)
	}
}

func (n *Node) removeChild(child *Node) {
	if i := slices.Index(n.Children, child); i >= 0 {
		n.Children = slices.Delete(n.Children, i, i+1)
	}
}

// keep marks n and its ancestors as kept.
func (n *Node) keep() {
	for p := n; p != nil && !p.kept; p = p.Parent {
		p.kept = true
	}
}
