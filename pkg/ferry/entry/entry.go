// Package entry defines the storage contract consumed by the operation
// engine. An Entry is a handle to one node of a hierarchical store: a file or
// directory on disk, an archive member, or a row of a synthetic listing.
// Callers query capabilities instead of assuming a particular backend.
package entry

import (
	"io"
	"io/fs"
	"time"
)

// Capability is a feature an Entry may or may not support.
type Capability int

const (
	// Children means the entry is a container whose items can be listed.
	Children Capability = iota
	// Create means new entries can be created below this one.
	Create
	// Delete means the entry can be removed.
	Delete
	// Copy means the entry can be used as a copy source.
	Copy
	// Rename means the entry can be renamed in place.
	Rename
	// View means the entry has content that can be displayed.
	View
	// Edit means the entry has content that can be edited.
	Edit
)

// String returns the capability name.
func (c Capability) String() string {
	switch c {
	case Children:
		return "children"
	case Create:
		return "create"
	case Delete:
		return "delete"
	case Copy:
		return "copy"
	case Rename:
		return "rename"
	case View:
		return "view"
	case Edit:
		return "edit"
	default:
		return "unknown"
	}
}

// Sort classes returned by Entry.Sort. Lower classes list first.
const (
	SortContainer = 1
	SortLeaf      = 2
)

// Entry is a capability-queried handle to one node in a store.
//
// Metadata getters report ok=false when the value is unknown for this entry
// (directories have no size, some stores have no timestamps).
type Entry interface {
	Supports(c Capability) bool
	IsSymlink() bool

	// Items lists the children of a container.
	Items() ([]Entry, error)

	Size() (int64, bool)
	ModTime() (time.Time, bool)
	Permissions() (fs.FileMode, bool)

	Name() string
	Path() string
	// Parent returns nil for the root of the store.
	Parent() Entry
	Exists() bool
	Equal(other Entry) bool

	Delete() error
	Create(container bool) error
	Append(name string) Entry
	SetModTime(t time.Time) error

	// Open returns a reader over the entry's content.
	Open() (io.ReadCloser, error)
	// OpenWriter truncates or creates the entry for writing. A zero perm
	// selects the store's default file mode.
	OpenWriter(perm fs.FileMode) (io.WriteCloser, error)

	Sort() int
}

// IsContainer reports whether e lists children.
func IsContainer(e Entry) bool {
	return e.Supports(Children)
}
