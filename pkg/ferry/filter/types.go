// Package filter holds the search criteria used by ferry search: a glob name
// term, an optional content pattern, an entry type, and size and
// modification-time windows. Criteria are checked against entry.Entry
// metadata; any metadata the entry cannot report fails the check.
package filter

import (
	"errors"
	"fmt"
	"strings"
)

// Type restricts matches to files or directories.
type Type int

const (
	// TypeAny matches every entry.
	TypeAny Type = iota
	// TypeFile matches entries without children.
	TypeFile
	// TypeDir matches containers.
	TypeDir
)

// Type string constants.
const (
	typeAny  = "any"
	typeFile = "file"
	typeDir  = "dir"
)

// String returns the string representation of the type.
func (t Type) String() string {
	switch t {
	case TypeFile:
		return typeFile
	case TypeDir:
		return typeDir
	default:
		return typeAny
	}
}

// ErrInvalidType indicates that the type string could not be parsed.
var ErrInvalidType = errors.New("invalid entry type")

// ParseType parses "file", "dir" or "any" (case-insensitive). Single
// letters and the empty string are accepted as well.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", typeAny, "a":
		return TypeAny, nil
	case typeFile, "f":
		return TypeFile, nil
	case typeDir, "d", "directory":
		return TypeDir, nil
	default:
		return TypeAny, fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}
