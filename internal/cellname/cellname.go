// Package cellname implements the hierarchical, validated identifier used
// to address a Cell anywhere in the tree: a/b/c, each segment restricted to
// [A-Za-z0-9._-] and 1-255 bytes.
package cellname

import (
	"errors"
	"fmt"
	"strings"
)

// MaxSegmentLength is the maximum byte length of a single path segment.
const MaxSegmentLength = 255

// ErrEmpty is returned when the supplied name has no segments at all.
var ErrEmpty = errors.New("cellname: name must not be empty")

// InvalidSegmentError names the offending segment and why it was rejected.
type InvalidSegmentError struct {
	Segment string
	Reason  string
}

func (e *InvalidSegmentError) Error() string {
	return fmt.Sprintf("cellname: invalid segment %q: %s", e.Segment, e.Reason)
}

// Name is an immutable hierarchical identifier, e.g. "a/b/c".
type Name struct {
	segments []string
}

// Parse validates and constructs a Name from its canonical slash-separated
// form. The empty string is rejected.
func Parse(raw string) (Name, error) {
	if raw == "" {
		return Name{}, ErrEmpty
	}

	parts := strings.Split(raw, "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if err := validateSegment(p); err != nil {
			return Name{}, err
		}

		segments = append(segments, p)
	}

	return Name{segments: segments}, nil
}

// MustParse is a test/config convenience that panics on invalid input.
func MustParse(raw string) Name {
	n, err := Parse(raw)
	if err != nil {
		panic(err)
	}

	return n
}

func validateSegment(s string) error {
	if s == "" {
		return &InvalidSegmentError{Segment: s, Reason: "segment must not be empty"}
	}

	if len(s) > MaxSegmentLength {
		return &InvalidSegmentError{Segment: s, Reason: fmt.Sprintf("segment exceeds %d bytes", MaxSegmentLength)}
	}

	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-':
		default:
			return &InvalidSegmentError{Segment: s, Reason: fmt.Sprintf("disallowed character %q", r)}
		}
	}

	return nil
}

// String renders the canonical slash-separated form.
func (n Name) String() string {
	return strings.Join(n.segments, "/")
}

// Segments returns a copy of the underlying segment list.
func (n Name) Segments() []string {
	out := make([]string, len(n.segments))
	copy(out, n.segments)
	return out
}

// Leaf returns the final path segment.
func (n Name) Leaf() string {
	if len(n.segments) == 0 {
		return ""
	}

	return n.segments[len(n.segments)-1]
}

// Parent returns the name with its leaf segment removed, and whether a
// parent exists (a single-segment name has no parent).
func (n Name) Parent() (Name, bool) {
	if len(n.segments) <= 1 {
		return Name{}, false
	}

	return Name{segments: n.segments[:len(n.segments)-1]}, true
}

// Head returns the first segment, i.e. the name of the immediate child at
// the local cache level when this name is used as a deeper path.
func (n Name) Head() string {
	if len(n.segments) == 0 {
		return ""
	}

	return n.segments[0]
}

// Tail returns the name with its first segment removed, and whether
// anything remains (a single-segment name has no tail).
func (n Name) Tail() (Name, bool) {
	if len(n.segments) <= 1 {
		return Name{}, false
	}

	return Name{segments: n.segments[1:]}, true
}

// Child extends the name with a new leaf segment.
func (n Name) Child(segment string) (Name, error) {
	if err := validateSegment(segment); err != nil {
		return Name{}, err
	}

	out := make([]string, len(n.segments)+1)
	copy(out, n.segments)
	out[len(n.segments)] = segment

	return Name{segments: out}, nil
}

// IsAncestorOf reports whether n is a strict prefix of other's segments.
func (n Name) IsAncestorOf(other Name) bool {
	if len(n.segments) >= len(other.segments) {
		return false
	}

	for i, seg := range n.segments {
		if other.segments[i] != seg {
			return false
		}
	}

	return true
}

// Equal compares two names by their segment list.
func (n Name) Equal(other Name) bool {
	if len(n.segments) != len(other.segments) {
		return false
	}

	for i, seg := range n.segments {
		if other.segments[i] != seg {
			return false
		}
	}

	return true
}

// Empty reports whether the Name is the zero value (never produced by Parse).
func (n Name) Empty() bool {
	return len(n.segments) == 0
}
