package smartmerge

import (
	"strings"

	"github.com/agentstation/devmerge/pkg/constants"
)

// SegmentKind distinguishes how a path segment was reached.
type SegmentKind int

// Segment kinds.
const (
	// SegmentField is a record field, rendered as ".name".
	SegmentField SegmentKind = iota
	// SegmentKey is a mapping key, rendered as "[key]".
	SegmentKey
	// SegmentJSON marks descent into a string holding serialized JSON.
	SegmentJSON
)

// Segment is one step of a Path.
type Segment struct {
	Kind SegmentKind
	Name string
}

// Path locates a value inside the structure being merged. It is used only
// to label diagnostics. Paths are immutable; the builder methods return copies.
type Path struct {
	root     string
	segments []Segment
}

// Root returns a path starting at name, e.g. "status_range".
func Root(name string) Path {
	return Path{root: name}
}

// Field returns p extended by a record field.
func (p Path) Field(name string) Path {
	return p.with(Segment{Kind: SegmentField, Name: name})
}

// Key returns p extended by a mapping key.
func (p Path) Key(key string) Path {
	return p.with(Segment{Kind: SegmentKey, Name: key})
}

// JSON returns p extended by a nested-JSON boundary.
func (p Path) JSON() Path {
	return p.with(Segment{Kind: SegmentJSON})
}

// Segments returns a copy of the path segments.
func (p Path) Segments() []Segment {
	return append([]Segment(nil), p.segments...)
}

func (p Path) with(s Segment) Path {
	segs := make([]Segment, len(p.segments), len(p.segments)+1)
	copy(segs, p.segments)
	return Path{root: p.root, segments: append(segs, s)}
}

// String renders the path, e.g. "function[switch_1].values.@JSON@[range]".
func (p Path) String() string {
	var b strings.Builder
	b.WriteString(p.root)
	for _, s := range p.segments {
		switch s.Kind {
		case SegmentField:
			b.WriteByte('.')
			b.WriteString(s.Name)
		case SegmentKey:
			b.WriteByte('[')
			b.WriteString(s.Name)
			b.WriteByte(']')
		case SegmentJSON:
			b.WriteByte('.')
			b.WriteString(constants.JSONMarker)
		}
	}
	return b.String()
}
