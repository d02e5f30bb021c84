// Package paths allocates and parses the canonical path strings that identify
// every persisted instance. A path is both primary key and containment
// descriptor: `acme$Person/101` for a root instance,
// `acme$Department/D1/acme$Team/T1` for a contained child.
//
// Paths are append-only: a persisted path is never mutated, so ancestor walks
// are pure string splits.
package paths

import (
	"strings"

	"github.com/agentlang-ai/agentstore/pkg"
	"github.com/agentlang-ai/agentstore/pkg/constant"
)

// Separator joins the segments of a path.
const Separator = "/"

// EscapeChar replaces the module separator inside a name segment so that
// Split can re-parse the path.
const EscapeChar = "$"

// Escape encodes an entity fully qualified name (Module/Name) into a path
// segment.
func Escape(fq string) string {
	return strings.ReplaceAll(fq, Separator, EscapeChar)
}

// Unescape decodes a path segment back into module and entity name. The
// second return is false when the segment carries no module separator.
func Unescape(segment string) (string, string, bool) {
	idx := strings.Index(segment, EscapeChar)
	if idx < 0 {
		return "", segment, false
	}

	return segment[:idx], segment[idx+len(EscapeChar):], true
}

// NewRoot allocates the path for a root instance.
func NewRoot(module, name, id string) string {
	return Escape(module+Separator+name) + Separator + id
}

// NewChild allocates the path for a contained child under parentPath.
func NewChild(parentPath, module, name, id string) string {
	return parentPath + Separator + Escape(module+Separator+name) + Separator + id
}

// Segment is one (entity, id) level of a containment chain.
type Segment struct {
	Module string
	Name   string
	ID     string
}

// Fq returns the segment's entity fully qualified name.
func (s Segment) Fq() string {
	return s.Module + Separator + s.Name
}

// Split parses a path into its containment chain, root first.
func Split(path string) ([]Segment, error) {
	parts := strings.Split(path, Separator)
	if len(parts) < 2 || len(parts)%2 != 0 {
		return nil, pkg.ValidateBusinessError(constant.ErrMalformedPath, "Path", path)
	}

	segments := make([]Segment, 0, len(parts)/2)

	for i := 0; i < len(parts); i += 2 {
		module, name, ok := Unescape(parts[i])
		if !ok || parts[i+1] == "" {
			return nil, pkg.ValidateBusinessError(constant.ErrMalformedPath, "Path", path)
		}

		segments = append(segments, Segment{Module: module, Name: name, ID: parts[i+1]})
	}

	return segments, nil
}

// Leaf returns the final (entity, id) segment of the path.
func Leaf(path string) (Segment, error) {
	segments, err := Split(path)
	if err != nil {
		return Segment{}, err
	}

	return segments[len(segments)-1], nil
}

// Ancestor is one level of the parent lookup walk used for ancestral
// ownership checks.
type Ancestor struct {
	Module string
	Name   string
	Path   string
}

// Fq returns the ancestor's entity fully qualified name.
func (a Ancestor) Fq() string {
	return a.Module + Separator + a.Name
}

// Ancestors strips the trailing segment pair repeatedly, yielding the chain
// of containing instances from the nearest parent up to the root. A root path
// yields nil.
func Ancestors(path string) ([]Ancestor, error) {
	segments, err := Split(path)
	if err != nil {
		return nil, err
	}

	var out []Ancestor

	prefix := path

	for level := len(segments) - 1; level > 0; level-- {
		parent := segments[level-1]

		// Drop "/<segment>/<id>" from the running prefix.
		cut := strings.LastIndex(prefix, Separator)
		cut = strings.LastIndex(prefix[:cut], Separator)
		prefix = prefix[:cut]

		out = append(out, Ancestor{Module: parent.Module, Name: parent.Name, Path: prefix})
	}

	return out, nil
}

// IsDescendantOf reports whether path sits strictly below ancestorPath.
func IsDescendantOf(path, ancestorPath string) bool {
	return strings.HasPrefix(path, ancestorPath+Separator)
}
