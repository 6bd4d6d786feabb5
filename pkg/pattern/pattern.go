// Package pattern is a reference implementation of structural tree queries.
//
// A Pattern is matched against a syntax.Tree by a deliberately simple
// backtracking search, and can be rendered to the text grammar of the
// tree-sitter query language so that the production query engine can be
// checked against it. RandomInTree builds patterns that are known to match.
package pattern

import (
	"strings"
)

// Wildcard is the kind that matches any node.
const Wildcard = "_"

// Pattern is one node of a structural query.
//
// An empty Kind with Named set marks a sequence of sibling patterns: the
// Children must match, in order, among the children of some node. Such a
// wrapper never carries a Field or a Capture.
type Pattern struct {
	// Kind is a node kind, Wildcard, or "" for a sequence.
	Kind string
	// Named requires a named node; with a Wildcard kind it is the difference
	// between (_) and _.
	Named bool
	// Field, when set, requires the node to occupy that field of its parent.
	Field string
	// Capture, when set, binds the matched node under this name.
	Capture string
	// Children must be matched in order by children of the node, not
	// necessarily adjacent ones.
	Children []*Pattern
}

// IsSequence reports whether p is a sequence wrapper.
func (p *Pattern) IsSequence() bool {
	return p.Kind == "" && p.Named
}

// Size returns the number of pattern nodes in p.
func (p *Pattern) Size() int {
	size := 1
	for _, child := range p.Children {
		size += child.Size()
	}

	return size
}

// Depth returns the nesting depth of p; a pattern without children has depth 1.
func (p *Pattern) Depth() int {
	deepest := 0
	for _, child := range p.Children {
		deepest = max(deepest, child.Depth())
	}

	return deepest + 1
}

// String renders p in tree-sitter query syntax.
func (p *Pattern) String() string {
	var sb strings.Builder

	p.writeTo(&sb)

	return sb.String()
}

func (p *Pattern) writeTo(sb *strings.Builder) {
	if p.Field != "" {
		sb.WriteString(p.Field)
		sb.WriteString(": ")
	}

	switch {
	case p.Named:
		sb.WriteByte('(')

		hasContents := false

		if p.Kind != "" {
			sb.WriteString(p.Kind)

			hasContents = true
		}

		for _, child := range p.Children {
			if hasContents {
				sb.WriteByte(' ')
			}

			child.writeTo(sb)

			hasContents = true
		}

		sb.WriteByte(')')
	case p.Kind == Wildcard:
		sb.WriteString(Wildcard)
	default:
		// Only quotes are escaped. Kinds containing backslashes or control
		// characters do not survive a round trip through the query parser.
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(p.Kind, `"`, `\"`))
		sb.WriteByte('"')
	}

	if p.Capture != "" {
		sb.WriteString(" @")
		sb.WriteString(p.Capture)
	}
}
