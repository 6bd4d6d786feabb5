package pattern

import (
	"cmp"
	"slices"

	"github.com/Enter-tainer/tree-sitter/pkg/syntax"
)

// Capture binds a name to a matched node.
type Capture struct {
	Name string
	Node syntax.Node
}

// Match is one way a pattern matched. Captures are in pattern order and may
// repeat a name; LastNode is the node that completed the match.
type Match struct {
	Captures []Capture
	LastNode syntax.Node
}

// matchState is an in-flight attempt at a node's child patterns: next is the
// index of the first child pattern still unmatched.
type matchState struct {
	next  int
	match Match
}

// MatchesInTree returns every match of p anywhere in tree, ordered by
// CompareMatches.
func (p *Pattern) MatchesInTree(tree syntax.Tree) []Match {
	var matches []Match

	syntax.PreOrder(tree, func(cursor syntax.Cursor, _ int) {
		matches = append(matches, p.MatchNode(cursor)...)
	})

	slices.SortStableFunc(matches, CompareMatches)

	return matches
}

// MatchNode returns the matches of p rooted at the node under cursor, in no
// particular order. The cursor is left on that node.
//
// Child patterns are matched by a worklist over the node's children. Every
// state that has not yet finished stays in the list, so a child pattern may
// bind to any later child as well; the number of states can grow
// exponentially with ambiguous child patterns over repetitive children.
func (p *Pattern) MatchNode(cursor syntax.Cursor) []Match {
	node := cursor.Node()

	switch {
	case p.Kind == Wildcard:
		if p.Named && !node.Named {
			return nil
		}
	case p.Kind != "":
		if p.Kind != node.Kind || p.Named != node.Named {
			return nil
		}
	}

	if p.Field != "" && cursor.FieldName() != p.Field {
		return nil
	}

	base := Match{LastNode: node}
	if p.Capture != "" {
		base.Captures = []Capture{{Name: p.Capture, Node: node}}
	}

	if len(p.Children) == 0 {
		return []Match{base}
	}

	if !cursor.GoToFirstChild() {
		return nil
	}

	var finished []Match

	states := []matchState{{next: 0, match: base}}

	for {
		var advanced []matchState

		for _, state := range states {
			childPattern := p.Children[state.next]

			for _, sub := range childPattern.MatchNode(cursor) {
				combined := state.match.extend(sub)

				if state.next+1 < len(p.Children) {
					advanced = append(advanced, matchState{next: state.next + 1, match: combined})

					continue
				}

				finished = mergeFinished(finished, combined, childPattern.Capture != "")
			}
		}

		// States advanced at this child only compete for the following ones.
		states = append(states, advanced...)

		if !cursor.GoToNextSibling() {
			break
		}
	}

	cursor.GoToParent()

	return finished
}

// extend returns a copy of m followed by the captures of sub.
func (m Match) extend(sub Match) Match {
	captures := make([]Capture, 0, len(m.Captures)+len(sub.Captures))
	captures = append(captures, m.Captures...)
	captures = append(captures, sub.Captures...)

	return Match{Captures: captures, LastNode: sub.LastNode}
}

// mergeFinished adds m to finished unless a match with the same captures is
// already there. In that case the existing match takes m's LastNode when the
// last child pattern captured something, and keeps its own otherwise.
func mergeFinished(finished []Match, m Match, refresh bool) []Match {
	for i := range finished {
		if slices.Equal(finished[i].Captures, m.Captures) {
			if refresh {
				finished[i].LastNode = m.LastNode
			}

			return finished
		}
	}

	return append(finished, m)
}

// CompareMatches orders matches by their last node, then by their captured
// nodes pairwise, then with longer capture lists first.
func CompareMatches(a, b Match) int {
	if c := syntax.CompareDepthFirst(a.LastNode, b.LastNode); c != 0 {
		return c
	}

	for i := range min(len(a.Captures), len(b.Captures)) {
		if c := syntax.CompareDepthFirst(a.Captures[i].Node, b.Captures[i].Node); c != 0 {
			return c
		}
	}

	return cmp.Compare(len(b.Captures), len(a.Captures))
}
