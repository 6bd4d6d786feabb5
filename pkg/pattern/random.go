package pattern

import (
	"github.com/Enter-tainer/tree-sitter/pkg/safeconv"
	"github.com/Enter-tainer/tree-sitter/pkg/syntax"
)

// Rand is the randomness the generator draws from. *math/rand/v2.Rand
// satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// Generator probabilities.
const (
	concreteKindChance  = 0.9
	namedWildcardChance = 0.8
	fieldChance         = 0.75
	captureChance       = 0.7
	childChance         = 0.6
	siblingChance       = 0.2

	maxRoots         = 5
	maxChildrenBound = 4
)

// CaptureNames is the pool generated captures are named from. Reusing names
// across a pattern is intended.
var CaptureNames = [...]string{"one", "two", "three", "four", "five", "six", "seven", "eight"}

func chance(rng Rand, p float64) bool {
	return rng.Float64() < p
}

// RandomInTree returns a random pattern that matches at least once in tree.
//
// The anchor node is picked by descending towards a random byte offset and
// then climbing a random number of levels back up, so nodes on long ancestor
// chains are favoured over a uniform pick. Some of the anchor's following
// siblings may be added, turning the result into a sequence.
func RandomInTree(tree syntax.Tree, rng Rand) *Pattern {
	cursor := tree.Walk()

	maxDepth := 0
	if end := cursor.Node().EndByte; end > 0 {
		offset := safeconv.MustOffset(rng.IntN(safeconv.MustInt(end)))
		for cursor.GoToFirstChildForByte(offset) {
			maxDepth++
		}
	}

	for range rng.IntN(maxDepth + 1) {
		cursor.GoToParent()
	}

	roots := []*Pattern{ForNode(cursor, rng)}
	for len(roots) < maxRoots && cursor.GoToNextSibling() {
		if chance(rng, siblingChance) {
			roots = append(roots, ForNode(cursor, rng))
		}
	}

	if len(roots) == 1 {
		return roots[0]
	}

	// A sequence cannot start with an anonymous wildcard, and its first
	// element cannot carry a field.
	first := roots[0]
	if first.Kind == Wildcard && !first.Named {
		return first
	}

	first.Field = ""

	return &Pattern{Named: true, Children: roots}
}

// ForNode returns a random pattern matching the node under cursor. The cursor
// is left on that node.
func ForNode(cursor syntax.Cursor, rng Rand) *Pattern {
	node := cursor.Node()
	p := &Pattern{}

	if chance(rng, concreteKindChance) {
		p.Kind = node.Kind
		p.Named = node.Named
	} else {
		p.Kind = Wildcard
		p.Named = node.Named && chance(rng, namedWildcardChance)
	}

	if chance(rng, fieldChance) {
		p.Field = cursor.FieldName()
	}

	if chance(rng, captureChance) {
		p.Capture = CaptureNames[rng.IntN(len(CaptureNames))]
	}

	// Anonymous patterns render without children, so they get none.
	if p.Named && cursor.GoToFirstChild() {
		maxChildren := rng.IntN(maxChildrenBound)

		// Scanning starts after the first child.
		for cursor.GoToNextSibling() {
			if !chance(rng, childChance) {
				continue
			}

			p.Children = append(p.Children, ForNode(cursor, rng))
			if len(p.Children) >= maxChildren {
				break
			}
		}

		cursor.GoToParent()
	}

	return p
}
