package pattern_test

import (
	"github.com/Enter-tainer/tree-sitter/pkg/syntax"
)

// sumTree is "a+b" parsed as a single binary expression.
func sumTree() *syntax.MemTree {
	return syntax.NewMemTree(syntax.Branch("program",
		syntax.Branch("binary_expression",
			syntax.Leaf("identifier", "a").As("left"),
			syntax.Token("+").As("operator"),
			syntax.Leaf("identifier", "b").As("right"),
		),
	))
}

// argsTree is a call with three adjacent identifier arguments "abc".
func argsTree() *syntax.MemTree {
	return syntax.NewMemTree(syntax.Branch("call",
		syntax.Leaf("identifier", "a"),
		syntax.Leaf("identifier", "b"),
		syntax.Leaf("identifier", "c"),
	))
}

// programTree is a small program with fields, tokens and repeated kinds.
func programTree() *syntax.MemTree {
	return syntax.NewMemTree(syntax.Branch("program",
		syntax.Branch("function_definition",
			syntax.Token("def"),
			syntax.Leaf("identifier", "f").As("name"),
			syntax.Branch("parameters",
				syntax.Token("("),
				syntax.Leaf("identifier", "x"),
				syntax.Token(","),
				syntax.Leaf("identifier", "y"),
				syntax.Token(")"),
			).As("parameters"),
			syntax.Branch("block",
				syntax.Token("{"),
				syntax.Branch("return_statement",
					syntax.Token("return"),
					syntax.Branch("binary_expression",
						syntax.Leaf("identifier", "x").As("left"),
						syntax.Token("+").As("operator"),
						syntax.Leaf("identifier", "y").As("right"),
					),
				),
				syntax.Token("}"),
			).As("body"),
		),
		syntax.Branch("expression_statement",
			syntax.Branch("call_expression",
				syntax.Leaf("identifier", "f").As("function"),
				syntax.Branch("arguments",
					syntax.Token("("),
					syntax.Leaf("number", "1"),
					syntax.Token(","),
					syntax.Leaf("number", "2"),
					syntax.Token(")"),
				).As("arguments"),
			),
			syntax.Token(";"),
		),
		syntax.Branch("expression_statement",
			syntax.Branch("assignment",
				syntax.Leaf("identifier", "z").As("left"),
				syntax.Token("=").As("operator"),
				syntax.Branch("call_expression",
					syntax.Leaf("identifier", "f").As("function"),
					syntax.Branch("arguments",
						syntax.Token("("),
						syntax.Leaf("identifier", "z"),
						syntax.Token(","),
						syntax.Leaf("identifier", "z"),
						syntax.Token(")"),
					).As("arguments"),
				).As("right"),
			),
			syntax.Token(";"),
		),
	))
}

// nodeAt returns the first node in pre-order with the given kind and start.
func nodeAt(tree syntax.Tree, kind string, start uint32) syntax.Node {
	var found syntax.Node

	syntax.PreOrder(tree, func(cursor syntax.Cursor, _ int) {
		n := cursor.Node()
		if found.IsZero() && n.Kind == kind && n.StartByte == start {
			found = n
		}
	})

	return found
}

// constRand answers every draw with the same values.
type constRand struct {
	f float64
	n int
}

func (r constRand) Float64() float64 {
	return r.f
}

func (r constRand) IntN(n int) int {
	return min(r.n, n-1)
}
