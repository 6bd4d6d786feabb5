package treesitter

import (
	"unsafe"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Enter-tainer/tree-sitter/pkg/safeconv"
	"github.com/Enter-tainer/tree-sitter/pkg/syntax"
)

// tsNode maps the TSNode struct wrapped by sitter.Node.
// TSNode layout (64-bit):
//
//	Offset  0: context[4] (16 bytes)
//	Offset 16: id (8 bytes, pointer to the Subtree slot in its parent)
//	Offset 24: tree (8 bytes, pointer to TSTree)
type tsNode struct {
	context [4]uint32
	id      unsafe.Pointer
	tree    unsafe.Pointer
}

// nodeID reads the subtree pointer that tree-sitter itself uses for node
// equality. It is stable for the lifetime of the tree and distinct for every
// node in it, including a parent and its only child.
func nodeID(n sitter.Node) uintptr {
	full := (*tsNode)(unsafe.Pointer(&n))

	return uintptr(full.id)
}

// toNode copies what the matcher needs out of a tree-sitter node.
func toNode(n sitter.Node) syntax.Node {
	return syntax.Node{
		ID:        nodeID(n),
		Kind:      n.Type(),
		Named:     n.IsNamed(),
		StartByte: safeconv.MustUint32(n.StartByte()),
		EndByte:   safeconv.MustUint32(n.EndByte()),
	}
}
