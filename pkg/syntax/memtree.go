package syntax

import "github.com/Enter-tainer/tree-sitter/pkg/safeconv"

// MemNode describes one node of an in-memory tree. Leaves contribute Text to
// the tree's source; inner nodes span their children.
type MemNode struct {
	Kind     string
	Named    bool
	Field    string
	Text     string
	Children []*MemNode
}

// Branch returns a named inner node.
func Branch(kind string, children ...*MemNode) *MemNode {
	return &MemNode{Kind: kind, Named: true, Children: children}
}

// Leaf returns a named leaf whose source text is text.
func Leaf(kind, text string) *MemNode {
	return &MemNode{Kind: kind, Named: true, Text: text}
}

// Token returns an anonymous leaf whose kind and text are both text.
func Token(text string) *MemNode {
	return &MemNode{Kind: text, Text: text}
}

// As sets the field name n occupies under its parent and returns n.
func (n *MemNode) As(field string) *MemNode {
	n.Field = field

	return n
}

type memEntry struct {
	node        Node
	field       string
	parent      int
	firstChild  int
	nextSibling int
}

// MemTree is an immutable Tree held entirely in memory. Leaves are laid out
// back to back in declaration order, so a leaf's range is the span of its Text.
type MemTree struct {
	entries []memEntry
	source  []byte
}

// NewMemTree flattens root into a MemTree.
func NewMemTree(root *MemNode) *MemTree {
	tree := &MemTree{}
	tree.add(root, -1)

	return tree
}

func (t *MemTree) add(n *MemNode, parent int) int {
	idx := len(t.entries)
	start := safeconv.MustOffset(len(t.source))

	t.entries = append(t.entries, memEntry{
		node: Node{
			ID:        uintptr(idx + 1),
			Kind:      n.Kind,
			Named:     n.Named,
			StartByte: start,
		},
		field:       n.Field,
		parent:      parent,
		firstChild:  -1,
		nextSibling: -1,
	})

	if len(n.Children) == 0 {
		t.source = append(t.source, n.Text...)
	}

	prev := -1

	for _, child := range n.Children {
		childIdx := t.add(child, idx)
		if prev < 0 {
			t.entries[idx].firstChild = childIdx
		} else {
			t.entries[prev].nextSibling = childIdx
		}

		prev = childIdx
	}

	t.entries[idx].node.EndByte = safeconv.MustOffset(len(t.source))

	return idx
}

// Source returns the concatenated leaf text.
func (t *MemTree) Source() []byte {
	return t.source
}

// Len returns the number of nodes in the tree.
func (t *MemTree) Len() int {
	return len(t.entries)
}

// Walk returns a cursor at the root.
func (t *MemTree) Walk() Cursor {
	return &memCursor{tree: t}
}

type memCursor struct {
	tree *MemTree
	pos  int
}

func (c *memCursor) Node() Node {
	return c.tree.entries[c.pos].node
}

func (c *memCursor) FieldName() string {
	return c.tree.entries[c.pos].field
}

func (c *memCursor) GoToFirstChild() bool {
	child := c.tree.entries[c.pos].firstChild
	if child < 0 {
		return false
	}

	c.pos = child

	return true
}

func (c *memCursor) GoToNextSibling() bool {
	next := c.tree.entries[c.pos].nextSibling
	if next < 0 {
		return false
	}

	c.pos = next

	return true
}

func (c *memCursor) GoToParent() bool {
	parent := c.tree.entries[c.pos].parent
	if parent < 0 {
		return false
	}

	c.pos = parent

	return true
}

func (c *memCursor) GoToFirstChildForByte(offset uint32) bool {
	for child := c.tree.entries[c.pos].firstChild; child >= 0; child = c.tree.entries[child].nextSibling {
		if c.tree.entries[child].node.EndByte > offset {
			c.pos = child

			return true
		}
	}

	return false
}
