// Package syntax defines the read-only view of a parsed syntax tree that the
// pattern oracle walks: nodes copied out as plain values, and a cursor that
// moves between them.
package syntax

import "cmp"

// Node is a snapshot of a syntax tree node. All fields are copied out of the
// owning tree when the node is read, so a Node never aliases tree memory, but
// it only identifies a node while the tree that produced it is alive.
type Node struct {
	// ID distinguishes nodes of the same tree that share a kind and a range.
	ID        uintptr
	Kind      string
	Named     bool
	StartByte uint32
	EndByte   uint32
}

// IsZero reports whether n is the zero Node.
func (n Node) IsZero() bool {
	return n == Node{}
}

// Cursor walks a tree. Every movement reports whether it happened; a failed
// movement leaves the cursor where it was.
type Cursor interface {
	// Node returns the node under the cursor.
	Node() Node

	// FieldName returns the field the current node occupies in its parent,
	// or "" when it has none.
	FieldName() string

	GoToFirstChild() bool
	GoToNextSibling() bool
	GoToParent() bool

	// GoToFirstChildForByte moves to the first child whose range ends after
	// offset.
	GoToFirstChildForByte(offset uint32) bool
}

// Tree is an immutable syntax tree.
type Tree interface {
	// Walk returns a fresh cursor positioned at the root.
	Walk() Cursor
}

// CompareDepthFirst orders nodes the way a depth-first walk meets them:
// earlier start first, and for equal starts the wider node first.
func CompareDepthFirst(a, b Node) int {
	if c := cmp.Compare(a.StartByte, b.StartByte); c != 0 {
		return c
	}

	return cmp.Compare(b.EndByte, a.EndByte)
}

// PreOrder visits every node of tree, parents before children and siblings
// left to right. visit receives the cursor positioned on the node and the
// node's depth (the root is 0); it must leave the cursor where it found it.
func PreOrder(tree Tree, visit func(cursor Cursor, depth int)) {
	cursor := tree.Walk()
	depth := 0
	ascending := false

	for {
		if ascending {
			if cursor.GoToNextSibling() {
				ascending = false

				continue
			}

			if !cursor.GoToParent() {
				return
			}

			depth--

			continue
		}

		visit(cursor, depth)

		if cursor.GoToFirstChild() {
			depth++
		} else {
			ascending = true
		}
	}
}
