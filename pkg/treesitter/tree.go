// Package treesitter adapts go-tree-sitter-bare parse trees to the syntax
// interfaces and exposes tree-sitter's own query engine over them.
package treesitter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Enter-tainer/tree-sitter/pkg/pattern"
	"github.com/Enter-tainer/tree-sitter/pkg/safeconv"
	"github.com/Enter-tainer/tree-sitter/pkg/syntax"
)

// Sentinel errors for parsing.
var (
	errNoRootNode = errors.New("treesitter: no root node")
	errPoolType   = errors.New("treesitter: pool returned unexpected type")
)

// Parser parses source text of one language.
type Parser struct {
	language string
	engine   *Engine
	pool     sync.Pool
}

// NewParser creates a parser for the named grammar.
func NewParser(language string) (*Parser, error) {
	lang, err := Language(language)
	if err != nil {
		return nil, err
	}

	return &Parser{
		language: language,
		engine:   NewEngine(lang),
		pool: sync.Pool{
			New: func() any {
				tsParser := sitter.NewParser()
				tsParser.SetLanguage(lang)

				return tsParser
			},
		},
	}, nil
}

// Language returns the grammar name.
func (p *Parser) Language() string {
	return p.language
}

// Engine returns the query engine shared by every tree this parser produces.
func (p *Parser) Engine() *Engine {
	return p.engine
}

// Parse parses content. The returned tree must be closed.
func (p *Parser) Parse(ctx context.Context, content []byte) (*Tree, error) {
	tsParser, ok := p.pool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer p.pool.Put(tsParser)

	tree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("treesitter: failed to parse %s: %w", p.language, err)
	}

	if tree.RootNode().IsNull() {
		tree.Close()

		return nil, errNoRootNode
	}

	return &Tree{tree: tree, source: content, engine: p.engine}, nil
}

// Tree is a parsed file. It satisfies syntax.Tree and answers queries with
// the tree-sitter engine.
type Tree struct {
	tree   *sitter.Tree
	engine *Engine
	source []byte
}

// Walk returns a cursor positioned at the root.
func (t *Tree) Walk() syntax.Cursor {
	return &cursor{tc: sitter.NewTreeCursor(t.tree.RootNode())}
}

// Source returns the parsed text.
func (t *Tree) Source() []byte {
	return t.source
}

// HasError reports whether the parse produced error or missing nodes.
func (t *Tree) HasError() bool {
	return t.tree.RootNode().HasError()
}

// Query runs text as a tree-sitter query over the whole tree.
func (t *Tree) Query(ctx context.Context, text string) ([][]pattern.Capture, error) {
	return t.engine.Query(ctx, t.tree.RootNode(), t.source, text)
}

// Close releases the tree-sitter tree.
func (t *Tree) Close() {
	t.tree.Close()
}

// cursor adapts sitter.TreeCursor to syntax.Cursor.
type cursor struct {
	tc *sitter.TreeCursor
}

func (c *cursor) Node() syntax.Node {
	return toNode(c.tc.CurrentNode())
}

func (c *cursor) FieldName() string {
	return c.tc.CurrentFieldName()
}

func (c *cursor) GoToFirstChild() bool {
	return c.tc.GoToFirstChild()
}

func (c *cursor) GoToNextSibling() bool {
	return c.tc.GoToNextSibling()
}

func (c *cursor) GoToParent() bool {
	return c.tc.GoToParent()
}

// GoToFirstChildForByte moves to the first child that ends after offset.
// The cursor stays put when there is none.
func (c *cursor) GoToFirstChildForByte(offset uint32) bool {
	if !c.tc.GoToFirstChild() {
		return false
	}

	for safeconv.MustUint32(c.tc.CurrentNode().EndByte()) <= offset {
		if !c.tc.GoToNextSibling() {
			c.tc.GoToParent()

			return false
		}
	}

	return true
}
