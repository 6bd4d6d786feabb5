package treesitter

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Enter-tainer/tree-sitter/pkg/lru"
	"github.com/Enter-tainer/tree-sitter/pkg/pattern"
)

// Sentinel errors for query execution.
var (
	errNilLanguage = errors.New("tree-sitter language is nil")

	// ErrCompile wraps every query the engine refuses to compile.
	ErrCompile = errors.New("tree-sitter query compilation failed")
)

// DefaultQueryCacheSize bounds the compiled queries an Engine keeps.
const DefaultQueryCacheSize = 4096

// Engine compiles query text with tree-sitter and runs it over trees.
// Compiled queries are cached by text, least recently used first out.
type Engine struct {
	cache *lru.Cache[string, *sitter.Query]
	lang  *sitter.Language
}

// NewEngine creates an Engine with an empty cache of DefaultQueryCacheSize
// entries.
func NewEngine(lang *sitter.Language) *Engine {
	return &Engine{
		cache: lru.New(lru.WithMaxEntries[string, *sitter.Query](DefaultQueryCacheSize)),
		lang:  lang,
	}
}

// Compile compiles text, reusing a cached query when possible.
func (e *Engine) Compile(text string) (*sitter.Query, error) {
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}

	if e.lang == nil {
		return nil, errNilLanguage
	}

	compiled, err := sitter.NewQuery(e.lang, []byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}

	e.cache.Put(text, compiled)

	return compiled, nil
}

// CacheStats returns the compiled query cache counters.
func (e *Engine) CacheStats() lru.Stats {
	return e.cache.Stats()
}

// Query returns the captures of every match of text under root, in the
// order tree-sitter reports them.
func (e *Engine) Query(ctx context.Context, root sitter.Node, source []byte, text string) ([][]pattern.Capture, error) {
	query, err := e.Compile(text)
	if err != nil {
		return nil, err
	}

	qc := sitter.NewQueryCursor()
	matches := qc.Matches(query, root, source)

	var result [][]pattern.Capture

	for match := matches.Next(); match != nil; match = matches.Next() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("query interrupted: %w", ctxErr)
		}

		captures := make([]pattern.Capture, 0, len(match.Captures))

		for _, capture := range match.Captures {
			captures = append(captures, pattern.Capture{
				Name: query.CaptureNameForID(capture.Index),
				Node: toNode(capture.Node),
			})
		}

		result = append(result, captures)
	}

	return result, nil
}
