package pattern_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Enter-tainer/tree-sitter/pkg/pattern"
)

func TestPattern_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern *pattern.Pattern
		want    string
	}{
		{
			name:    "named node",
			pattern: &pattern.Pattern{Kind: "identifier", Named: true},
			want:    "(identifier)",
		},
		{
			name:    "anonymous wildcard",
			pattern: &pattern.Pattern{Kind: pattern.Wildcard},
			want:    "_",
		},
		{
			name:    "named wildcard with capture",
			pattern: &pattern.Pattern{Kind: pattern.Wildcard, Named: true, Capture: "x"},
			want:    "(_) @x",
		},
		{
			name:    "anonymous literal",
			pattern: &pattern.Pattern{Kind: "+", Field: "operator"},
			want:    `operator: "+"`,
		},
		{
			name:    "literal with quote",
			pattern: &pattern.Pattern{Kind: `"`},
			want:    `"\""`,
		},
		{
			name:    "literal backslash is not escaped",
			pattern: &pattern.Pattern{Kind: `\n`},
			want:    `"\n"`,
		},
		{
			name: "fields and captures",
			pattern: &pattern.Pattern{
				Kind:  "binary_expression",
				Named: true,
				Children: []*pattern.Pattern{
					{Kind: "identifier", Named: true, Field: "left", Capture: "l"},
					{Kind: "identifier", Named: true, Field: "right", Capture: "r"},
				},
			},
			want: "(binary_expression left: (identifier) @l right: (identifier) @r)",
		},
		{
			name: "sequence",
			pattern: &pattern.Pattern{
				Named: true,
				Children: []*pattern.Pattern{
					{Kind: "identifier", Named: true, Capture: "one"},
					{Kind: ";"},
				},
			},
			want: `((identifier) @one ";")`,
		},
		{
			name: "nested",
			pattern: &pattern.Pattern{
				Kind:    "call",
				Named:   true,
				Capture: "c",
				Children: []*pattern.Pattern{
					{Kind: "arguments", Named: true, Field: "arguments", Children: []*pattern.Pattern{
						{Kind: pattern.Wildcard, Named: true},
					}},
				},
			},
			want: "(call arguments: (arguments (_))) @c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.pattern.String())
		})
	}
}

func TestPattern_SizeAndDepth(t *testing.T) {
	t.Parallel()

	leaf := &pattern.Pattern{Kind: "x", Named: true}
	assert.Equal(t, 1, leaf.Size())
	assert.Equal(t, 1, leaf.Depth())

	tree := &pattern.Pattern{
		Kind:  "a",
		Named: true,
		Children: []*pattern.Pattern{
			{Kind: "b", Named: true, Children: []*pattern.Pattern{{Kind: "c", Named: true}}},
			{Kind: "d"},
		},
	}
	assert.Equal(t, 4, tree.Size())
	assert.Equal(t, 3, tree.Depth())
}

func TestPattern_IsSequence(t *testing.T) {
	t.Parallel()

	assert.True(t, (&pattern.Pattern{Named: true}).IsSequence())
	assert.False(t, (&pattern.Pattern{Kind: pattern.Wildcard, Named: true}).IsSequence())
	assert.False(t, (&pattern.Pattern{}).IsSequence())
}
