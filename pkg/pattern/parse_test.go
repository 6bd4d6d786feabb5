package pattern_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Enter-tainer/tree-sitter/pkg/pattern"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want *pattern.Pattern
	}{
		{
			name: "wildcard",
			text: "_",
			want: &pattern.Pattern{Kind: pattern.Wildcard},
		},
		{
			name: "named wildcard",
			text: "( _ ) @x",
			want: &pattern.Pattern{Kind: pattern.Wildcard, Named: true, Capture: "x"},
		},
		{
			name: "fields",
			text: "(binary_expression left: (identifier) @l\n\tright:(identifier)@r)",
			want: &pattern.Pattern{
				Kind:  "binary_expression",
				Named: true,
				Children: []*pattern.Pattern{
					{Kind: "identifier", Named: true, Field: "left", Capture: "l"},
					{Kind: "identifier", Named: true, Field: "right", Capture: "r"},
				},
			},
		},
		{
			name: "escaped literal",
			text: `(string "\"" @q)`,
			want: &pattern.Pattern{
				Kind:     "string",
				Named:    true,
				Children: []*pattern.Pattern{{Kind: `"`, Capture: "q"}},
			},
		},
		{
			name: "sequence led by a field",
			text: `(name: (identifier) "=")`,
			want: &pattern.Pattern{
				Named: true,
				Children: []*pattern.Pattern{
					{Kind: "identifier", Named: true, Field: "name"},
					{Kind: "="},
				},
			},
		},
		{
			name: "dotted capture",
			text: "(identifier) @function.name",
			want: &pattern.Pattern{Kind: "identifier", Named: true, Capture: "function.name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := pattern.Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want error
	}{
		{"empty", "", pattern.ErrUnexpectedEOF},
		{"unclosed group", "(identifier", pattern.ErrUnexpectedEOF},
		{"bare identifier", "identifier", pattern.ErrUnexpectedChar},
		{"wildcard prefix", "_foo", pattern.ErrUnexpectedChar},
		{"trailing", "(a) (b)", pattern.ErrTrailingInput},
		{"empty sequence", "()", pattern.ErrEmptySequence},
		{"captured sequence", "((a) (b)) @x", pattern.ErrDecoratedGroup},
		{"missing capture name", "(a) @", pattern.ErrMissingName},
		{"unterminated string", `"abc`, pattern.ErrUnterminatedStr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := pattern.Parse(tt.text)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_RoundTripsGeneratedPatterns(t *testing.T) {
	t.Parallel()

	tree := programTree()

	for seed := range uint64(300) {
		rng := rand.New(rand.NewPCG(seed, 0))

		generated := pattern.RandomInTree(tree, rng)
		text := generated.String()

		parsed, err := pattern.Parse(text)
		require.NoError(t, err, text)
		assert.Equal(t, text, parsed.String())
		assert.Equal(t, generated.MatchesInTree(tree), parsed.MatchesInTree(tree), text)
	}
}
