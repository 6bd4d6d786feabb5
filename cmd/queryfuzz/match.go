package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Enter-tainer/tree-sitter/pkg/crosscheck"
	"github.com/Enter-tainer/tree-sitter/pkg/observability"
	"github.com/Enter-tainer/tree-sitter/pkg/pattern"
	"github.com/Enter-tainer/tree-sitter/pkg/syntax"
	"github.com/Enter-tainer/tree-sitter/pkg/textutil"
)

// Sentinel errors for the match command.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrEnginesDisagree   = errors.New("tree-sitter disagrees with the oracle")
)

// maxSnippet bounds the source text shown per capture.
const maxSnippet = 40

type nodeJSON struct {
	Kind  string `json:"kind"`
	Named bool   `json:"named"`
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
	Text  string `json:"text"`
}

type captureJSON struct {
	Name string   `json:"name"`
	Node nodeJSON `json:"node"`
}

type matchJSON struct {
	Captures []captureJSON `json:"captures"`
	LastNode nodeJSON      `json:"last_node"`
}

func matchCmd(opts *globalOptions) *cobra.Command {
	var (
		format  string
		compare bool
	)

	cmd := &cobra.Command{
		Use:   "match PATTERN FILE",
		Short: "Match a pattern with the reference matcher",
		Long: `Match PATTERN against FILE with the reference matcher and print every match.

Examples:
  queryfuzz match '(binary_expression left: (_) @l)' main.go
  queryfuzz match -f json '(identifier) @id' main.go
  queryfuzz match --compare '((identifier) @a ";")' main.js`,
		Args: cobra.ExactArgs(2), //nolint:mnd // pattern and file
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if format != formatText && format != formatJSON {
				return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
			}

			p, err := pattern.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid pattern: %w", err)
			}

			a, err := newApp(cmd, opts, observability.ModeInspect)
			if err != nil {
				return err
			}

			defer func() { err = a.close(cmd.Context(), err) }()

			tree, _, err := a.openFile(cmd.Context(), args[1], "")
			if err != nil {
				return err
			}
			defer tree.Close()

			matches := p.MatchesInTree(tree)
			out := cmd.OutOrStdout()

			if format == formatJSON {
				err = writeMatchesJSON(out, matches, tree.Source())
			} else {
				writeMatchesText(out, matches, tree.Source())
			}

			if err != nil || !compare {
				return err
			}

			mismatch, ok, err := crosscheck.Check(cmd.Context(), tree, p.String())
			if err != nil {
				return err
			}

			if ok {
				color.New(color.FgGreen).Fprintf(out, "tree-sitter agrees (%d matches)\n", len(matches))

				return nil
			}

			color.New(color.FgRed).Fprintln(out, "tree-sitter disagrees:")
			fmt.Fprint(out, mismatch.Diff)

			return ErrEnginesDisagree
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format (text, json)")
	cmd.Flags().BoolVar(&compare, "compare", false, "also run tree-sitter and compare")

	return cmd
}

func writeMatchesText(w io.Writer, matches []pattern.Match, source []byte) {
	for i, m := range matches {
		fmt.Fprintf(w, "match %d: last %s [%d-%d]\n", i+1, m.LastNode.Kind, m.LastNode.StartByte, m.LastNode.EndByte)

		for _, c := range m.Captures {
			fmt.Fprintf(w, "  @%s = %s [%d-%d] %q\n", c.Name, c.Node.Kind, c.Node.StartByte, c.Node.EndByte, snippet(source, c.Node))
		}
	}

	fmt.Fprintf(w, "%d matches\n", len(matches))
}

func writeMatchesJSON(w io.Writer, matches []pattern.Match, source []byte) error {
	out := make([]matchJSON, 0, len(matches))

	for _, m := range matches {
		entry := matchJSON{
			Captures: make([]captureJSON, 0, len(m.Captures)),
			LastNode: toNodeJSON(m.LastNode, source),
		}

		for _, c := range m.Captures {
			entry.Captures = append(entry.Captures, captureJSON{Name: c.Name, Node: toNodeJSON(c.Node, source)})
		}

		out = append(out, entry)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

func toNodeJSON(n syntax.Node, source []byte) nodeJSON {
	return nodeJSON{
		Kind:  n.Kind,
		Named: n.Named,
		Start: n.StartByte,
		End:   n.EndByte,
		Text:  snippet(source, n),
	}
}

func snippet(source []byte, n syntax.Node) string {
	return textutil.Snippet(source, n.StartByte, n.EndByte, maxSnippet)
}
