package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Enter-tainer/tree-sitter/pkg/observability"
	"github.com/Enter-tainer/tree-sitter/pkg/syntax"
)

func treeCmd(opts *globalOptions) *cobra.Command {
	var anonymous bool

	cmd := &cobra.Command{
		Use:   "tree FILE",
		Short: "Print the syntax tree of a file",
		Long: `Print the syntax tree as an indented s-expression with field names and
byte ranges. Anonymous tokens are shown only with --anonymous.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := newApp(cmd, opts, observability.ModeInspect)
			if err != nil {
				return err
			}

			defer func() { err = a.close(cmd.Context(), err) }()

			tree, _, err := a.openFile(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}
			defer tree.Close()

			return writeTree(cmd.OutOrStdout(), tree, anonymous)
		},
	}

	cmd.Flags().BoolVarP(&anonymous, "anonymous", "a", false, "include anonymous tokens")

	return cmd
}

// writeTree prints one node per line, indented two spaces per level, in
// the layout of tree-sitter's own parse output.
func writeTree(w io.Writer, tree syntax.Tree, anonymous bool) error {
	bw := bufio.NewWriter(w)

	writeNode(bw, tree.Walk(), 0, anonymous)
	bw.WriteString("\n")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write tree: %w", err)
	}

	return nil
}

func writeNode(w *bufio.Writer, cursor syntax.Cursor, depth int, anonymous bool) {
	n := cursor.Node()

	w.WriteString(strings.Repeat("  ", depth))

	if field := cursor.FieldName(); field != "" {
		w.WriteString(field)
		w.WriteString(": ")
	}

	if n.Named {
		w.WriteString("(")
		w.WriteString(n.Kind)
	} else {
		w.WriteString(strconv.Quote(n.Kind))
	}

	fmt.Fprintf(w, " [%d-%d]", n.StartByte, n.EndByte)

	if cursor.GoToFirstChild() {
		for {
			if child := cursor.Node(); child.Named || anonymous {
				w.WriteString("\n")
				writeNode(w, cursor, depth+1, anonymous)
			}

			if !cursor.GoToNextSibling() {
				break
			}
		}

		cursor.GoToParent()
	}

	if n.Named {
		w.WriteString(")")
	}
}
