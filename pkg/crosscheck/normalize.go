package crosscheck

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Enter-tainer/tree-sitter/pkg/pattern"
)

// OracleCaptures strips the matcher's bookkeeping from matches.
func OracleCaptures(matches []pattern.Match) [][]pattern.Capture {
	out := make([][]pattern.Capture, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Captures)
	}

	return out
}

// Normalize renders each match as one line of sorted `name=(kind start-end)`
// captures and returns the lines sorted and de-duplicated. Two engines agree
// on a pattern when their normalized results are equal.
func Normalize(matches [][]pattern.Capture) []string {
	lines := make([]string, 0, len(matches))

	for _, captures := range matches {
		parts := make([]string, 0, len(captures))
		for _, c := range captures {
			parts = append(parts, fmt.Sprintf("%s=(%s %d-%d)", c.Name, c.Node.Kind, c.Node.StartByte, c.Node.EndByte))
		}

		slices.Sort(parts)
		lines = append(lines, strings.Join(parts, " "))
	}

	slices.Sort(lines)

	return slices.Compact(lines)
}

// LineDiff renders a unified-style line diff from expected to actual.
func LineDiff(expected, actual []string) string {
	dmp := diffmatchpatch.New()

	a, b, lines := dmp.DiffLinesToChars(joinLines(expected), joinLines(actual))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder

	for _, d := range diffs {
		prefix := "  "

		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffEqual:
		}

		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}

			sb.WriteString(prefix)
			sb.WriteString(line)
		}
	}

	return sb.String()
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	return strings.Join(lines, "\n") + "\n"
}
