// Package levenshtein computes edit distances between short names, used to
// suggest the grammar a user probably meant.
package levenshtein

// Context reuses its row buffers across Distance calls. It is not safe for
// concurrent use.
type Context struct {
	prev []int
	curr []int
}

func (ctx *Context) rows(length int) ([]int, []int) {
	if cap(ctx.prev) < length {
		ctx.prev = make([]int, length)
		ctx.curr = make([]int, length)
	}

	return ctx.prev[:length], ctx.curr[:length]
}

// Distance returns the minimum number of rune insertions, deletions and
// substitutions turning a into b.
func (ctx *Context) Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}

	if len(rb) == 0 {
		return len(ra)
	}

	prev, curr := ctx.rows(len(rb) + 1)

	for j := range prev {
		prev[j] = j
	}

	for i, ca := range ra {
		curr[0] = i + 1

		for j, cb := range rb {
			cost := 1
			if ca == cb {
				cost = 0
			}

			curr[j+1] = min(prev[j+1]+1, curr[j]+1, prev[j]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// Closest returns the candidate nearest to name when it is within
// maxDistance edits. Ties go to the earlier candidate.
func Closest(name string, candidates []string, maxDistance int) (string, bool) {
	var (
		ctx  Context
		best string
	)

	bestDistance := maxDistance + 1

	for _, c := range candidates {
		if d := ctx.Distance(name, c); d < bestDistance {
			best, bestDistance = c, d
		}
	}

	return best, bestDistance <= maxDistance
}
