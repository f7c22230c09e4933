package search

import "math"

// Ratio scores the similarity of two strings in [0,100] using the
// sequence-matcher measure: twice the total length of the matching blocks
// over the combined length.
func Ratio(a, b string) int {
	if len(a) == 0 && len(b) == 0 {
		return 100
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	matched := matchingBlockTotal([]byte(a), []byte(b))
	return int(math.Round(200 * float64(matched) / float64(len(a)+len(b))))
}

// PartialRatio scores how well the shorter string matches anywhere inside
// the longer one. Every alignment window of the longer string with the
// shorter string's length is scored with Ratio; the best window wins.
func PartialRatio(a, b string) int {
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		if len(longer) == 0 {
			return 100
		}
		return 0
	}

	best := 0
	for start := 0; start+len(shorter) <= len(longer); start++ {
		window := longer[start : start+len(shorter)]
		if score := Ratio(shorter, window); score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

// matchingBlockTotal sums the lengths of the matching blocks found by
// greedy decomposition: take the longest common block, then recurse on the
// pieces to its left and right.
func matchingBlockTotal(a, b []byte) int {
	ai, bi, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingBlockTotal(a[:ai], b[:bi])
	total += matchingBlockTotal(a[ai+size:], b[bi+size:])
	return total
}

// longestCommonBlock finds the leftmost longest common substring of a and b.
func longestCommonBlock(a, b []byte) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	// prev[j] is the length of the common suffix ending at a[i-1] and b[j].
	prev := make([]int, len(b))
	cur := make([]int, len(b))
	for i := range a {
		for j := range b {
			if a[i] != b[j] {
				cur[j] = 0
				continue
			}
			k := 1
			if j > 0 {
				k = prev[j-1] + 1
			}
			cur[j] = k
			if k > size {
				ai, bi, size = i-k+1, j-k+1, k
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, size
}
