// File: align.go
// Role: Longest-common-subsequence instruction aligner (spec §4.3), built on
// the teacher's DP-table-plus-backtrack idiom (dtw.DTW/backtrack): a DP
// table sized (len(A)+1)x(len(B)+1), then a single backward walk
// reconstructing the alignment.
package lcs

import "github.com/whicun/bindiff/instruction"

// Align returns an ordered list of (a-index, b-index) pairs describing the
// longest common subsequence of a and b under instruction.Instruction.Equal,
// with indices strictly increasing on both sides.
//
// When more than one longest subsequence exists, the choice is
// deterministic (it depends only on a and b, never on map or allocator
// order) but does not always favor the smaller primary (a) index: the
// common prefix and suffix are paired position by position first, and the
// middle is reconstructed back to front, taking a match wherever one is
// available. For a = [y x x] and b = [x], Align returns (2,0), not (1,0).
//
// Complexity: O(|a|*|b|) time and space, after an O(|a|+|b|) short-circuit
// that strips any common prefix and suffix before running the DP.
func Align(a, b instruction.Instructions) []Match {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}

	prefix := commonPrefixLen(a, b)
	suffix := commonSuffixLen(a[prefix:], b[prefix:])

	aMid := a[prefix : len(a)-suffix]
	bMid := b[prefix : len(b)-suffix]

	matches := make([]Match, 0, prefix+suffix+min(len(aMid), len(bMid)))
	for i := 0; i < prefix; i++ {
		matches = append(matches, Match{A: i, B: i})
	}
	for _, m := range alignMiddle(aMid, bMid) {
		matches = append(matches, Match{A: m.A + prefix, B: m.B + prefix})
	}
	tailA := len(a) - suffix
	tailB := len(b) - suffix
	for i := 0; i < suffix; i++ {
		matches = append(matches, Match{A: tailA + i, B: tailB + i})
	}

	return matches
}

// Match is one aligned pair of indices into the two sequences passed to
// Align.
type Match struct {
	A, B int
}

func commonPrefixLen(a, b instruction.Instructions) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i].Equal(b[i]) {
		i++
	}

	return i
}

func commonSuffixLen(a, b instruction.Instructions) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[len(a)-1-i].Equal(b[len(b)-1-i]) {
		i++
	}

	return i
}

// alignMiddle runs the DP LCS on a and b with no pre-stripped prefix/suffix
// assumptions, returning indices local to a and b.
func alignMiddle(a, b instruction.Instructions) []Match {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return nil
	}

	// dp[i][j] = length of the LCS of a[:i] and b[:j]. Lengths fit
	// comfortably in int16: a basic block's instruction count never
	// approaches 2^15.
	dp := make([][]int16, n+1)
	for i := range dp {
		dp[i] = make([]int16, m+1)
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if a[i-1].Equal(b[j-1]) {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] >= dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	return backtrack(dp, a, b)
}

// backtrack walks from (n,m) to (0,0), taking a diagonal (match) move
// whenever a[i-1] equals b[j-1]; when no match is available, it decrements
// i if that keeps the LCS length, else j. The walk is deterministic, but
// because matches are taken greedily from the end, it can pair a later
// primary index where an earlier one would give an equally long alignment.
func backtrack(dp [][]int16, a, b instruction.Instructions) []Match {
	i, j := len(a), len(b)
	matches := make([]Match, 0, min(len(a), len(b)))

	for i > 0 && j > 0 {
		switch {
		case a[i-1].Equal(b[j-1]):
			matches = append(matches, Match{A: i - 1, B: j - 1})
			i--
			j--
		case dp[i-1][j] >= dp[i][j-1]:
			i--
		default:
			j--
		}
	}

	for l, r := 0, len(matches)-1; l < r; l, r = l+1, r-1 {
		matches[l], matches[r] = matches[r], matches[l]
	}

	return matches
}
