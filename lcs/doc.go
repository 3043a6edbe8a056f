// Package lcs aligns two instruction sequences from a matched basic-block
// pair into an ordered list of index-increasing pairs, via dynamic
// programming over the longest common subsequence (spec §4.3).
//
// See align.go for Align and the determinism rule it enforces when multiple
// longest subsequences exist.
package lcs
