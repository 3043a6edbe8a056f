// Package classify labels a confirmed FixedPoint with a change-flag bitset
// (spec §4.5): which kinds of difference, if any, separate its primary and
// secondary function once matching, alignment, and scoring are done.
//
// See flags.go for the Flags bitset and classify.go for Classify.
package classify
