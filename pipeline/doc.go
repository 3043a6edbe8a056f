// Package pipeline implements the driver algorithm of spec §4.2: run the
// function-level step pipeline to a fixed point, fan out the
// basic-block-level pipeline plus LCS alignment, scoring, and
// classification across the confirmed FixedPoints, and collect non-fatal
// warnings instead of aborting on a single step or feature failure.
package pipeline
