// File: errors.go
// Role: The fatal ErrorKind taxonomy and non-fatal Warning shape from
// spec §7, following the teacher's sentinel-error idiom (see
// matrix/errors.go, flow/types.go): package-level sentinels for
// errors.Is, a wrapping struct for errors.As and Kind recovery.
package ports

import (
	"errors"
	"fmt"

	"github.com/whicun/bindiff/match"
)

// ErrorKind distinguishes the fatal categories a comparison run can abort
// with. Matching/scoring problems are never fatal — those surface as
// Warning values instead, collected into the run's warning slice.
type ErrorKind int

const (
	// LoadError means an ExecutableFactory failed to produce a CallGraph.
	LoadError ErrorKind = iota
	// ConfigError means the supplied configuration failed validation.
	ConfigError
	// Cancelled means the run's context was cancelled or timed out.
	Cancelled
)

func (k ErrorKind) String() string {
	switch k {
	case LoadError:
		return "load error"
	case ConfigError:
		return "config error"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown error kind"
	}
}

// Sentinel errors for errors.Is. Every *Error constructed by this file
// wraps exactly one of these.
var (
	ErrLoad      = errors.New("ports: failed to load executable")
	ErrConfig    = errors.New("ports: invalid configuration")
	ErrCancelled = errors.New("ports: comparison run cancelled")
)

// Error is the fatal error shape returned as the sole error from a
// comparison run. Use errors.Is against ErrLoad/ErrConfig/ErrCancelled, or
// errors.As(&Error{}) to recover Kind.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ports: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewLoadError wraps the error an ExecutableFactory returned for path.
func NewLoadError(path string, cause error) error {
	return &Error{Kind: LoadError, Err: fmt.Errorf("%w: %s: %v", ErrLoad, path, cause)}
}

// NewConfigError wraps a config.Validate failure.
func NewConfigError(cause error) error {
	return &Error{Kind: ConfigError, Err: fmt.Errorf("%w: %v", ErrConfig, cause)}
}

// NewCancelled wraps the context error (context.Canceled or
// context.DeadlineExceeded) that stopped the run.
func NewCancelled(cause error) error {
	return &Error{Kind: Cancelled, Err: fmt.Errorf("%w: %v", ErrCancelled, cause)}
}

// WarningKind distinguishes the two non-fatal conditions pipeline.Driver
// collects instead of aborting the run.
type WarningKind int

const (
	// MatchingWarning means a matching step panicked or returned an error
	// while evaluating candidates; the step's contribution is skipped and
	// the run continues with the remaining steps.
	MatchingWarning WarningKind = iota
	// ScoringWarning means a scoring feature hit a degenerate,
	// zero-denominator case (see score.Warning) and contributed 0 to the
	// weighted similarity sum, or that per-function scoring work failed.
	ScoringWarning
)

func (k WarningKind) String() string {
	switch k {
	case MatchingWarning:
		return "matching warning"
	case ScoringWarning:
		return "scoring warning"
	default:
		return "unknown warning kind"
	}
}

// Warning is a non-fatal condition surfaced alongside a run's results.
// Step is set for MatchingWarning; Feature is set for ScoringWarning.
type Warning struct {
	Kind    WarningKind
	Step    match.StepName
	Feature string
	Err     error
}

func (w Warning) Error() string {
	switch w.Kind {
	case MatchingWarning:
		return fmt.Sprintf("%s (step %q): %v", w.Kind, w.Step, w.Err)
	case ScoringWarning:
		return fmt.Sprintf("%s (feature %q): %v", w.Kind, w.Feature, w.Err)
	default:
		return fmt.Sprintf("%s: %v", w.Kind, w.Err)
	}
}

// NewMatchingWarning records that step failed without aborting the run.
func NewMatchingWarning(step match.StepName, err error) Warning {
	return Warning{Kind: MatchingWarning, Step: step, Err: err}
}

// NewScoringWarning records that a scoring feature was degenerate.
func NewScoringWarning(feature string, err error) Warning {
	return Warning{Kind: ScoringWarning, Feature: feature, Err: err}
}
