// File: config.go
// Role: Config assembles every tunable a comparison run needs: which steps
// run in which order, the weights feeding MD-index/scoring, worker
// parallelism, and the logger. Mirrors builder.BuilderOption: New applies
// defaults, then each Option in order, then validates.
package config

import (
	"fmt"
	"runtime"

	"github.com/whicun/bindiff/diaglog"
	"github.com/whicun/bindiff/flowgraph"
	"github.com/whicun/bindiff/ports"
	"github.com/whicun/bindiff/score"
	"github.com/whicun/bindiff/steps"
)

// Config holds every run-level tunable. Build one with New; do not
// construct Config directly, as zero-value step-name lists and weights
// will fail Validate.
type Config struct {
	// FunctionMatching names the function-level steps to run, in pipeline
	// order, resolved against steps.FunctionRegistry.
	FunctionMatching []string
	// BasicBlockMatching names the basic-block-level steps to run, in
	// pipeline order, resolved against steps.BasicBlockRegistry.
	BasicBlockMatching []string
	// StepConfidence is the static per-step confidence pipeline.Driver
	// assigns to each FixedPoint. New starts from score.DefaultConfidence;
	// a step missing from the table gets ConfidenceTable.Confidence's 0.5.
	StepConfidence score.ConfidenceTable
	// MDWeights are the five small prime weights feeding
	// flowgraph.MDIndex/ExtendedMDIndex.
	MDWeights flowgraph.MDWeights
	// ScoreWeights are the ten feature weights feeding score.Compute.
	ScoreWeights score.Weights
	// Workers bounds pipeline.Driver's fan-out. Zero means
	// runtime.GOMAXPROCS(0).
	Workers int
	// StringRefThreshold is the minimum sorted-StringRefs multiset
	// intersection ratio the string-references step requires to propose a
	// candidate pair (SPEC_FULL.md §4.2). New sets it to
	// DefaultStringRefThreshold; Validate rejects a value outside (0,1].
	StringRefThreshold float64
	// Logger receives MatchingWarning/ScoringWarning diagnostics. Nil
	// means diaglog.Discard.
	Logger diaglog.Logger
}

// DefaultStringRefThreshold is the intersection ratio New uses unless
// WithStringRefThreshold sets another: two functions whose sorted
// StringRefs multisets intersect in at least four-fifths of the larger side are
// treated as referencing "the same" literal string constants.
const DefaultStringRefThreshold = 0.8

// Option mutates a Config during New. As a rule, option constructors never
// panic and ignore nil/empty inputs that would otherwise zero out a field.
type Option func(cfg *Config)

// WithFunctionSteps overrides the function-level step pipeline order. A
// nil or empty list is a no-op, leaving the default full pipeline in place.
func WithFunctionSteps(names []string) Option {
	return func(cfg *Config) {
		if len(names) > 0 {
			cfg.FunctionMatching = names
		}
	}
}

// WithBasicBlockSteps overrides the basic-block-level step pipeline order.
func WithBasicBlockSteps(names []string) Option {
	return func(cfg *Config) {
		if len(names) > 0 {
			cfg.BasicBlockMatching = names
		}
	}
}

// WithStepConfidence copies every entry of table over the configured
// per-step confidences, leaving other steps as they were. A nil or empty
// table is a no-op.
func WithStepConfidence(table score.ConfidenceTable) Option {
	return func(cfg *Config) {
		for name, confidence := range table {
			if cfg.StepConfidence == nil {
				cfg.StepConfidence = make(score.ConfidenceTable, len(table))
			}
			cfg.StepConfidence[name] = confidence
		}
	}
}

// WithMDWeights overrides the five MD-index prime weights.
func WithMDWeights(weights flowgraph.MDWeights) Option {
	return func(cfg *Config) {
		cfg.MDWeights = weights
	}
}

// WithScoreWeights overrides the ten feature weights; Validate still
// enforces they sum to 1.
func WithScoreWeights(weights score.Weights) Option {
	return func(cfg *Config) {
		cfg.ScoreWeights = weights
	}
}

// WithWorkers sets the fan-out worker count. A value <= 0 is a no-op,
// leaving the GOMAXPROCS(0) default in place.
func WithWorkers(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.Workers = n
		}
	}
}

// WithStringRefThreshold overrides the string-references step's multiset
// intersection threshold. A value outside (0,1] is a no-op.
func WithStringRefThreshold(ratio float64) Option {
	return func(cfg *Config) {
		if ratio > 0 && ratio <= 1 {
			cfg.StringRefThreshold = ratio
		}
	}
}

// WithLogger sets the diagnostics logger. A nil logger is a no-op.
func WithLogger(logger diaglog.Logger) Option {
	return func(cfg *Config) {
		if logger != nil {
			cfg.Logger = logger
		}
	}
}

// New returns a Config built from defaults (the full step pipeline in
// registry-declared order, score.DefaultWeights, score.DefaultConfidence,
// flowgraph.DefaultMDWeights, GOMAXPROCS(0) workers, diaglog.Discard) with
// each opt applied in order, then validated.
//
// Complexity: O(len(opts) + steps) time, O(1) extra space.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{
		FunctionMatching:   steps.DefaultFunctionOrder(),
		BasicBlockMatching: steps.DefaultBasicBlockOrder(),
		StepConfidence:     score.DefaultConfidence(),
		MDWeights:          flowgraph.DefaultMDWeights,
		ScoreWeights:       score.DefaultWeights(),
		Workers:            runtime.GOMAXPROCS(0),
		StringRefThreshold: DefaultStringRefThreshold,
		Logger:             diaglog.Discard,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, ports.NewConfigError(err)
	}

	return cfg, nil
}

// Validate checks that every step name resolves against its registry and
// that ScoreWeights sums to 1 within epsilon. New always calls Validate;
// callers mutating a Config after New should call it again.
func (cfg *Config) Validate() error {
	if len(cfg.FunctionMatching) == 0 {
		return fmt.Errorf("config: function step pipeline is empty")
	}
	for _, name := range cfg.FunctionMatching {
		if !steps.FunctionRegistry.Has(name) {
			return fmt.Errorf("config: unknown function step %q", name)
		}
	}

	if len(cfg.BasicBlockMatching) == 0 {
		return fmt.Errorf("config: basic block step pipeline is empty")
	}
	for _, name := range cfg.BasicBlockMatching {
		if !steps.BasicBlockRegistry.Has(name) {
			return fmt.Errorf("config: unknown basic block step %q", name)
		}
	}

	if cfg.Workers <= 0 {
		return fmt.Errorf("config: workers must be positive, got %d", cfg.Workers)
	}

	if cfg.StringRefThreshold <= 0 || cfg.StringRefThreshold > 1 {
		return fmt.Errorf("config: string_ref_threshold must be in (0,1], got %v", cfg.StringRefThreshold)
	}

	return cfg.ScoreWeights.Validate()
}
