// File: types.go
// Role: The FunctionStep/BasicBlockStep capability, and the name->factory
// registries config.New resolves pipeline orderings against.
package steps

import "github.com/whicun/bindiff/match"

// FunctionStep proposes function-level candidate pairs from the currently
// unmatched entities on both sides of ctx. Implementations must be
// deterministic: given the same Context state, they return the same
// candidates in the same order.
type FunctionStep interface {
	Name() match.StepName
	Confidence() float64
	Candidates(ctx *match.Context) ([]match.FunctionCandidate, error)
}

// BasicBlockStep proposes basic-block-level candidate pairs scoped to one
// confirmed FixedPoint's two flow graphs.
type BasicBlockStep interface {
	Name() match.StepName
	Confidence() float64
	Candidates(ctx *match.Context, fp *match.FixedPoint) ([]match.BasicBlockCandidate, error)
}

// StepOptions carries the handful of per-step tunables that don't fit the
// confidence-only factory shape — currently just the string-reference
// intersection threshold (SPEC_FULL.md §4.2's "configurable threshold
// ratio"). Steps that don't need a tunable simply ignore it.
type StepOptions struct {
	// StringRefThreshold is the minimum sorted-StringRefs multiset
	// intersection ratio (intersection size / larger multiset size) for
	// stringReferencesStep to propose a candidate pair. config.New fills in
	// config.DefaultStringRefThreshold before the driver builds steps, so a
	// Driver never sees zero here.
	StringRefThreshold float64
}

// FunctionStepFactory builds a FunctionStep with the given confidence and
// options. Factories take confidence explicitly so config.Config.StepConfidence
// can override a step's default without needing a setter on every variant;
// opts carries the rarer per-step tunables from StepOptions.
type FunctionStepFactory func(confidence float64, opts StepOptions) FunctionStep

// BasicBlockStepFactory builds a BasicBlockStep with the given confidence.
type BasicBlockStepFactory func(confidence float64) BasicBlockStep

// FunctionStepRegistry is a name->factory map, preserving the canonical
// registration order it was built with.
type FunctionStepRegistry struct {
	order     []string
	factories map[string]FunctionStepFactory
}

// Has reports whether name is a registered function step.
func (r *FunctionStepRegistry) Has(name string) bool {
	_, ok := r.factories[name]

	return ok
}

// Build returns a new FunctionStep for name at the given confidence and
// options, or false if name is unregistered.
func (r *FunctionStepRegistry) Build(name string, confidence float64, opts StepOptions) (FunctionStep, bool) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, false
	}

	return factory(confidence, opts), true
}

// Order returns the canonical registration order, a copy safe to mutate.
func (r *FunctionStepRegistry) Order() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)

	return out
}

func (r *FunctionStepRegistry) register(name string, factory FunctionStepFactory) {
	if r.factories == nil {
		r.factories = make(map[string]FunctionStepFactory)
	}
	r.order = append(r.order, name)
	r.factories[name] = factory
}

// BasicBlockStepRegistry is the basic-block-level analogue of
// FunctionStepRegistry.
type BasicBlockStepRegistry struct {
	order     []string
	factories map[string]BasicBlockStepFactory
}

func (r *BasicBlockStepRegistry) Has(name string) bool {
	_, ok := r.factories[name]

	return ok
}

func (r *BasicBlockStepRegistry) Build(name string, confidence float64) (BasicBlockStep, bool) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, false
	}

	return factory(confidence), true
}

func (r *BasicBlockStepRegistry) Order() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)

	return out
}

func (r *BasicBlockStepRegistry) register(name string, factory BasicBlockStepFactory) {
	if r.factories == nil {
		r.factories = make(map[string]BasicBlockStepFactory)
	}
	r.order = append(r.order, name)
	r.factories[name] = factory
}

// DefaultFunctionOrder returns the canonical function-step pipeline order
// (spec §4.2: exact-equality first, then structural, name-based,
// propagation-based, then fuzzy), a copy safe to mutate.
func DefaultFunctionOrder() []string {
	return FunctionRegistry.Order()
}

// DefaultBasicBlockOrder returns the canonical basic-block-step pipeline
// order, a copy safe to mutate.
func DefaultBasicBlockOrder() []string {
	return BasicBlockRegistry.Order()
}
