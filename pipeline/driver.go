// File: driver.go
// Role: The five-step driver algorithm of spec §4.2: function pipeline to
// fixed point, then a per-FixedPoint fan-out of basic-block matching, LCS
// alignment, scoring, and classification.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/whicun/bindiff/callgraph"
	"github.com/whicun/bindiff/classify"
	"github.com/whicun/bindiff/config"
	"github.com/whicun/bindiff/flowgraph"
	"github.com/whicun/bindiff/instruction"
	"github.com/whicun/bindiff/lcs"
	"github.com/whicun/bindiff/match"
	"github.com/whicun/bindiff/ports"
	"github.com/whicun/bindiff/score"
	"github.com/whicun/bindiff/steps"
)

// Driver runs one comparison between two call graphs under cfg.
type Driver struct {
	cfg *config.Config
}

// New returns a Driver configured by cfg. cfg should already have passed
// config.Config.Validate (config.New guarantees this).
func New(cfg *config.Config) *Driver {
	return &Driver{cfg: cfg}
}

// Result is the outcome of one Run: the confirmed, scored, classified
// FixedPoints, plus every non-fatal warning collected along the way.
type Result struct {
	FixedPoints []*match.FixedPoint
	Warnings    []ports.Warning
}

// Run executes the driver algorithm against primary and secondary. A
// LoadError is never returned here (loading happens before Run); a
// ConfigError is returned if cfg names an unregistered step (should not
// happen if cfg came from config.New); Cancelled is returned if ctx is
// cancelled mid-run. All other step/feature failures are collected into
// Result.Warnings and do not abort the run.
func (d *Driver) Run(ctx context.Context, primary, secondary *callgraph.CallGraph, cache *instruction.Cache) (*Result, error) {
	functionSteps, err := d.resolveFunctionSteps()
	if err != nil {
		return nil, err
	}
	basicBlockSteps, err := d.resolveBasicBlockSteps()
	if err != nil {
		return nil, err
	}

	mctx := match.NewContext(primary, secondary, cache)
	result := &Result{}

	if err := d.runFunctionPipeline(ctx, mctx, functionSteps, result); err != nil {
		return nil, err
	}

	if err := d.runFanOut(ctx, mctx, basicBlockSteps, result); err != nil {
		return nil, err
	}

	result.FixedPoints = mctx.FixedPoints()

	return result, nil
}

func (d *Driver) resolveFunctionSteps() ([]steps.FunctionStep, error) {
	opts := steps.StepOptions{StringRefThreshold: d.cfg.StringRefThreshold}

	out := make([]steps.FunctionStep, 0, len(d.cfg.FunctionMatching))
	for _, name := range d.cfg.FunctionMatching {
		confidence := d.cfg.StepConfidence.Confidence(match.InternStep(name))
		step, ok := steps.FunctionRegistry.Build(name, confidence, opts)
		if !ok {
			return nil, ports.NewConfigError(fmt.Errorf("unknown function step %q", name))
		}
		out = append(out, step)
	}

	return out, nil
}

func (d *Driver) resolveBasicBlockSteps() ([]steps.BasicBlockStep, error) {
	out := make([]steps.BasicBlockStep, 0, len(d.cfg.BasicBlockMatching))
	for _, name := range d.cfg.BasicBlockMatching {
		confidence := d.cfg.StepConfidence.Confidence(match.InternStep(name))
		step, ok := steps.BasicBlockRegistry.Build(name, confidence)
		if !ok {
			return nil, ports.NewConfigError(fmt.Errorf("unknown basic block step %q", name))
		}
		out = append(out, step)
	}

	return out, nil
}

// runFunctionPipeline iterates the function-level steps to a fixed point:
// a full pass that commits nothing ends the loop (spec §4.2's driver
// algorithm, step 1).
func (d *Driver) runFunctionPipeline(ctx context.Context, mctx *match.Context, fnSteps []steps.FunctionStep, result *Result) error {
	for {
		if err := ctx.Err(); err != nil {
			return ports.NewCancelled(err)
		}

		committed := false
		for _, step := range fnSteps {
			if err := ctx.Err(); err != nil {
				return ports.NewCancelled(err)
			}

			candidates, ok := d.safeFunctionCandidates(step, mctx, result)
			if !ok {
				continue
			}
			for _, c := range candidates {
				if _, committedPair := mctx.CommitFunction(c, step.Name()); committedPair {
					committed = true
				}
			}
		}
		if !committed {
			return nil
		}
	}
}

// safeFunctionCandidates recovers a panicking step and records a
// MatchingWarning instead of aborting the pipeline (spec §7).
func (d *Driver) safeFunctionCandidates(step steps.FunctionStep, mctx *match.Context, result *Result) (candidates []match.FunctionCandidate, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			w := ports.NewMatchingWarning(step.Name(), fmt.Errorf("recovered panic: %v", r))
			result.Warnings = append(result.Warnings, w)
			d.cfg.Logger.Warnf("%s", w)
			ok = false
		}
	}()

	out, err := step.Candidates(mctx)
	if err != nil {
		w := ports.NewMatchingWarning(step.Name(), err)
		result.Warnings = append(result.Warnings, w)
		d.cfg.Logger.Warnf("%s", w)

		return nil, false
	}

	return out, true
}

// runFanOut dispatches steps 2-5 of the driver algorithm across a bounded
// worker pool, one FixedPoint per worker slot at a time. Each worker owns
// its FixedPoint exclusively; mctx is read-only during this phase (spec §5).
func (d *Driver) runFanOut(ctx context.Context, mctx *match.Context, bbSteps []steps.BasicBlockStep, result *Result) error {
	fixedPoints := mctx.FixedPoints()
	if len(fixedPoints) == 0 {
		return nil
	}

	workers := d.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(fixedPoints) {
		workers = len(fixedPoints)
	}

	jobs := make(chan *match.FixedPoint, len(fixedPoints))
	for _, fp := range fixedPoints {
		jobs <- fp
	}
	close(jobs)

	var mu sync.Mutex
	var wg sync.WaitGroup
	var cancelErr error

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for fp := range jobs {
				if err := ctx.Err(); err != nil {
					mu.Lock()
					if cancelErr == nil {
						cancelErr = err
					}
					mu.Unlock()

					continue
				}
				d.processFixedPoint(mctx, bbSteps, fp, &mu, result)
			}
		}()
	}
	wg.Wait()

	if cancelErr != nil {
		return ports.NewCancelled(cancelErr)
	}

	return nil
}

// processFixedPoint runs steps 2-5 of the driver algorithm for one
// FixedPoint: basic-block matching to a fixed point, LCS alignment,
// scoring, and classification. A failure scoring fp marks it with
// similarity=confidence=0 rather than aborting (spec §7).
func (d *Driver) processFixedPoint(mctx *match.Context, bbSteps []steps.BasicBlockStep, fp *match.FixedPoint, mu *sync.Mutex, result *Result) {
	defer func() {
		if r := recover(); r != nil {
			d.recordWarning(mu, result, ports.NewScoringWarning("process_fixed_point", fmt.Errorf("recovered panic: %v", r)))
			fp.SetSimilarity(0)
			fp.SetConfidence(0)
		}
	}()

	primary, err := mctx.Primary().Function(fp.Primary())
	if err != nil {
		d.recordWarning(mu, result, ports.NewScoringWarning("load_primary_function", err))

		return
	}
	secondary, err := mctx.Secondary().Function(fp.Secondary())
	if err != nil {
		d.recordWarning(mu, result, ports.NewScoringWarning("load_secondary_function", err))

		return
	}

	d.runBasicBlockPipeline(mctx, bbSteps, fp, mu, result)
	d.alignInstructions(fp, primary, secondary, mu, result)
	d.scoreAndClassify(mctx, fp, primary, secondary, mu, result)
}

func (d *Driver) runBasicBlockPipeline(mctx *match.Context, bbSteps []steps.BasicBlockStep, fp *match.FixedPoint, mu *sync.Mutex, result *Result) {
	for {
		committed := false
		for _, step := range bbSteps {
			candidates, ok := d.safeBasicBlockCandidates(step, mctx, fp, mu, result)
			if !ok {
				continue
			}
			for _, c := range candidates {
				if _, committedPair := mctx.CommitBasicBlock(fp, c, step.Name()); committedPair {
					committed = true
				}
			}
		}
		if !committed {
			return
		}
	}
}

func (d *Driver) safeBasicBlockCandidates(step steps.BasicBlockStep, mctx *match.Context, fp *match.FixedPoint, mu *sync.Mutex, result *Result) (candidates []match.BasicBlockCandidate, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.recordWarning(mu, result, ports.NewMatchingWarning(step.Name(), fmt.Errorf("recovered panic: %v", r)))
			ok = false
		}
	}()

	out, err := step.Candidates(mctx, fp)
	if err != nil {
		d.recordWarning(mu, result, ports.NewMatchingWarning(step.Name(), err))

		return nil, false
	}

	return out, true
}

func (d *Driver) alignInstructions(fp *match.FixedPoint, primary, secondary *flowgraph.FlowGraph, mu *sync.Mutex, result *Result) {
	for _, bb := range fp.BasicBlockFixedPoints() {
		pBlock, err := primary.Block(bb.PrimaryVertex())
		if err != nil {
			d.recordWarning(mu, result, ports.NewMatchingWarning(match.StepName{}, err))

			continue
		}
		sBlock, err := secondary.Block(bb.SecondaryVertex())
		if err != nil {
			d.recordWarning(mu, result, ports.NewMatchingWarning(match.StepName{}, err))

			continue
		}

		aligned := lcs.Align(pBlock.Instructions(), sBlock.Instructions())
		matches := make([]match.InstructionMatch, len(aligned))
		for i, m := range aligned {
			matches[i] = match.InstructionMatch{
				Primary:   pBlock.Instructions()[m.A],
				Secondary: sBlock.Instructions()[m.B],
			}
		}
		bb.SetInstructionMatches(matches)
	}
}

func (d *Driver) scoreAndClassify(mctx *match.Context, fp *match.FixedPoint, primary, secondary *flowgraph.FlowGraph, mu *sync.Mutex, result *Result) {
	primaryExt, err := mctx.Primary().CalleeExtension(fp.Primary())
	if err != nil {
		d.recordWarning(mu, result, ports.NewScoringWarning("primary_callee_extension", err))
	}
	secondaryExt, err := mctx.Secondary().CalleeExtension(fp.Secondary())
	if err != nil {
		d.recordWarning(mu, result, ports.NewScoringWarning("secondary_callee_extension", err))
	}

	scoreResult, warnings := score.Compute(fp, primary, secondary, d.cfg.ScoreWeights, d.cfg.MDWeights, primaryExt, secondaryExt)
	for _, w := range warnings {
		d.recordWarning(mu, result, ports.NewScoringWarning(w.Feature, w))
	}
	fp.SetSimilarity(scoreResult.Similarity)
	fp.SetConfidence(d.cfg.StepConfidence.Confidence(fp.MatchingStep()))

	flags, err := classify.Classify(fp, primary, secondary)
	if err != nil {
		d.recordWarning(mu, result, ports.NewScoringWarning("classify", err))
		fp.SetSimilarity(0)
		fp.SetConfidence(0)

		return
	}
	fp.SetFlags(flags)
}

// recordWarning appends w to result.Warnings under mu and forwards it to
// cfg.Logger — diaglog.Discard by default, a live sink when the caller set
// config.WithLogger (spec §7's warnings are collected either way; the
// logger is for watching a long-running comparison as it happens).
func (d *Driver) recordWarning(mu *sync.Mutex, result *Result, w ports.Warning) {
	mu.Lock()
	defer mu.Unlock()
	result.Warnings = append(result.Warnings, w)
	d.cfg.Logger.Warnf("%s", w)
}
