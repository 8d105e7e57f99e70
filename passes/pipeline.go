// Package passes implements C11: the pass manager. It registers each
// conversion stage under a stable name with its declared reads and
// writes, runs them in sequence from --start through --end, and
// persists a small state record after every completed pass; a --start
// past the first pass is accepted only when that record shows every
// earlier pass complete (spec.md §4.11).
package passes

import (
	"github.com/esr-cvs/cvsconvert/changeset"
	"github.com/esr-cvs/cvsconvert/collect"
	"github.com/esr-cvs/cvsconvert/commit"
	"github.com/esr-cvs/cvsconvert/config"
	"github.com/esr-cvs/cvsconvert/filter"
	"github.com/esr-cvs/cvsconvert/graph"
	"github.com/esr-cvs/cvsconvert/model"
	"github.com/esr-cvs/cvsconvert/store"
	"github.com/esr-cvs/cvsconvert/symbols"
)

// Pipeline holds the one conversion run's state as it threads through
// each pass. Unlike reposurgeon's Control singleton, this is an
// explicit value a caller constructs and owns — two Pipelines in the
// same process never interfere (spec.md §9 "Cross-module global
// context").
type Pipeline struct {
	ctx     *config.RunContext
	manager *store.Manager
	cvsRoot string

	Collect    *collect.Result
	Decisions  map[model.SymbolID]*symbols.Decision
	Filtered   *filter.Filtered
	Changesets *model.ChangesetStore
	Ordered    []*model.Changeset
	Commits    []*commit.Record

	// Synth is the Synthesizer that produced Commits. C12 backends need
	// it back (via backend.Context) to resolve each FileOp's content
	// lazily, so it survives past runCommit's return instead of going
	// out of scope with it.
	Synth *commit.Synthesizer
}

// NewPipeline returns a Pipeline that will read cvsRoot when its first
// pass runs, using manager for artifact-lifecycle bookkeeping.
func NewPipeline(ctx *config.RunContext, manager *store.Manager, cvsRoot string) *Pipeline {
	return &Pipeline{ctx: ctx, manager: manager, cvsRoot: cvsRoot}
}

func runCollect(p *Pipeline) error {
	result, err := collect.New(p.ctx).Collect(p.cvsRoot)
	if err != nil {
		return err
	}
	p.Collect = result
	return nil
}

func runSymbols(p *Pipeline) error {
	strategy := symbols.New(p.ctx.Options, p.ctx.Logger)
	decisions, err := strategy.Classify(p.Collect.Symbols, p.Collect.LODs)
	if err != nil {
		return err
	}
	p.Decisions = decisions
	return nil
}

func runFilter(p *Pipeline) error {
	filtered, err := filter.Apply(p.Collect, p.Decisions, p.ctx.Logger)
	if err != nil {
		return err
	}
	p.Filtered = filtered
	return nil
}

func runChangeset(p *Pipeline) error {
	p.Changesets = changeset.New(p.ctx.Options).Build(p.Filtered)
	return nil
}

func runGraph(p *Pipeline) error {
	ordered, err := graph.Build(p.Changesets, p.Filtered, p.ctx.Logger)
	if err != nil {
		return err
	}
	p.Ordered = ordered
	return nil
}

func runCommit(p *Pipeline) error {
	synth, err := commit.New(p.ctx, p.Filtered, p.cvsRoot)
	if err != nil {
		return err
	}
	records, err := synth.Build(p.Ordered)
	if err != nil {
		return err
	}
	p.Commits = records
	p.Synth = synth
	return nil
}
