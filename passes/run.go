package passes

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/esr-cvs/cvsconvert/store"
)

// Interrupted reports that Run stopped because of a SIGINT rather than
// a pass failure. The pass that was running when the signal arrived is
// left incomplete: its partial in-memory state is simply discarded
// (spec.md §4.11 "SIGINT leaves the current pass's partial artifacts
// intact but marks the pass incomplete") and state.json still names
// whatever pass completed immediately before it.
type Interrupted struct {
	Pass string
}

func (e *Interrupted) Error() string {
	return fmt.Sprintf("interrupted during pass %q", e.Pass)
}

// Run executes passes from[startName, endName] inclusive (empty string
// means "the first pass" / "the last pass") and stops cleanly on
// SIGINT between passes. Every pass in the range runs, whatever the
// persisted state records; every pass before startName must already be
// recorded complete there, or Run returns an error.
func Run(p *Pipeline, startName, endName string) error {
	manager := p.manager
	startIdx := 0
	if startName != "" {
		startIdx = ByName(startName)
		if startIdx < 0 {
			return fmt.Errorf("unknown --start pass %q", startName)
		}
	}
	endIdx := len(All) - 1
	if endName != "" {
		endIdx = ByName(endName)
		if endIdx < 0 {
			return fmt.Errorf("unknown --end pass %q", endName)
		}
	}
	if startIdx > endIdx {
		return fmt.Errorf("--start=%s is after --end=%s", All[startIdx].Name, All[endIdx].Name)
	}

	state, err := manager.LoadState()
	if err != nil {
		return fmt.Errorf("loading pass state: %w", err)
	}
	if err := verifyStartIsReachable(state, startIdx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	var interrupted int32
	go func() {
		if _, ok := <-sigCh; ok {
			atomic.StoreInt32(&interrupted, 1)
		}
	}()

	for i := startIdx; i <= endIdx; i++ {
		spec := All[i]
		if atomic.LoadInt32(&interrupted) != 0 {
			return &Interrupted{Pass: spec.Name}
		}

		manager.BeginPass(spec.Name)
		for _, r := range spec.Reads {
			manager.DeclareRead(r)
		}
		for _, w := range spec.Writes {
			manager.DeclareWrite(w)
		}

		started := time.Now()
		p.ctx.Logger.StartPass(spec.Name)
		if err := spec.Run(p); err != nil {
			return fmt.Errorf("pass %q: %w", spec.Name, err)
		}
		p.ctx.Logger.CompletePass(spec.Name, time.Since(started))

		if err := manager.CompletePass(spec.Name); err != nil {
			return fmt.Errorf("persisting state after pass %q: %w", spec.Name, err)
		}
	}
	return nil
}

// verifyStartIsReachable enforces spec.md §4.11's "verify artifacts
// required by start exist and were produced by a completed earlier
// pass": every pass before startIdx must already be in the persisted
// completed-pass history, or --start names the very first pass.
func verifyStartIsReachable(state store.State, startIdx int) error {
	for i := 0; i < startIdx; i++ {
		if !state.HasCompleted(All[i].Name) {
			return fmt.Errorf("--start=%s requires pass %q to have completed first; rerun from the beginning or with a smaller --start", All[startIdx].Name, All[i].Name)
		}
	}
	return nil
}
