package passes

import (
	"fmt"
	"io"
	"testing"

	"github.com/esr-cvs/cvsconvert/config"
	"github.com/esr-cvs/cvsconvert/rlog"
	"github.com/esr-cvs/cvsconvert/store"
)

func testPipeline(t *testing.T) (*Pipeline, *store.Manager) {
	t.Helper()
	dir := t.TempDir()
	opts := config.Default()
	ctx := config.New(opts, rlog.New(io.Discard, "text"), dir)
	manager := store.NewManager(dir)
	return NewPipeline(ctx, manager, "/unused"), manager
}

func TestByNameResolvesRegisteredPasses(t *testing.T) {
	if ByName("collect") != 0 {
		t.Errorf("expected collect to be the first registered pass")
	}
	if ByName("commit") != len(All)-1 {
		t.Errorf("expected commit to be the last registered pass")
	}
	if ByName("no-such-pass") != -1 {
		t.Errorf("expected an unknown pass name to resolve to -1")
	}
}

func TestVerifyStartIsReachableAllowsFirstPass(t *testing.T) {
	if err := verifyStartIsReachable(store.State{}, 0); err != nil {
		t.Errorf("starting from pass 0 with no history should always be allowed: %v", err)
	}
}

func TestVerifyStartIsReachableRejectsSkippedPass(t *testing.T) {
	if err := verifyStartIsReachable(store.State{}, 2); err == nil {
		t.Error("expected an error when --start names a pass whose predecessors never ran")
	}
}

func TestVerifyStartIsReachableAcceptsCompletedHistory(t *testing.T) {
	st := store.State{CompletedPasses: []string{All[0].Name, All[1].Name}}
	if err := verifyStartIsReachable(st, 2); err != nil {
		t.Errorf("expected --start to be accepted once its predecessors are recorded complete: %v", err)
	}
}

func TestRunExecutesRegisteredSpecsInOrderAndPersistsState(t *testing.T) {
	p, manager := testPipeline(t)

	saved := All
	defer func() { All = saved }()

	var order []string
	All = []Spec{
		{Name: "a", Run: func(*Pipeline) error { order = append(order, "a"); return nil }},
		{Name: "b", Reads: []string{"a-out"}, Run: func(*Pipeline) error { order = append(order, "b"); return nil }},
		{Name: "c", Run: func(*Pipeline) error { order = append(order, "c"); return nil }},
	}

	if err := Run(p, "", ""); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fmt.Sprint(order) != "[a b c]" {
		t.Errorf("got order %v, want [a b c]", order)
	}

	st, err := manager.LoadState()
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if st.LastCompletedPass != "c" {
		t.Errorf("LastCompletedPass = %q, want c", st.LastCompletedPass)
	}
	for _, name := range []string{"a", "b", "c"} {
		if !st.HasCompleted(name) {
			t.Errorf("expected %q to be recorded complete", name)
		}
	}
}

func TestRunStopsAtEndPass(t *testing.T) {
	p, _ := testPipeline(t)

	saved := All
	defer func() { All = saved }()

	var order []string
	All = []Spec{
		{Name: "a", Run: func(*Pipeline) error { order = append(order, "a"); return nil }},
		{Name: "b", Run: func(*Pipeline) error { order = append(order, "b"); return nil }},
	}

	if err := Run(p, "", "a"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fmt.Sprint(order) != "[a]" {
		t.Errorf("got order %v, want [a] (Run must stop at --end)", order)
	}
}

func TestRunPropagatesPassFailure(t *testing.T) {
	p, _ := testPipeline(t)

	saved := All
	defer func() { All = saved }()

	failure := fmt.Errorf("boom")
	All = []Spec{
		{Name: "a", Run: func(*Pipeline) error { return failure }},
	}

	err := Run(p, "", "")
	if err == nil {
		t.Fatal("expected Run to propagate the failing pass's error")
	}
}
