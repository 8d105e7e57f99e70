package symbols

import (
	"testing"

	"github.com/esr-cvs/cvsconvert/config"
	"github.com/esr-cvs/cvsconvert/model"
	"github.com/esr-cvs/cvsconvert/rlog"
)

func newTestLODs() *model.LODStore {
	lods := model.NewLODStore()
	lods.Trunk(1)
	return lods
}

func TestClassifyUnanimousBranch(t *testing.T) {
	lods := newTestLODs()
	sym := model.NewSymbol(1, 1, "my-feature")
	sym.BranchCount = 3
	sym.Vote(model.TrunkLOD)
	sym.Vote(model.TrunkLOD)
	sym.Vote(model.TrunkLOD)

	s := New(config.Default(), rlog.Default())
	decisions, err := s.Classify(map[string]*model.Symbol{"my-feature": sym}, lods)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if decisions[1].Kind != model.Branch {
		t.Errorf("Kind = %v, want Branch", decisions[1].Kind)
	}
	if decisions[1].Parent != model.TrunkLOD {
		t.Errorf("Parent = %v, want TrunkLOD", decisions[1].Parent)
	}
	if sym.Kind != model.Branch {
		t.Errorf("sym.Kind not mutated in place: %v", sym.Kind)
	}
}

func TestClassifyUnanimousTag(t *testing.T) {
	lods := newTestLODs()
	sym := model.NewSymbol(1, 1, "REL-1-0")
	sym.TagCount = 5

	s := New(config.Default(), rlog.Default())
	decisions, err := s.Classify(map[string]*model.Symbol{"REL-1-0": sym}, lods)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if decisions[1].Kind != model.Tag {
		t.Errorf("Kind = %v, want Tag", decisions[1].Kind)
	}
}

func TestClassifyForceOverrideWins(t *testing.T) {
	lods := newTestLODs()
	sym := model.NewSymbol(1, 1, "REL-1-0")
	sym.TagCount = 5 // unanimous tag evidence

	opts := config.Default()
	opts.SymbolOverrides = []config.SymbolOverride{{Name: "REL-1-0", Kind: "branch"}}
	s := New(opts, rlog.Default())
	decisions, err := s.Classify(map[string]*model.Symbol{"REL-1-0": sym}, lods)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if decisions[1].Kind != model.Branch {
		t.Errorf("Kind = %v, want Branch (forced)", decisions[1].Kind)
	}
	if !sym.Forced {
		t.Error("sym.Forced = false, want true")
	}
}

func TestClassifyMixedEvidenceStrictConflict(t *testing.T) {
	lods := newTestLODs()
	sym := model.NewSymbol(1, 1, "ambiguous")
	sym.BranchCount = 2
	sym.TagCount = 1

	opts := config.Default()
	opts.SymbolStrict = true
	s := New(opts, rlog.Default())
	_, err := s.Classify(map[string]*model.Symbol{"ambiguous": sym}, lods)
	if err == nil {
		t.Fatal("expected a SymbolConflict error in strict mode")
	}
	if _, ok := err.(*rlog.SymbolConflict); !ok {
		t.Errorf("error type = %T, want *rlog.SymbolConflict", err)
	}
}

func TestClassifyMixedEvidenceMajorityVote(t *testing.T) {
	lods := newTestLODs()
	sym := model.NewSymbol(1, 1, "ambiguous")
	sym.BranchCount = 1
	sym.TagCount = 4

	s := New(config.Default(), rlog.Default())
	decisions, err := s.Classify(map[string]*model.Symbol{"ambiguous": sym}, lods)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if decisions[1].Kind != model.Tag {
		t.Errorf("Kind = %v, want Tag (4 tag votes beat 1 branch vote)", decisions[1].Kind)
	}
}

func TestClassifyUnusedSymbolExcluded(t *testing.T) {
	lods := newTestLODs()
	sym := model.NewSymbol(1, 1, "never-attached")

	s := New(config.Default(), rlog.Default())
	decisions, err := s.Classify(map[string]*model.Symbol{"never-attached": sym}, lods)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if decisions[1].Kind != model.Excluded {
		t.Errorf("Kind = %v, want Excluded", decisions[1].Kind)
	}
}

func TestChooseParentTieBreaksToTrunk(t *testing.T) {
	lods := newTestLODs()
	otherSym := model.SymbolID(99)
	otherLOD := lods.NewBranch(1, otherSym, "other-branch", model.TrunkLOD)

	sym := model.NewSymbol(1, 1, "nested")
	sym.BranchCount = 2
	sym.Vote(model.TrunkLOD)
	sym.Vote(otherLOD.ID)

	s := New(config.Default(), rlog.Default())
	decisions, err := s.Classify(map[string]*model.Symbol{"nested": sym}, lods)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if decisions[1].Parent != model.TrunkLOD {
		t.Errorf("Parent = %v, want TrunkLOD on a tied vote", decisions[1].Parent)
	}
}

func TestRename(t *testing.T) {
	opts := config.Default()
	opts.SymbolRenames = []config.SymbolRename{{From: "REL_1", To: "REL-1"}}
	s := New(opts, rlog.Default())
	if got := s.Rename("REL_1"); got != "REL-1" {
		t.Errorf("Rename(REL_1) = %q, want REL-1", got)
	}
	if got := s.Rename("untouched"); got != "untouched" {
		t.Errorf("Rename(untouched) = %q, want untouched", got)
	}
}
