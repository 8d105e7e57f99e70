package filter

import (
	"testing"

	"github.com/esr-cvs/cvsconvert/collect"
	"github.com/esr-cvs/cvsconvert/model"
	"github.com/esr-cvs/cvsconvert/rlog"
	"github.com/esr-cvs/cvsconvert/symbols"
)

func newResult() *collect.Result {
	lods := model.NewLODStore()
	lods.Trunk(1)
	return &collect.Result{
		Project:  model.DefaultProject(1, 1),
		Paths:    model.NewPathStore(),
		Items:    make(map[model.PathID]*model.CvsFileItems),
		Metadata: model.NewMetadataStore(),
		Symbols:  make(map[string]*model.Symbol),
		LODs:     lods,
		Ids:      model.NewIDGenerator(100),
	}
}

func TestApplyDropsExcludedBranchRevisions(t *testing.T) {
	result := newResult()
	sym := model.NewSymbol(1, 1, "dead-branch")
	result.Symbols["dead-branch"] = sym
	branchLOD := result.LODs.NewBranch(1, sym.ID, "dead-branch", model.TrunkLOD)

	items := model.NewCvsFileItems(1)
	trunkRev := &model.CvsRevision{ID: 1, FileID: 1, Number: model.RevisionNumber{1, 1}, LOD: model.TrunkLOD}
	branchRev := &model.CvsRevision{ID: 2, FileID: 1, Number: model.RevisionNumber{1, 1, 2, 1}, LOD: branchLOD.ID}
	items.Revisions[1] = trunkRev
	items.Revisions[2] = branchRev
	branch := &model.CvsBranch{ID: 3, FileID: 1, SymbolID: sym.ID, SourceID: 1, NextRevID: 2, LOD: branchLOD.ID}
	items.Branches[3] = branch
	trunkRev.BranchOpenings = append(trunkRev.BranchOpenings, 3)
	result.Items[1] = items

	decisions := map[model.SymbolID]*symbols.Decision{sym.ID: {Kind: model.Excluded}}
	filtered, err := Apply(result, decisions, rlog.Default())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, ok := filtered.Items[1].Revisions[2]; ok {
		t.Error("excluded branch revision should have been dropped")
	}
	if _, ok := filtered.Items[1].Branches[3]; ok {
		t.Error("excluded branch item should have been dropped")
	}
	if len(filtered.Items[1].Revisions[1].BranchOpenings) != 0 {
		t.Error("trunk revision should no longer reference the dropped branch")
	}
	if !filtered.ExcludedLODs[branchLOD.ID] {
		t.Error("branch LOD should be recorded as excluded")
	}
}

func TestApplyReclassifiesBranchAsTag(t *testing.T) {
	result := newResult()
	sym := model.NewSymbol(1, 1, "actually-a-tag")
	result.Symbols["actually-a-tag"] = sym
	branchLOD := result.LODs.NewBranch(1, sym.ID, "actually-a-tag", model.TrunkLOD)

	items := model.NewCvsFileItems(1)
	trunkRev := &model.CvsRevision{ID: 1, FileID: 1, Number: model.RevisionNumber{1, 1}, LOD: model.TrunkLOD}
	items.Revisions[1] = trunkRev
	branch := &model.CvsBranch{ID: 3, FileID: 1, SymbolID: sym.ID, SourceID: 1, LOD: branchLOD.ID}
	items.Branches[3] = branch
	trunkRev.BranchOpenings = append(trunkRev.BranchOpenings, 3)
	result.Items[1] = items

	decisions := map[model.SymbolID]*symbols.Decision{sym.ID: {Kind: model.Tag}}
	filtered, err := Apply(result, decisions, rlog.Default())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, ok := filtered.Items[1].Branches[3]; ok {
		t.Error("reclassified branch item should be gone")
	}
	tag, ok := filtered.Items[1].Tags[3]
	if !ok {
		t.Fatal("expected a tag item to replace the branch item")
	}
	if tag.SourceID != 1 || tag.SymbolID != sym.ID {
		t.Errorf("tag = %+v, want SourceID=1 SymbolID=%d", tag, sym.ID)
	}
	if len(trunkRev.TagIDs) != 1 || trunkRev.TagIDs[0] != 3 {
		t.Errorf("trunkRev.TagIDs = %v, want [3]", trunkRev.TagIDs)
	}
}

func TestReconcileAncestryOrphansRevisionWithMissingParent(t *testing.T) {
	items := model.NewCvsFileItems(1)
	rev := &model.CvsRevision{ID: 2, FileID: 1, Number: model.RevisionNumber{1, 2}, LOD: model.TrunkLOD, ParentID: 1}
	items.Revisions[2] = rev // parent id 1 deliberately absent

	if err := reconcileAncestry(items, rlog.Default()); err != nil {
		t.Fatalf("reconcileAncestry: %v", err)
	}
	if rev.ParentID != 0 {
		t.Errorf("ParentID = %d, want 0 after orphaning", rev.ParentID)
	}
}
