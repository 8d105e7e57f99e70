package changeset

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/esr-cvs/cvsconvert/config"
	"github.com/esr-cvs/cvsconvert/filter"
	"github.com/esr-cvs/cvsconvert/model"
)

func newFiltered() *filter.Filtered {
	lods := model.NewLODStore()
	lods.Trunk(1)
	return &filter.Filtered{
		Project:      model.DefaultProject(1, 1),
		Paths:        model.NewPathStore(),
		Items:        make(map[model.PathID]*model.CvsFileItems),
		Metadata:     model.NewMetadataStore(),
		Symbols:      make(map[string]*model.Symbol),
		LODs:         lods,
		Ids:          model.NewIDGenerator(100),
		ExcludedLODs: make(map[model.LODID]bool),
	}
}

func TestBuildRevisionChangesetsGroupsWithinThreshold(t *testing.T) {
	f := newFiltered()
	meta := f.Metadata.Intern("alice", "fix the bug")

	itemsA := model.NewCvsFileItems(1)
	itemsA.Revisions[1] = &model.CvsRevision{ID: 1, FileID: 1, Number: model.RevisionNumber{1, 1}, LOD: model.TrunkLOD, AuthorID: meta, LogID: meta, ResyncedTime: 1000}
	f.Items[1] = itemsA

	itemsB := model.NewCvsFileItems(2)
	itemsB.Revisions[2] = &model.CvsRevision{ID: 2, FileID: 2, Number: model.RevisionNumber{1, 1}, LOD: model.TrunkLOD, AuthorID: meta, LogID: meta, ResyncedTime: 1050}
	f.Items[2] = itemsB

	opts := config.Default()
	opts.CommitThreshold = 300
	b := New(opts)
	store := b.Build(f)

	revisionChangesets := 0
	for _, cs := range store.All() {
		if cs.Kind == model.RevisionChangesetKind {
			revisionChangesets++
			if len(cs.ItemIDs) != 2 {
				t.Errorf("ItemIDs = %v, want both revisions grouped into one changeset", cs.ItemIDs)
			}
		}
	}
	if revisionChangesets != 1 {
		t.Errorf("got %d revision changesets, want 1", revisionChangesets)
	}
}

func TestBuildRevisionChangesetsSplitsOnSameFileCollision(t *testing.T) {
	f := newFiltered()
	meta := f.Metadata.Intern("alice", "fix the bug")

	items := model.NewCvsFileItems(1)
	items.Revisions[1] = &model.CvsRevision{ID: 1, FileID: 1, Number: model.RevisionNumber{1, 1}, LOD: model.TrunkLOD, AuthorID: meta, LogID: meta, ResyncedTime: 1000}
	items.Revisions[2] = &model.CvsRevision{ID: 2, FileID: 1, Number: model.RevisionNumber{1, 2}, LOD: model.TrunkLOD, AuthorID: meta, LogID: meta, ResyncedTime: 1010}
	f.Items[1] = items

	opts := config.Default()
	opts.CommitThreshold = 300
	b := New(opts)
	store := b.Build(f)

	revisionChangesets := 0
	for _, cs := range store.All() {
		if cs.Kind == model.RevisionChangesetKind {
			revisionChangesets++
		}
	}
	if revisionChangesets != 2 {
		t.Errorf("got %d revision changesets, want 2 (same-file collision must split)", revisionChangesets)
	}
}

func TestBuildRevisionChangesetsSplitsOutsideThreshold(t *testing.T) {
	f := newFiltered()
	meta := f.Metadata.Intern("alice", "fix the bug")

	itemsA := model.NewCvsFileItems(1)
	itemsA.Revisions[1] = &model.CvsRevision{ID: 1, FileID: 1, Number: model.RevisionNumber{1, 1}, LOD: model.TrunkLOD, AuthorID: meta, LogID: meta, ResyncedTime: 1000}
	f.Items[1] = itemsA

	itemsB := model.NewCvsFileItems(2)
	itemsB.Revisions[2] = &model.CvsRevision{ID: 2, FileID: 2, Number: model.RevisionNumber{1, 1}, LOD: model.TrunkLOD, AuthorID: meta, LogID: meta, ResyncedTime: 2000}
	f.Items[2] = itemsB

	opts := config.Default()
	opts.CommitThreshold = 300
	b := New(opts)
	store := b.Build(f)

	revisionChangesets := 0
	for _, cs := range store.All() {
		if cs.Kind == model.RevisionChangesetKind {
			revisionChangesets++
		}
	}
	if revisionChangesets != 2 {
		t.Errorf("got %d revision changesets, want 2 (1000s gap exceeds 300s threshold)", revisionChangesets)
	}
}

func TestBuildSymbolChangesetsGroupAcrossFiles(t *testing.T) {
	f := newFiltered()
	sym := model.NewSymbol(1, 1, "REL-1-0")
	f.Symbols["REL-1-0"] = sym

	itemsA := model.NewCvsFileItems(1)
	itemsA.Revisions[1] = &model.CvsRevision{ID: 1, FileID: 1, Number: model.RevisionNumber{1, 1}, LOD: model.TrunkLOD}
	itemsA.Tags[10] = &model.CvsTag{ID: 10, FileID: 1, SymbolID: sym.ID, SourceID: 1}
	f.Items[1] = itemsA

	itemsB := model.NewCvsFileItems(2)
	itemsB.Revisions[2] = &model.CvsRevision{ID: 2, FileID: 2, Number: model.RevisionNumber{1, 1}, LOD: model.TrunkLOD}
	itemsB.Tags[11] = &model.CvsTag{ID: 11, FileID: 2, SymbolID: sym.ID, SourceID: 2}
	f.Items[2] = itemsB

	b := New(config.Default())
	store := b.Build(f)

	tagChangesets := 0
	for _, cs := range store.All() {
		if cs.Kind == model.TagChangesetKind {
			tagChangesets++
			if len(cs.ItemIDs) != 2 {
				t.Errorf("TagChangeset.ItemIDs = %v, want both tag items bundled", cs.ItemIDs)
			}
			if cs.SourceLOD != model.TrunkLOD {
				t.Errorf("SourceLOD = %v, want TrunkLOD", cs.SourceLOD)
			}
		}
	}
	if tagChangesets != 1 {
		t.Errorf("got %d tag changesets, want 1 (one per symbol, not one per file)", tagChangesets)
	}
}

func TestBuildSymbolChangesetsSplitsBySourceLOD(t *testing.T) {
	f := newFiltered()
	sym := model.NewSymbol(1, 1, "REL-1-0")
	f.Symbols["REL-1-0"] = sym
	branchLOD := f.LODs.NewBranch(1, 99, "B", model.TrunkLOD)

	// File A's copy of REL-1-0 sprouts from trunk; file B's sprouts from
	// branch B — two distinct source LODs for the same symbol must stay
	// two changesets (spec.md §4.8), each copy_path-ed from its own
	// source, not collapsed into one majority-vote copy.
	itemsA := model.NewCvsFileItems(1)
	itemsA.Revisions[1] = &model.CvsRevision{ID: 1, FileID: 1, Number: model.RevisionNumber{1, 1}, LOD: model.TrunkLOD}
	itemsA.Branches[10] = &model.CvsBranch{ID: 10, FileID: 1, SymbolID: sym.ID, SourceID: 1}
	f.Items[1] = itemsA

	itemsB := model.NewCvsFileItems(2)
	itemsB.Revisions[2] = &model.CvsRevision{ID: 2, FileID: 2, Number: model.RevisionNumber{1, 1}, LOD: branchLOD.ID}
	itemsB.Branches[11] = &model.CvsBranch{ID: 11, FileID: 2, SymbolID: sym.ID, SourceID: 2}
	f.Items[2] = itemsB

	b := New(config.Default())
	store := b.Build(f)

	seenSources := make(map[model.LODID]int)
	branchChangesets := 0
	for _, cs := range store.All() {
		if cs.Kind == model.BranchChangesetKind {
			branchChangesets++
			seenSources[cs.SourceLOD]++
			if len(cs.ItemIDs) != 1 {
				t.Errorf("BranchChangeset.ItemIDs = %v, want exactly one item per source LOD", cs.ItemIDs)
			}
		}
	}
	assert.Equal(t, 2, branchChangesets, "want one branch changeset per distinct source LOD")
	assert.Equal(t, 1, seenSources[model.TrunkLOD], "want one changeset sourced from trunk")
	assert.Equal(t, 1, seenSources[branchLOD.ID], "want one changeset sourced from branch B")
}
