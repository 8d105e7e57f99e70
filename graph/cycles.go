package graph

import (
	"fmt"
	"sort"

	difflib "github.com/ianbruene/go-difflib/difflib"

	"github.com/esr-cvs/cvsconvert/filter"
	"github.com/esr-cvs/cvsconvert/model"
	"github.com/esr-cvs/cvsconvert/rlog"
)

// breakCycles repeatedly finds a cycle in store's predecessor edges and
// resolves it, until the graph is acyclic. Per spec.md §4.9, each cycle
// is resolved in two steps: first try splitting a multi-item
// RevisionChangeset in the cycle at a file boundary (step 2); only if
// no split exists, fall back to removing the cycle's lightest edge
// (step 3, via Changeset.EdgeWeight). It gives up after
// len(changesets)+1 rounds, which bounds the number of edges that can
// ever need breaking.
func breakCycles(store *model.ChangesetStore, f *filter.Filtered, logger *rlog.Logger) error {
	rounds := store.Len() + 1
	for round := 0; round < rounds; round++ {
		all := store.All()
		cycle := findCycle(all)
		if cycle == nil {
			return nil
		}
		if diff, ok := trySplit(store, f, cycle); ok {
			logger.Warn("cycle_split", "split a bundled revision changeset at a file boundary to resolve a changeset cycle:\n%s", diff)
			continue
		}
		pred, cur := lightestEdge(store, cycle)
		if pred == 0 {
			return &rlog.CycleUnresolved{Members: changesetIDs64(cycle)}
		}
		delete(store.Get(cur).Predecessors, pred)
		logger.Warn("cycle_broken", "broke predecessor edge %d -> %d to resolve a changeset cycle", pred, cur)
	}
	return &rlog.CycleUnresolved{Members: changesetIDs64(findCycle(store.All()))}
}

// trySplit looks for a multi-item RevisionChangeset participating in
// cycle that can be broken apart at a file boundary (spec.md §4.9 step
// 2, and the concrete scenario of spec.md §8 #4). CVS has no atomic
// commit record, so a clustered RevisionChangeset bundling several
// files' revisions (spec.md §4.8) is only ever an inferred guess; when
// that guess creates a dependency cycle — a downstream tag or branch
// changeset needs one bundled file's revision to precede it, while the
// bundle as a whole is forced to follow that same downstream changeset
// because of a different file sharing the bundle — splitting the
// bundle into one changeset per file and re-deriving each file's own
// predecessors can resolve the cycle without discarding any edge.
// trySplit splits the first multi-item RevisionChangeset it finds in
// cycle without checking that the split removes the cycle;
// breakCycles searches for a cycle again afterwards.
func trySplit(store *model.ChangesetStore, f *filter.Filtered, cycle []model.ChangesetID) (string, bool) {
	for _, id := range cycle {
		cs := store.Get(id)
		if cs == nil || cs.Kind != model.RevisionChangesetKind || len(cs.ItemIDs) < 2 {
			continue
		}
		if diff, ok := splitRevisionChangeset(store, f, cs); ok {
			return diff, true
		}
	}
	return "", false
}

// splitRevisionChangeset replaces cs with one singleton RevisionChangeset
// per item it bundled, ordered chronologically exactly as
// wireSameLODOrdering would have ordered them had they never been
// clustered together, then redirects every edge that named cs:
//   - edges cs itself held (its own same-LOD predecessor, or the branch
//     changeset that created cs.LOD) are inherited by the earliest
//     singleton;
//   - a downstream Tag/BranchChangeset whose source item belonged to
//     cs is redirected to the singleton that now owns that specific
//     item, not to the bundle as a whole;
//   - any other downstream changeset (ordinary same-LOD succession) is
//     redirected to the latest singleton, preserving "follows the
//     whole bundle" semantics for edges that were never file-specific.
func splitRevisionChangeset(store *model.ChangesetStore, f *filter.Filtered, cs *model.Changeset) (string, bool) {
	if len(cs.ItemIDs) < 2 {
		return "", false
	}
	before := []string{fmt.Sprintf("changeset %d: items %v\n", cs.ID, cs.ItemIDs)}

	itemTime := indexRevisionTimes(f)
	items := append([]model.ItemID(nil), cs.ItemIDs...)
	sort.Slice(items, func(i, j int) bool {
		ti, tj := itemTime[items[i]], itemTime[items[j]]
		if ti != tj {
			return ti < tj
		}
		return items[i] < items[j]
	})

	singles := make([]*model.Changeset, len(items))
	itemToSingleton := make(map[model.ItemID]model.ChangesetID, len(items))
	for i, itemID := range items {
		nc := model.NewRevisionChangeset(store.NextID(), cs.MetadataID, cs.LOD, []model.ItemID{itemID})
		if i == 0 {
			for pred := range cs.Predecessors {
				nc.AddPredecessor(pred)
			}
		} else {
			nc.AddPredecessor(singles[i-1].ID)
		}
		singles[i] = nc
		itemToSingleton[itemID] = nc.ID
	}

	branchByItem := branchesByItem(f)
	tagByItem := tagsByItem(f)
	last := singles[len(singles)-1].ID

	for _, other := range store.All() {
		if other.ID == cs.ID || !other.Predecessors[cs.ID] {
			continue
		}
		delete(other.Predecessors, cs.ID)
		other.AddPredecessor(redirectTarget(other, itemToSingleton, branchByItem, tagByItem, last))
	}

	for _, nc := range singles {
		store.Add(nc)
	}
	store.Remove(cs.ID)

	after := make([]string, len(singles))
	for i, nc := range singles {
		after[i] = fmt.Sprintf("changeset %d: item %v\n", nc.ID, nc.ItemIDs[0])
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        before,
		B:        after,
		FromFile: "bundled",
		ToFile:   "split",
		Context:  3,
	})
	return diff, true
}

// redirectTarget picks which singleton a formerly-cs-pointing edge from
// other should now point to: the singleton owning other's specific
// source item, if other names one (Tag/BranchChangeset), else the
// bundle's chronologically last singleton.
func redirectTarget(other *model.Changeset, itemToSingleton map[model.ItemID]model.ChangesetID, branchByItem map[model.ItemID]*model.CvsBranch, tagByItem map[model.ItemID]*model.CvsTag, fallback model.ChangesetID) model.ChangesetID {
	switch other.Kind {
	case model.BranchChangesetKind:
		for _, itemID := range other.ItemIDs {
			if b, ok := branchByItem[itemID]; ok {
				if sid, ok := itemToSingleton[b.SourceID]; ok {
					return sid
				}
			}
		}
	case model.TagChangesetKind:
		for _, itemID := range other.ItemIDs {
			if tag, ok := tagByItem[itemID]; ok {
				if sid, ok := itemToSingleton[tag.SourceID]; ok {
					return sid
				}
			}
		}
	}
	return fallback
}

// findCycle returns the changeset IDs making up one cycle, or nil if
// the graph is currently acyclic. Visit order is stabilized by sorting
// changesets by ID first, so which cycle is found (when several exist)
// is deterministic across runs.
func findCycle(all []*model.Changeset) []model.ChangesetID {
	byID := make(map[model.ChangesetID]*model.Changeset, len(all))
	ids := make([]model.ChangesetID, 0, len(all))
	for _, cs := range all {
		byID[cs.ID] = cs
		ids = append(ids, cs.ID)
	}
	insertionSortIDs(ids)

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[model.ChangesetID]int, len(all))
	var stack []model.ChangesetID

	var visit func(id model.ChangesetID) []model.ChangesetID
	visit = func(id model.ChangesetID) []model.ChangesetID {
		color[id] = gray
		stack = append(stack, id)
		preds := byID[id].PredecessorIDs()
		for _, p := range preds {
			switch color[p] {
			case white:
				if cyc := visit(p); cyc != nil {
					return cyc
				}
			case gray:
				// Found a back-edge: extract the cycle from the stack.
				start := 0
				for i, s := range stack {
					if s == p {
						start = i
						break
					}
				}
				out := append([]model.ChangesetID(nil), stack[start:]...)
				return out
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}

	for _, id := range ids {
		if color[id] == white {
			if cyc := visit(id); cyc != nil {
				return cyc
			}
		}
	}
	return nil
}

// lightestEdge picks, among the edges forming cycle, the one whose
// source changeset has the lowest EdgeWeight — a symbol changeset's
// outgoing edge is preferred over a revision changeset's.
func lightestEdge(store *model.ChangesetStore, cycle []model.ChangesetID) (pred, cur model.ChangesetID) {
	bestWeight := int(1<<63 - 1)
	for i, id := range cycle {
		// findCycle lists each member before its predecessor.
		predID := cycle[(i+1)%len(cycle)]
		curCs := store.Get(id)
		if curCs == nil || !curCs.Predecessors[predID] {
			continue
		}
		predCs := store.Get(predID)
		if predCs == nil {
			continue
		}
		if w := predCs.EdgeWeight(); w < bestWeight {
			bestWeight, pred, cur = w, predID, id
		}
	}
	return pred, cur
}

func changesetIDs64(cycle []model.ChangesetID) []int64 {
	out := make([]int64, len(cycle))
	for i, id := range cycle {
		out[i] = int64(id)
	}
	return out
}

func insertionSortIDs(ids []model.ChangesetID) {
	for i := 1; i < len(ids); i++ {
		j := i
		for j > 0 && ids[j] < ids[j-1] {
			ids[j-1], ids[j] = ids[j], ids[j-1]
			j--
		}
	}
}
