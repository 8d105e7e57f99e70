// Package graph implements C9: turning C8's changeset set into a
// single DAG by wiring predecessor edges, breaking any cycles that
// result, and emitting a deterministic topological order (spec.md §4.9).
package graph

import (
	"sort"

	"github.com/esr-cvs/cvsconvert/filter"
	"github.com/esr-cvs/cvsconvert/model"
	"github.com/esr-cvs/cvsconvert/rlog"
)

// Build wires every predecessor edge spec.md §4.9 requires:
//   - successive RevisionChangesets on the same LOD, in time order;
//   - a BranchChangeset precedes every RevisionChangeset on the LOD it
//     creates, and itself follows whatever changeset committed its
//     sprouting revision;
//   - a TagChangeset follows whatever changeset committed each
//     revision it tags.
//
// It then breaks any cycle the wiring produced and returns changesets
// in final commit order.
func Build(store *model.ChangesetStore, f *filter.Filtered, logger *rlog.Logger) ([]*model.Changeset, error) {
	itemTime := indexRevisionTimes(f)
	itemChangeset := indexRevisionChangesets(store)
	wireBranchPredecessors(store, f, itemChangeset)
	wireTagPredecessors(store, f, itemChangeset)
	wireSameLODOrdering(store, itemTime)

	if err := breakCycles(store, f, logger); err != nil {
		return nil, err
	}

	return topoSort(store)
}

// indexRevisionTimes maps every revision item to its resynchronized
// commit time, used to order same-LOD changesets deterministically.
func indexRevisionTimes(f *filter.Filtered) map[model.ItemID]int64 {
	itemTime := make(map[model.ItemID]int64)
	for _, items := range f.Items {
		for id, rev := range items.Revisions {
			itemTime[id] = rev.ResyncedTime
		}
	}
	return itemTime
}

// indexRevisionChangesets maps every revision item to the changeset it
// was clustered into.
func indexRevisionChangesets(store *model.ChangesetStore) map[model.ItemID]model.ChangesetID {
	itemChangeset := make(map[model.ItemID]model.ChangesetID)
	for _, cs := range store.All() {
		if cs.Kind != model.RevisionChangesetKind {
			continue
		}
		for _, id := range cs.ItemIDs {
			itemChangeset[id] = cs.ID
		}
	}
	return itemChangeset
}

func wireSameLODOrdering(store *model.ChangesetStore, itemTime map[model.ItemID]int64) {
	byLOD := make(map[model.LODID][]*model.Changeset)
	for _, cs := range store.All() {
		if cs.Kind == model.RevisionChangesetKind {
			byLOD[cs.LOD] = append(byLOD[cs.LOD], cs)
		}
	}
	for _, list := range byLOD {
		sort.Slice(list, func(i, j int) bool {
			ti, tj := earliestTime(list[i], itemTime), earliestTime(list[j], itemTime)
			if ti != tj {
				return ti < tj
			}
			return list[i].ID < list[j].ID
		})
		for i := 1; i < len(list); i++ {
			list[i].AddPredecessor(list[i-1].ID)
		}
	}
}

func earliestTime(cs *model.Changeset, itemTime map[model.ItemID]int64) int64 {
	best := int64(1<<63 - 1)
	found := false
	for _, id := range cs.ItemIDs {
		if t, ok := itemTime[id]; ok && (!found || t < best) {
			best, found = t, true
		}
	}
	if !found {
		return int64(cs.ID) // stable, arbitrary fallback if no revision items were indexed
	}
	return best
}

// branchesByItem indexes every CvsBranch item across every file by its
// item id, for O(1) lookup of the branch a given item represents.
func branchesByItem(f *filter.Filtered) map[model.ItemID]*model.CvsBranch {
	byID := make(map[model.ItemID]*model.CvsBranch)
	for _, items := range f.Items {
		for id, b := range items.Branches {
			byID[id] = b
		}
	}
	return byID
}

// tagsByItem indexes every CvsTag item across every file by its item id.
func tagsByItem(f *filter.Filtered) map[model.ItemID]*model.CvsTag {
	byID := make(map[model.ItemID]*model.CvsTag)
	for _, items := range f.Items {
		for id, tag := range items.Tags {
			byID[id] = tag
		}
	}
	return byID
}

// wireBranchPredecessors makes every BranchChangeset follow whatever
// changeset committed its sprouting revision(s), and makes every
// RevisionChangeset on the branch's own new LOD follow the branch's
// creation.
func wireBranchPredecessors(store *model.ChangesetStore, f *filter.Filtered, itemChangeset map[model.ItemID]model.ChangesetID) {
	branchByID := branchesByItem(f)

	for _, cs := range store.All() {
		if cs.Kind != model.BranchChangesetKind {
			continue
		}
		newLOD, ok := f.LODs.BySymbol(cs.SymbolID)
		if !ok {
			continue
		}
		for _, itemID := range cs.ItemIDs {
			b, ok := branchByID[itemID]
			if !ok {
				continue
			}
			if pred, ok := itemChangeset[b.SourceID]; ok {
				cs.AddPredecessor(pred)
			}
		}
		for _, other := range store.All() {
			if other.Kind == model.RevisionChangesetKind && other.LOD == newLOD {
				other.AddPredecessor(cs.ID)
			}
		}
	}
}

// wireTagPredecessors makes every TagChangeset follow whatever
// changeset committed each revision it tags.
func wireTagPredecessors(store *model.ChangesetStore, f *filter.Filtered, itemChangeset map[model.ItemID]model.ChangesetID) {
	tagByID := tagsByItem(f)
	for _, cs := range store.All() {
		if cs.Kind != model.TagChangesetKind {
			continue
		}
		for _, itemID := range cs.ItemIDs {
			tag, ok := tagByID[itemID]
			if !ok {
				continue
			}
			if pred, ok := itemChangeset[tag.SourceID]; ok {
				cs.AddPredecessor(pred)
			}
		}
	}
}
