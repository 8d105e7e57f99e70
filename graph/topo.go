package graph

import (
	"container/heap"

	"github.com/esr-cvs/cvsconvert/model"
	"github.com/esr-cvs/cvsconvert/rlog"
)

// idHeap is a min-heap of ChangesetIDs, giving Kahn's algorithm a
// deterministic tie-break: among several changesets simultaneously
// ready to commit, the lowest id (i.e. earliest produced by C8) goes
// first.
type idHeap []int64

func (h idHeap) Len() int            { return len(h) }
func (h idHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *idHeap) Push(x interface{}) { *h = append(*h, x.(int64)) }
func (h *idHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// topoSort returns store's changesets in a deterministic topological
// order via Kahn's algorithm (spec.md §4.9 step 4): it repeatedly
// commits the lowest-id changeset with no uncommitted predecessor,
// breaking ties the same way on every run regardless of map iteration
// order. It assumes breakCycles already made the predecessor relation
// acyclic; a cycle surviving that pass is reported as an error rather
// than silently dropped.
func topoSort(store *model.ChangesetStore) ([]*model.Changeset, error) {
	all := store.All()
	indegree := make(map[model.ChangesetID]int, len(all))
	dependents := make(map[model.ChangesetID][]model.ChangesetID, len(all))

	for _, cs := range all {
		if _, ok := indegree[cs.ID]; !ok {
			indegree[cs.ID] = 0
		}
		for _, pred := range cs.PredecessorIDs() {
			indegree[cs.ID]++
			dependents[pred] = append(dependents[pred], cs.ID)
		}
	}

	ready := &idHeap{}
	for _, cs := range all {
		if indegree[cs.ID] == 0 {
			heap.Push(ready, int64(cs.ID))
		}
	}

	ordered := make([]*model.Changeset, 0, len(all))
	for ready.Len() > 0 {
		id := model.ChangesetID(heap.Pop(ready).(int64))
		cs := store.Get(id)
		cs.Index = len(ordered)
		cs.Ordered = true
		ordered = append(ordered, cs)

		deps := append([]model.ChangesetID(nil), dependents[id]...)
		for i := 1; i < len(deps); i++ {
			j := i
			for j > 0 && deps[j] < deps[j-1] {
				deps[j-1], deps[j] = deps[j], deps[j-1]
				j--
			}
		}
		for _, dep := range deps {
			indegree[dep]--
			if indegree[dep] == 0 {
				heap.Push(ready, int64(dep))
			}
		}
	}

	if len(ordered) != len(all) {
		stuck := make([]int64, 0)
		for _, cs := range all {
			if !cs.Ordered {
				stuck = append(stuck, int64(cs.ID))
			}
		}
		return nil, &rlog.CycleUnresolved{Members: stuck}
	}
	return ordered, nil
}
