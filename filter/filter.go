// Package filter implements C7: applying C6's symbol classification
// decisions back onto the collected item graph — dropping excluded
// symbols and everything they rooted, reconciling branch/tag items
// whose classification flipped, and re-checking ancestry reachability
// once that pruning is done (spec.md §4.7).
package filter

import (
	"fmt"

	"github.com/esr-cvs/cvsconvert/collect"
	"github.com/esr-cvs/cvsconvert/model"
	"github.com/esr-cvs/cvsconvert/rlog"
	"github.com/esr-cvs/cvsconvert/symbols"
)

// Filtered is the post-classification item graph every later pass
// reads instead of collect.Result.
type Filtered struct {
	Project  *model.Project
	Paths    *model.PathStore
	Items    map[model.PathID]*model.CvsFileItems
	Metadata *model.MetadataStore
	Symbols  map[string]*model.Symbol
	LODs     *model.LODStore
	Ids      *model.IDGenerator

	// ExcludedLODs holds every LOD whose backing symbol was classified
	// Excluded; later passes must never emit a changeset referencing one.
	ExcludedLODs map[model.LODID]bool
}

// Apply filters result in place of spec.md §4.7's rewrite step,
// consulting decisions (C6's per-symbol verdicts) for every branch and
// tag item in every file.
func Apply(result *collect.Result, decisions map[model.SymbolID]*symbols.Decision, logger *rlog.Logger) (*Filtered, error) {
	excludedLODs := make(map[model.LODID]bool)
	for _, sym := range result.Symbols {
		if d, ok := decisions[sym.ID]; ok && d.Kind == model.Excluded {
			if lod, ok := result.LODs.BySymbol(sym.ID); ok {
				excludedLODs[lod] = true
			}
		}
	}

	for _, items := range result.Items {
		if err := filterFile(items, decisions, excludedLODs, logger); err != nil {
			return nil, err
		}
	}

	return &Filtered{
		Project:      result.Project,
		Paths:        result.Paths,
		Items:        result.Items,
		Metadata:     result.Metadata,
		Symbols:      result.Symbols,
		LODs:         result.LODs,
		Ids:          result.Ids,
		ExcludedLODs: excludedLODs,
	}, nil
}

func filterFile(items *model.CvsFileItems, decisions map[model.SymbolID]*symbols.Decision, excludedLODs map[model.LODID]bool, logger *rlog.Logger) error {
	// Drop every revision whose LOD belongs to an excluded symbol —
	// its history never existed in the converted repository.
	for id, rev := range items.Revisions {
		if excludedLODs[rev.LOD] {
			delete(items.Revisions, id)
		}
	}

	// Reconcile CvsBranch items: a branch symbol reclassified as Tag
	// becomes a tag on its source revision instead; Excluded drops it
	// outright (any revisions it rooted are already gone above).
	for id, branch := range items.Branches {
		d, ok := decisions[branch.SymbolID]
		if !ok {
			continue
		}
		switch d.Kind {
		case model.Excluded:
			delete(items.Branches, id)
			unlinkBranchOpening(items, branch.SourceID, id)
		case model.Tag:
			if _, stillThere := items.Revisions[branch.NextRevID]; stillThere {
				logger.Warn("reclassified_branch_had_commits",
					"branch symbol now classified as tag still had committed revisions on file %d; those revisions are dropped", items.FileID)
				for revID, rev := range items.Revisions {
					if rev.LOD == branch.LOD {
						delete(items.Revisions, revID)
					}
				}
			}
			delete(items.Branches, id)
			unlinkBranchOpening(items, branch.SourceID, id)
			tagID := branch.ID // reuse the id space; branch ids and tag ids are both ItemIDs
			items.Tags[tagID] = &model.CvsTag{ID: tagID, FileID: items.FileID, SymbolID: branch.SymbolID, SourceID: branch.SourceID}
			if src, ok := items.Revisions[branch.SourceID]; ok {
				src.TagIDs = append(src.TagIDs, tagID)
			}
		case model.Branch:
			// kept as-is
		}
	}

	// Drop tags whose symbol was excluded.
	for id, tag := range items.Tags {
		if d, ok := decisions[tag.SymbolID]; ok && d.Kind == model.Excluded {
			delete(items.Tags, id)
			if src, ok := items.Revisions[tag.SourceID]; ok {
				src.TagIDs = removeItemID(src.TagIDs, id)
			}
		}
	}

	return reconcileAncestry(items, logger)
}

func unlinkBranchOpening(items *model.CvsFileItems, sourceID, branchID model.ItemID) {
	if src, ok := items.Revisions[sourceID]; ok {
		src.BranchOpenings = removeItemID(src.BranchOpenings, branchID)
	}
}

func removeItemID(ids []model.ItemID, target model.ItemID) []model.ItemID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// reconcileAncestry re-checks every surviving revision's ParentID and
// ChildrenID against what's left after exclusion: a revision whose
// parent is gone becomes a new LOD root (spec.md §4.7 "orphan
// reachability"), and dangling child references are dropped.
func reconcileAncestry(items *model.CvsFileItems, logger *rlog.Logger) error {
	for _, rev := range items.Revisions {
		if rev.ParentID != 0 {
			if _, ok := items.Revisions[rev.ParentID]; !ok {
				logger.Warn("orphaned_revision",
					"file %d revision %s lost its parent to symbol exclusion; treating it as a new branch root",
					items.FileID, rev.Number)
				rev.ParentID = 0
			}
		}
		kept := rev.ChildrenID[:0]
		for _, childID := range rev.ChildrenID {
			if _, ok := items.Revisions[childID]; ok {
				kept = append(kept, childID)
			}
		}
		rev.ChildrenID = kept
	}
	if _, ok := items.Revisions[items.HeadRevision]; !ok && items.HeadRevision != 0 && len(items.Revisions) > 0 {
		return &rlog.ConsistencyError{
			File:   fmt.Sprintf("path#%d", items.FileID),
			Reason: "head revision was excluded but file still has surviving revisions",
		}
	}
	return nil
}
