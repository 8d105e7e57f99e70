// Package changeset implements C8: grouping the per-file revisions,
// branch openings, and tag attachments that survived C7 into the
// changesets C9 will order into a commit graph (spec.md §4.8).
package changeset

import (
	"sort"

	"github.com/esr-cvs/cvsconvert/config"
	"github.com/esr-cvs/cvsconvert/filter"
	"github.com/esr-cvs/cvsconvert/model"
)

// Builder clusters filtered items into changesets.
type Builder struct {
	threshold int64 // seconds; spec.md §4.8 "commit_threshold"
}

// New returns a Builder using opts.CommitThreshold as its clustering window.
func New(opts *config.Options) *Builder {
	return &Builder{threshold: int64(opts.CommitThreshold)}
}

type candidate struct {
	rev    *model.CvsRevision
	fileID model.PathID
}

// Build produces every changeset for f: one RevisionChangeset per
// commit cluster, and one Branch/TagChangeset per surviving symbol.
func (b *Builder) Build(f *filter.Filtered) *model.ChangesetStore {
	store := model.NewChangesetStore()
	b.buildRevisionChangesets(f, store)
	b.buildSymbolChangesets(f, store)
	return store
}

// buildRevisionChangesets clusters same-LOD revisions sharing metadata
// into a sliding time window (spec.md §4.8): a revision joins the
// current cluster only if its metadata matches, its resynchronized
// time is within threshold seconds of the last revision admitted
// (boundary-inclusive), and its file hasn't already contributed a
// revision to this cluster — two near-simultaneous edits to the same
// file can never be the same CVS commit.
func (b *Builder) buildRevisionChangesets(f *filter.Filtered, store *model.ChangesetStore) {
	byLOD := make(map[model.LODID][]candidate)
	for fileID, items := range f.Items {
		for _, rev := range items.Revisions {
			byLOD[rev.LOD] = append(byLOD[rev.LOD], candidate{rev: rev, fileID: fileID})
		}
	}

	for lod, cands := range byLOD {
		sort.Slice(cands, func(i, j int) bool {
			if cands[i].rev.ResyncedTime != cands[j].rev.ResyncedTime {
				return cands[i].rev.ResyncedTime < cands[j].rev.ResyncedTime
			}
			if cands[i].fileID != cands[j].fileID {
				return cands[i].fileID < cands[j].fileID
			}
			return cands[i].rev.Number.Less(cands[j].rev.Number)
		})

		var cluster []candidate
		var clusterFiles map[model.PathID]bool
		flush := func() {
			if len(cluster) == 0 {
				return
			}
			items := make([]model.ItemID, len(cluster))
			for i, c := range cluster {
				items[i] = c.rev.ID
			}
			sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
			cs := model.NewRevisionChangeset(store.NextID(), cluster[0].rev.AuthorID, lod, items)
			store.Add(cs)
			cluster = nil
			clusterFiles = nil
		}

		var lastTime int64
		for _, c := range cands {
			fits := len(cluster) > 0 &&
				c.rev.AuthorID == cluster[0].rev.AuthorID &&
				c.rev.LogID == cluster[0].rev.LogID &&
				c.rev.ResyncedTime-lastTime <= b.threshold &&
				!clusterFiles[c.fileID]
			if !fits {
				flush()
			}
			if len(cluster) == 0 {
				clusterFiles = make(map[model.PathID]bool)
			}
			cluster = append(cluster, c)
			clusterFiles[c.fileID] = true
			lastTime = c.rev.ResyncedTime
		}
		flush()
	}
}

// symbolGroupKey identifies one BranchChangeset or TagChangeset: a
// single symbol as attached from a single source line of development.
// spec.md §4.8 requires "exactly one BranchChangeset per source LOD"
// (and, by the same rule, one TagChangeset per source LOD) — a symbol
// cut from two different LODs (e.g. a branch rooted independently on
// trunk in some files and on another branch in others) is two
// changesets, not one majority-vote changeset that mis-sources the
// minority files' copy_path.
type symbolGroupKey struct {
	symbol model.SymbolID
	source model.LODID
}

// buildSymbolChangesets emits one BranchChangeset per (symbol, source
// LOD) pair and one TagChangeset per (symbol, source LOD) pair,
// bundling every file's CvsBranch/CvsTag item that shares that pair
// (spec.md §4.8).
func (b *Builder) buildSymbolChangesets(f *filter.Filtered, store *model.ChangesetStore) {
	branches := make(map[symbolGroupKey][]model.ItemID)
	tags := make(map[symbolGroupKey][]model.ItemID)

	for _, items := range f.Items {
		for _, br := range items.Branches {
			src, ok := items.Revisions[br.SourceID]
			if !ok {
				continue
			}
			key := symbolGroupKey{symbol: br.SymbolID, source: src.LOD}
			branches[key] = append(branches[key], br.ID)
		}
		for _, tag := range items.Tags {
			src, ok := items.Revisions[tag.SourceID]
			if !ok {
				continue
			}
			key := symbolGroupKey{symbol: tag.SymbolID, source: src.LOD}
			tags[key] = append(tags[key], tag.ID)
		}
	}

	emit := func(groups map[symbolGroupKey][]model.ItemID, kind model.ChangesetKind) {
		keys := make([]symbolGroupKey, 0, len(groups))
		for k := range groups {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].symbol != keys[j].symbol {
				return keys[i].symbol < keys[j].symbol
			}
			return keys[i].source < keys[j].source
		})
		for _, k := range keys {
			items := groups[k]
			sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
			store.Add(model.NewSymbolChangeset(store.NextID(), kind, k.symbol, k.source, items))
		}
	}
	emit(branches, model.BranchChangesetKind)
	emit(tags, model.TagChangesetKind)
}
