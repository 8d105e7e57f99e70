package commit

import (
	"fmt"
	"sort"
	"time"

	"github.com/esr-cvs/cvsconvert/config"
	"github.com/esr-cvs/cvsconvert/delta"
	"github.com/esr-cvs/cvsconvert/filter"
	"github.com/esr-cvs/cvsconvert/keyword"
	"github.com/esr-cvs/cvsconvert/model"
)

// Synthesizer walks C9's ordered changeset sequence and emits one
// Record per changeset, maintaining the repository mirror spec.md
// §4.10 describes.
type Synthesizer struct {
	ctx            *config.RunContext
	f              *filter.Filtered
	mirror         *Mirror
	materializers  map[model.PathID]*delta.Materializer
	symByID        map[model.SymbolID]*model.Symbol
	fileByItem     map[model.ItemID]model.PathID
	pruneEmptyDirs bool
}

// New returns a Synthesizer over f, re-reading every ",v" file under
// cvsRoot to build each file's delta.Materializer (spec.md §4.2/§4.10;
// see fileRevisionSource's doc comment for why C10 re-opens these
// bytes rather than C5 carrying them forward).
func New(ctx *config.RunContext, f *filter.Filtered, cvsRoot string) (*Synthesizer, error) {
	staged, cleanup, err := stageSource(cvsRoot, ctx.StoreDir)
	if err != nil {
		return nil, fmt.Errorf("staging %s for commit synthesis: %w", cvsRoot, err)
	}
	defer cleanup()

	rcsPaths, err := resolveRCSPaths(staged, f.Paths, f.Items)
	if err != nil {
		return nil, err
	}

	materializers := make(map[model.PathID]*delta.Materializer, len(f.Items))
	for fileID, items := range f.Items {
		rcsPath, ok := rcsPaths[fileID]
		if !ok {
			return nil, fmt.Errorf("no RCS file found on disk for path id %d (%s)", fileID, f.Paths.FullPath(fileID))
		}
		src, err := newFileRevisionSource(rcsPath, items, f.LODs)
		if err != nil {
			return nil, fmt.Errorf("re-reading %s: %w", rcsPath, err)
		}
		materializers[fileID] = delta.NewMaterializer(src, ctx.Options.DeltaCacheBytes)
	}

	symByID := make(map[model.SymbolID]*model.Symbol, len(f.Symbols))
	for _, sym := range f.Symbols {
		symByID[sym.ID] = sym
	}

	s := &Synthesizer{
		ctx:            ctx,
		f:              f,
		mirror:         NewMirror(),
		materializers:  materializers,
		symByID:        symByID,
		pruneEmptyDirs: ctx.Options.PruneEmptyDirs,
	}
	_, s.fileByItem = s.indexRevisions()
	return s, nil
}

// Build produces one Record per changeset in ordered, which must
// already be C9's final, acyclic sequence (Changeset.Index set).
func (s *Synthesizer) Build(ordered []*model.Changeset) ([]*Record, error) {
	itemChangeset := make(map[model.ItemID]model.ChangesetID, len(ordered)*2)
	for _, cs := range ordered {
		for _, id := range cs.ItemIDs {
			itemChangeset[id] = cs.ID
		}
	}
	indexByChangeset := make(map[model.ChangesetID]int, len(ordered))
	for _, cs := range ordered {
		indexByChangeset[cs.ID] = cs.Index
	}

	revByItem, fileByItem := s.indexRevisions()
	branchByItem, tagByItem := s.indexSymbolItems()

	records := make([]*Record, 0, len(ordered))
	started := time.Now()
	s.ctx.Logger.StartPass("commit")
	s.ctx.Logger.Baton(fmt.Sprintf("synthesizing %d commits", len(ordered)))

	for _, cs := range ordered {
		var rec *Record
		var err error
		switch cs.Kind {
		case model.RevisionChangesetKind:
			rec, err = s.synthRevisionChangeset(cs, revByItem, fileByItem)
		case model.BranchChangesetKind:
			rec, err = s.synthSymbolChangeset(cs, branchByItem, tagByItem, itemChangeset, indexByChangeset, true)
		case model.TagChangesetKind:
			rec, err = s.synthSymbolChangeset(cs, branchByItem, tagByItem, itemChangeset, indexByChangeset, false)
		default:
			err = fmt.Errorf("changeset %d has unknown kind %v", cs.ID, cs.Kind)
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		s.ctx.Logger.Tick()
	}
	s.ctx.Logger.Done("commit synthesis finished")
	s.ctx.Logger.CompletePass("commit", time.Since(started))
	return records, nil
}

func (s *Synthesizer) indexRevisions() (map[model.ItemID]*model.CvsRevision, map[model.ItemID]model.PathID) {
	revByItem := make(map[model.ItemID]*model.CvsRevision)
	fileByItem := make(map[model.ItemID]model.PathID)
	for fileID, items := range s.f.Items {
		for id, rev := range items.Revisions {
			revByItem[id] = rev
			fileByItem[id] = fileID
		}
	}
	return revByItem, fileByItem
}

func (s *Synthesizer) indexSymbolItems() (map[model.ItemID]*model.CvsBranch, map[model.ItemID]*model.CvsTag) {
	branchByItem := make(map[model.ItemID]*model.CvsBranch)
	tagByItem := make(map[model.ItemID]*model.CvsTag)
	for _, items := range s.f.Items {
		for id, b := range items.Branches {
			branchByItem[id] = b
		}
		for id, t := range items.Tags {
			tagByItem[id] = t
		}
	}
	return branchByItem, tagByItem
}

// synthRevisionChangeset emits add_file/change_file/delete_file for
// every revision the changeset bundles, each against the mirror's
// current state for the changeset's LOD.
func (s *Synthesizer) synthRevisionChangeset(cs *model.Changeset, revByItem map[model.ItemID]*model.CvsRevision, fileByItem map[model.ItemID]model.PathID) (*Record, error) {
	items := append([]model.ItemID(nil), cs.ItemIDs...)
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })

	var ops []FileOp
	var timestamp int64
	for _, itemID := range items {
		rev, ok := revByItem[itemID]
		if !ok {
			return nil, fmt.Errorf("changeset %d references unknown revision item %d", cs.ID, itemID)
		}
		if rev.ResyncedTime > timestamp {
			timestamp = rev.ResyncedTime
		}
		fileID := fileByItem[itemID]
		path := lodRelativePath(s.f, cs.LOD, fileID)

		if rev.State == model.StateDead {
			if s.mirror.Has(cs.LOD, path) {
				ops = append(ops, FileOp{Kind: OpDeleteFile, Path: path})
				s.mirror.Remove(cs.LOD, path)
				s.maybePruneDir(cs.LOD, path, &ops)
			}
			continue
		}

		kind := OpAddFile
		if s.mirror.Has(cs.LOD, path) {
			kind = OpChangeFile
		}
		ops = append(ops, FileOp{Kind: kind, Path: path, Content: itemID})
		s.mirror.Add(cs.LOD, path)
	}

	return &Record{ChangesetID: cs.ID, MetadataID: cs.MetadataID, Timestamp: timestamp, LOD: cs.LOD, Operations: ops}, nil
}

// synthSymbolChangeset emits the single copy_path that creates a
// branch or tag (spec.md §4.10 "every branch is created via a copy
// from its chosen parent LOD at a specific source changeset index";
// "every tag is a copy ... and never modified thereafter").
func (s *Synthesizer) synthSymbolChangeset(cs *model.Changeset, branchByItem map[model.ItemID]*model.CvsBranch, tagByItem map[model.ItemID]*model.CvsTag, itemChangeset map[model.ItemID]model.ChangesetID, indexByChangeset map[model.ChangesetID]int, isBranch bool) (*Record, error) {
	sym, ok := s.symByID[cs.SymbolID]
	if !ok {
		return nil, fmt.Errorf("changeset %d names unknown symbol %d", cs.ID, cs.SymbolID)
	}

	var destRoot string
	var destLOD model.LODID
	if isBranch {
		lodID, ok := s.f.LODs.BySymbol(cs.SymbolID)
		if !ok {
			return nil, fmt.Errorf("branch changeset %d has no registered LOD for symbol %q", cs.ID, sym.Name)
		}
		destLOD = lodID
		destRoot = fmt.Sprintf(s.f.Project.BranchTemplate, sym.Name)
	} else {
		destLOD = cs.SourceLOD // tags don't own a LOD of their own; borrow the source for lookups that need one
		destRoot = fmt.Sprintf(s.f.Project.TagTemplate, sym.Name)
	}

	srcRoot := lodRoot(s.f, cs.SourceLOD)

	var sourceItemID model.ItemID
	if isBranch && len(cs.ItemIDs) > 0 {
		if b, ok := branchByItem[cs.ItemIDs[0]]; ok {
			sourceItemID = b.SourceID
		}
	} else if !isBranch && len(cs.ItemIDs) > 0 {
		if t, ok := tagByItem[cs.ItemIDs[0]]; ok {
			sourceItemID = t.SourceID
		}
	}
	sourceIndex := 0
	if srcCsID, ok := itemChangeset[sourceItemID]; ok {
		sourceIndex = indexByChangeset[srcCsID]
	}

	op := FileOp{Kind: OpCopyPath, Path: destRoot, CopySource: srcRoot, CopySourceIndex: sourceIndex}
	if isBranch {
		s.mirror.Fork(cs.SourceLOD, destLOD)
	}

	return &Record{ChangesetID: cs.ID, LOD: destLOD, Operations: []FileOp{op}}, nil
}

// ContentByItem resolves a FileOp's Content reference on its own: C12
// backends see only the ItemID a FileOp carries, never the PathID, so
// they cannot call Content directly without also tracking the item's
// owning file.
func (s *Synthesizer) ContentByItem(itemID model.ItemID) ([]byte, error) {
	fileID, ok := s.fileByItem[itemID]
	if !ok {
		return nil, fmt.Errorf("item %d belongs to no known file", itemID)
	}
	return s.Content(fileID, itemID)
}

// Content returns fileID's materialized text for itemID,
// keyword-expanded per the file's recorded expansion mode (spec.md
// §4.3, §4.10's "content refs ... possibly passed through C3"). C12
// backends call this lazily, once per FileOp.Content they actually
// need to write, rather than Build materializing every revision's
// text up front — the point of streaming C10 (spec.md §5 memory
// policy) is never holding more than one changeset's content in
// memory at a time.
func (s *Synthesizer) Content(fileID model.PathID, itemID model.ItemID) ([]byte, error) {
	mat := s.materializers[fileID]
	text, err := mat.Get(int64(itemID))
	if err != nil {
		return nil, fmt.Errorf("materializing item %d of file %d: %w", itemID, fileID, err)
	}
	if text == nil {
		return nil, nil
	}
	items := s.f.Items[fileID]
	rev := items.Revisions[itemID]
	info := keyword.Info{
		Path:     s.f.Paths.FullPath(fileID),
		Revision: rev.Number.String(),
		Date:     time.Unix(rev.ResyncedTime, 0).UTC(),
		State:    rev.State.String(),
	}
	if meta := s.f.Metadata.Get(rev.AuthorID); meta != nil {
		info.Author = meta.Author
	}
	return keyword.Expand(text, items.Expansion, info), nil
}

// maybePruneDir deletes dir (and any now-empty ancestor) once the file
// just removed from it was its last content, if the run was asked to
// (spec.md §4.10 "deletions of the last file in a directory optionally
// prune the directory"). Directory removal shares delete_file's op
// kind: spec.md's operation vocabulary draws no distinction between a
// file and directory target, matching how an svn dump's "delete"
// action addresses either.
func (s *Synthesizer) maybePruneDir(lod model.LODID, path string, ops *[]FileOp) {
	if !s.pruneEmptyDirs {
		return
	}
	dir := parentDir(path)
	for dir != "" && !s.mirror.HasAnyUnder(lod, dir) {
		*ops = append(*ops, FileOp{Kind: OpDeleteFile, Path: dir})
		dir = parentDir(dir)
	}
}

func parentDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return ""
}

func lodRoot(f *filter.Filtered, lod model.LODID) string {
	l := f.LODs.Get(lod)
	if l == nil || l.IsTrunk {
		return f.Project.TrunkTemplate
	}
	return fmt.Sprintf(f.Project.BranchTemplate, l.Name)
}

func lodRelativePath(f *filter.Filtered, lod model.LODID, fileID model.PathID) string {
	return lodRoot(f, lod) + "/" + f.Paths.FullPath(fileID)
}
