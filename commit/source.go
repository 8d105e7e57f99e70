// Package commit implements C10: walking the ordered changeset store
// C9 produced and turning it into a stream of commit records, each a
// set of filesystem operations against a repository mirror (spec.md
// §4.10).
package commit

import (
	"fmt"
	"os"

	"github.com/esr-cvs/cvsconvert/model"
	"github.com/esr-cvs/cvsconvert/rcs"
)

// fileRevisionSource adapts one already-collected model.CvsFileItems
// plus the raw deltatext bodies re-read from its ",v" file into
// delta.RevisionSource. C5 only resolves ancestry and LOD structure;
// it deliberately never stores deltatext (by far the largest share of
// an RCS file's bytes) in the item store, so C10 re-opens the same
// file and pulls just the per-revision text it needs.
type fileRevisionSource struct {
	items   *model.CvsFileItems
	lods    *model.LODStore
	raw     map[model.ItemID][]byte   // SetRevisionInfo's text, by ItemID
	branchSource map[model.ItemID]model.ItemID // branch's first rev -> its sprouting revision
}

// newFileRevisionSource re-parses rcsPath, matching every admin
// revision number back to the ItemID items already assigned it.
func newFileRevisionSource(rcsPath string, items *model.CvsFileItems, lods *model.LODStore) (*fileRevisionSource, error) {
	numberToID := make(map[string]model.ItemID, len(items.Revisions))
	for id, rev := range items.Revisions {
		numberToID[rev.Number.String()] = id
	}

	fh, err := os.Open(rcsPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", rcsPath, err)
	}
	defer fh.Close()

	h := &textHandler{numberToID: numberToID, raw: make(map[model.ItemID][]byte)}
	parser := rcs.NewParser(fh)
	if err := rcs.ParseFile(rcsPath, parser, h); err != nil {
		return nil, err
	}

	branchSource := make(map[model.ItemID]model.ItemID)
	for _, b := range items.Branches {
		if b.NextRevID != 0 {
			branchSource[b.NextRevID] = b.SourceID
		}
	}

	return &fileRevisionSource{items: items, lods: lods, raw: h.raw, branchSource: branchSource}, nil
}

// textHandler implements rcs.Handler, keeping only the raw deltatext
// bytes of each revision (the topology is already resolved in
// model.CvsFileItems, so everything else the event stream reports is
// discarded here).
type textHandler struct {
	rcs.NullHandler
	numberToID map[string]model.ItemID
	raw        map[model.ItemID][]byte
}

func (h *textHandler) SetRevisionInfo(number string, _ string, text []byte) {
	if id, ok := h.numberToID[number]; ok {
		h.raw[id] = text
	}
}

func (s *fileRevisionSource) HeadID() int64 {
	return int64(s.items.HeadRevision)
}

func (s *fileRevisionSource) IsDead(id int64) bool {
	rev, ok := s.items.Revisions[model.ItemID(id)]
	return !ok || rev.State == model.StateDead
}

func (s *fileRevisionSource) FullText(head int64) ([]byte, error) {
	text, ok := s.raw[model.ItemID(head)]
	if !ok {
		return nil, fmt.Errorf("no deltatext recorded for head revision %d", head)
	}
	return text, nil
}

// Step returns the neighbor whose already-resolved text this
// revision's own deltatext composes with, and that deltatext itself.
// Trunk deltas are reverse diffs keyed to the newer (child) neighbor;
// branch deltas are forward diffs keyed to the older (parent, or the
// branch's sprouting revision on the parent LOD) neighbor (spec.md
// §4.2's materialization policy, already applied directionally by C5
// when it built ParentID/ChildrenID).
func (s *fileRevisionSource) Step(id int64) (int64, []byte, error) {
	itemID := model.ItemID(id)
	rev, ok := s.items.Revisions[itemID]
	if !ok {
		return 0, nil, fmt.Errorf("revision %d not found in this file's items", id)
	}
	body, ok := s.raw[itemID]
	if !ok {
		return 0, nil, fmt.Errorf("no deltatext recorded for revision %d", id)
	}

	lod := s.lods.Get(rev.LOD)
	if lod != nil && lod.IsTrunk {
		if len(rev.ChildrenID) == 0 {
			return 0, nil, fmt.Errorf("revision %d is not head but has no trunk child to resolve from", id)
		}
		return int64(rev.ChildrenID[0]), body, nil
	}

	if rev.IsFirstOnLOD() {
		source, ok := s.branchSource[itemID]
		if !ok {
			return 0, nil, fmt.Errorf("revision %d opens a branch with no recorded sprouting revision", id)
		}
		return int64(source), body, nil
	}
	return int64(rev.ParentID), body, nil
}
