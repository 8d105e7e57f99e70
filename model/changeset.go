package model

// ChangesetKind discriminates the Changeset subtypes of spec.md §3.
// Go has no sum types, so — in the spirit of reposurgeon's tagged
// CommitLike/FileOp unions (surgeon/inner.go) — a Changeset is one
// struct carrying a kind tag plus the fields relevant to that kind.
type ChangesetKind uint8

const (
	RevisionChangesetKind ChangesetKind = iota
	BranchChangesetKind
	TagChangesetKind
)

func (k ChangesetKind) String() string {
	switch k {
	case BranchChangesetKind:
		return "branch"
	case TagChangesetKind:
		return "tag"
	default:
		return "revision"
	}
}

// Changeset is an ordered set of item ids sharing an origin (spec.md §3).
type Changeset struct {
	ID   ChangesetID
	Kind ChangesetKind

	// ItemIDs are the CvsRevision ids (RevisionChangesetKind) or the
	// CvsBranch/CvsTag ids (Branch/TagChangesetKind) this changeset bundles.
	ItemIDs []ItemID

	// Populated for RevisionChangesetKind.
	MetadataID MetadataID
	LOD        LODID

	// Populated for Branch/TagChangesetKind.
	SymbolID SymbolID
	SourceLOD LODID

	Predecessors map[ChangesetID]bool

	// Index is filled in by C9 once the final topological order is fixed.
	Index     int
	Ordered   bool
}

// NewRevisionChangeset groups revision items committed together on one LOD.
func NewRevisionChangeset(id ChangesetID, metadata MetadataID, lod LODID, items []ItemID) *Changeset {
	return &Changeset{
		ID:           id,
		Kind:         RevisionChangesetKind,
		ItemIDs:      items,
		MetadataID:   metadata,
		LOD:          lod,
		Predecessors: make(map[ChangesetID]bool),
	}
}

// NewSymbolChangeset groups every opening (or closing) of symbol from
// sourceLOD into one Branch- or Tag-kind changeset.
func NewSymbolChangeset(id ChangesetID, kind ChangesetKind, symbol SymbolID, sourceLOD LODID, items []ItemID) *Changeset {
	return &Changeset{
		ID:           id,
		Kind:         kind,
		ItemIDs:      items,
		SymbolID:     symbol,
		SourceLOD:    sourceLOD,
		Predecessors: make(map[ChangesetID]bool),
	}
}

// AddPredecessor records that pred must precede this changeset in the
// final order (spec.md §4.8, §4.9).
func (c *Changeset) AddPredecessor(pred ChangesetID) {
	if pred == c.ID {
		return
	}
	c.Predecessors[pred] = true
}

// PredecessorIDs returns the predecessor set as a stable-ordered slice.
func (c *Changeset) PredecessorIDs() []ChangesetID {
	out := make([]ChangesetID, 0, len(c.Predecessors))
	for id := range c.Predecessors {
		out = append(out, id)
	}
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && out[j] < out[j-1] {
			out[j-1], out[j] = out[j], out[j-1]
			j--
		}
	}
	return out
}

// EdgeWeight classifies edges for C9's cycle-breaking tie-break: edges
// originating at a symbol changeset are lower weight than edges from a
// revision changeset (spec.md §4.9 step 3).
func (c *Changeset) EdgeWeight() int {
	if c.Kind == RevisionChangesetKind {
		return 1
	}
	return 0
}

// ChangesetStore is the keyed artifact produced by C8 and reordered by C9.
type ChangesetStore struct {
	byID map[ChangesetID]*Changeset
	next ChangesetID
}

// NewChangesetStore returns an empty store.
func NewChangesetStore() *ChangesetStore {
	return &ChangesetStore{byID: make(map[ChangesetID]*Changeset), next: 1}
}

// NextID allocates the next ChangesetID.
func (s *ChangesetStore) NextID() ChangesetID {
	id := s.next
	s.next++
	return id
}

// Add inserts a changeset, keyed by its own ID.
func (s *ChangesetStore) Add(c *Changeset) {
	s.byID[c.ID] = c
}

// Get resolves a ChangesetID.
func (s *ChangesetStore) Get(id ChangesetID) *Changeset {
	return s.byID[id]
}

// Remove deletes a changeset, used by C9's cycle splitting to retire a
// bundled RevisionChangeset once it has been replaced by per-file ones.
func (s *ChangesetStore) Remove(id ChangesetID) {
	delete(s.byID, id)
}

// All returns every changeset in undefined order; callers needing
// determinism should sort by ID or use the ordered sequence from C9.
func (s *ChangesetStore) All() []*Changeset {
	out := make([]*Changeset, 0, len(s.byID))
	for _, c := range s.byID {
		out = append(out, c)
	}
	return out
}

// Len returns the number of changesets in the store.
func (s *ChangesetStore) Len() int {
	return len(s.byID)
}
