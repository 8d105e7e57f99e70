package model

// LineOfDevelopment is either a project's trunk or a classified Branch
// symbol. Every CvsRevision belongs to exactly one (spec.md §3).
type LineOfDevelopment struct {
	ID        LODID
	ProjectID ProjectID
	SymbolID  SymbolID // 0 for trunk
	Name      string   // "trunk", or the branch's symbolic name
	ParentLOD LODID    // only meaningful for branches; trunk has no parent
	IsTrunk   bool
}

// LODStore tracks every line of development discovered for a project.
type LODStore struct {
	byID   map[LODID]*LineOfDevelopment
	bySym  map[SymbolID]LODID
	trunks map[ProjectID]LODID
	next   LODID
}

// NewLODStore returns an empty store. Trunk LODs are allocated lazily
// per project via Trunk.
func NewLODStore() *LODStore {
	return &LODStore{
		byID:   make(map[LODID]*LineOfDevelopment),
		bySym:  make(map[SymbolID]LODID),
		trunks: make(map[ProjectID]LODID),
		next:   1,
	}
}

// Trunk returns (creating if necessary) the trunk LOD of a project.
func (s *LODStore) Trunk(project ProjectID) *LineOfDevelopment {
	if id, ok := s.trunks[project]; ok {
		return s.byID[id]
	}
	id := TrunkLOD
	if len(s.trunks) > 0 {
		id = s.next
		s.next++
	}
	lod := &LineOfDevelopment{ID: id, ProjectID: project, Name: "trunk", IsTrunk: true}
	s.byID[id] = lod
	s.trunks[project] = id
	return lod
}

// NewBranch registers a branch LOD for a classified Branch symbol.
func (s *LODStore) NewBranch(project ProjectID, symbol SymbolID, name string, parent LODID) *LineOfDevelopment {
	id := s.next
	s.next++
	lod := &LineOfDevelopment{ID: id, ProjectID: project, SymbolID: symbol, Name: name, ParentLOD: parent}
	s.byID[id] = lod
	s.bySym[symbol] = id
	return lod
}

// Get resolves a LODID.
func (s *LODStore) Get(id LODID) *LineOfDevelopment {
	return s.byID[id]
}

// BySymbol resolves the LOD a classified branch symbol created, if any.
func (s *LODStore) BySymbol(symbol SymbolID) (LODID, bool) {
	id, ok := s.bySym[symbol]
	return id, ok
}
