package model

// CvsPath is an immutable identifier for a path in the source tree,
// directory or file. Paths form a tree rooted at the project root;
// once created in Pass 1 a CvsPath is never mutated (spec.md §3).
type CvsPath struct {
	ID       PathID
	ParentID PathID // 0 for the project root
	Basename string
	IsFile   bool
}

// PathStore holds every CvsPath created during collection, indexed by id.
// It is append-only: once a pass has committed it, later passes only read.
type PathStore struct {
	byID     map[PathID]*CvsPath
	children map[PathID][]PathID
	nextID   PathID
}

// NewPathStore returns an empty store whose root will be allocated with id 1.
func NewPathStore() *PathStore {
	return &PathStore{
		byID:     make(map[PathID]*CvsPath),
		children: make(map[PathID][]PathID),
		nextID:   1,
	}
}

// AddRoot registers the project root directory and returns its CvsPath.
func (s *PathStore) AddRoot(basename string) *CvsPath {
	p := &CvsPath{ID: s.nextID, ParentID: 0, Basename: basename, IsFile: false}
	s.nextID++
	s.byID[p.ID] = p
	return p
}

// Add registers a child of parent and returns its CvsPath. Calling Add
// twice for the same (parent, basename, isFile) is a caller bug: the
// collector is expected to memoize directory paths itself.
func (s *PathStore) Add(parent PathID, basename string, isFile bool) *CvsPath {
	p := &CvsPath{ID: s.nextID, ParentID: parent, Basename: basename, IsFile: isFile}
	s.nextID++
	s.byID[p.ID] = p
	s.children[parent] = append(s.children[parent], p.ID)
	return p
}

// Get resolves a PathID to its CvsPath, or nil if unknown.
func (s *PathStore) Get(id PathID) *CvsPath {
	return s.byID[id]
}

// FullPath reconstructs the slash-separated path of id relative to the
// project root (exclusive of the root's own basename).
func (s *PathStore) FullPath(id PathID) string {
	var parts []string
	for id != 0 {
		p := s.byID[id]
		if p == nil {
			break
		}
		if p.ParentID == 0 {
			break // root contributes no basename segment
		}
		parts = append([]string{p.Basename}, parts...)
		id = p.ParentID
	}
	joined := ""
	for i, part := range parts {
		if i > 0 {
			joined += "/"
		}
		joined += part
	}
	return joined
}

// Children returns the direct children of a directory path.
func (s *PathStore) Children(id PathID) []PathID {
	return s.children[id]
}

// Len returns the number of paths registered, including the root.
func (s *PathStore) Len() int {
	return len(s.byID)
}
