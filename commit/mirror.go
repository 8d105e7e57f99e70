package commit

import (
	"strings"

	"github.com/esr-cvs/cvsconvert/model"
)

// Mirror is the repository mirror C10 maintains while walking the
// ordered changeset store: a per-LOD snapshot of which file paths
// currently exist, used to decide add vs. change vs. delete and to
// seed a new LOD by copying its parent's current tree (spec.md §4.10).
type Mirror struct {
	lods map[model.LODID]map[string]bool // relative path -> present, per LOD
}

// NewMirror returns an empty mirror.
func NewMirror() *Mirror {
	return &Mirror{lods: make(map[model.LODID]map[string]bool)}
}

func (m *Mirror) tree(lod model.LODID) map[string]bool {
	t, ok := m.lods[lod]
	if !ok {
		t = make(map[string]bool)
		m.lods[lod] = t
	}
	return t
}

// Has reports whether path currently exists on lod.
func (m *Mirror) Has(lod model.LODID, path string) bool {
	return m.tree(lod)[path]
}

// Add records path as present on lod (add_file or a copy bringing it in).
func (m *Mirror) Add(lod model.LODID, path string) {
	m.tree(lod)[path] = true
}

// Remove records path as absent from lod (delete_file).
func (m *Mirror) Remove(lod model.LODID, path string) {
	delete(m.tree(lod), path)
}

// Fork copies parent's entire current tree onto child, as a branch or
// tag creation does (spec.md §4.10 "every branch is created via a copy
// from its chosen parent LOD").
func (m *Mirror) Fork(parent, child model.LODID) {
	src := m.tree(parent)
	dst := m.tree(child)
	for path := range src {
		dst[path] = true
	}
}

// HasAnyUnder reports whether any path on lod still lives under dir
// (dir with no trailing slash), used to decide whether a directory
// left empty by a delete should be pruned.
func (m *Mirror) HasAnyUnder(lod model.LODID, dir string) bool {
	prefix := dir + "/"
	for path := range m.tree(lod) {
		if path == dir || strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
