package model

// SymbolKind is the eventual classification of a CVS symbolic name.
// Every Symbol starts Unclassified and, after C6 runs, becomes exactly
// one of Branch, Tag, or Excluded (spec.md §3).
type SymbolKind uint8

const (
	Unclassified SymbolKind = iota
	Branch
	Tag
	Excluded
)

func (k SymbolKind) String() string {
	switch k {
	case Branch:
		return "branch"
	case Tag:
		return "tag"
	case Excluded:
		return "excluded"
	default:
		return "unclassified"
	}
}

// ParentCount pairs a candidate parent LOD with the number of times it
// was observed as this symbol's source across all files.
type ParentCount struct {
	Parent LODID
	Count  int
}

// Symbol is a CVS symbolic name scoped to a project, together with the
// evidence C6 accumulates about it.
type Symbol struct {
	ID        SymbolID
	ProjectID ProjectID
	Name      string

	Kind         SymbolKind
	PreferredLOD LODID // meaningful only once Kind != Unclassified; trunk = TrunkLOD

	// Evidence, filled in by symbols.Collector during C5/C6.
	BranchCount int // # of files where this symbol roots a branch
	TagCount    int // # of files where this symbol is a plain tag
	CommitCount int // # of commits observed on this symbol, if used as a branch

	ParentVotes map[LODID]int // candidate parent LOD -> observation count

	Forced bool // true if a --force-branch/--force-tag/--exclude override applied
}

// NewSymbol returns a freshly collected, still-unclassified symbol.
func NewSymbol(id SymbolID, project ProjectID, name string) *Symbol {
	return &Symbol{
		ID:          id,
		ProjectID:   project,
		Name:        name,
		Kind:        Unclassified,
		ParentVotes: make(map[LODID]int),
	}
}

// Vote records one more observation of parent as this symbol's source LOD.
func (s *Symbol) Vote(parent LODID) {
	s.ParentVotes[parent]++
}

// SortedParentVotes returns ParentVotes as a slice ordered by count
// descending, then by LODID ascending — the tie-break spec.md §4.6
// rule 4 calls for ("trunk first, then lexicographic symbol name" is
// applied one level up, by symbols.Strategy, once LOD names are known).
func (s *Symbol) SortedParentVotes() []ParentCount {
	out := make([]ParentCount, 0, len(s.ParentVotes))
	for lod, n := range s.ParentVotes {
		out = append(out, ParentCount{Parent: lod, Count: n})
	}
	// Insertion sort is fine: the candidate-parent set per symbol is tiny.
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 {
			a, b := out[j-1], out[j]
			if a.Count < b.Count || (a.Count == b.Count && a.Parent > b.Parent) {
				out[j-1], out[j] = out[j], out[j-1]
				j--
				continue
			}
			break
		}
	}
	return out
}
