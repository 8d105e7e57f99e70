package model

// CvsBranch represents the attachment of a branch Symbol at a specific
// CvsRevision: the point on the parent LOD where the branch sprouts.
type CvsBranch struct {
	ID         ItemID
	FileID     PathID
	SymbolID   SymbolID
	SourceID   ItemID // the CvsRevision this branch roots at
	NextRevID  ItemID // first revision on the branch, or 0 if the branch is empty
	LOD        LODID  // the newly created LOD this branch item introduces
}

// CvsTag represents the attachment of a tag Symbol at a specific CvsRevision.
type CvsTag struct {
	ID       ItemID
	FileID   PathID
	SymbolID SymbolID
	SourceID ItemID // the CvsRevision this tag marks
}

// ExpansionMode is an RCS keyword-substitution mode (spec.md §4.3).
type ExpansionMode uint8

const (
	ExpandPreserve ExpansionMode = iota // "o": keep bytes as stored
	ExpandKV                           // "kv": $Id: ... $
	ExpandKVL                          // "kvl": kv + locker
	ExpandK                            // "k": collapse to $Id$
	ExpandBinary                       // "b": never touched
	ExpandValueOnly                    // "v": value only, no keyword name
)

// ParseExpansionMode maps an RCS admin "expand" phrase to an ExpansionMode.
func ParseExpansionMode(s string) ExpansionMode {
	switch s {
	case "kv":
		return ExpandKV
	case "kvl":
		return ExpandKVL
	case "k":
		return ExpandK
	case "b":
		return ExpandBinary
	case "v":
		return ExpandValueOnly
	default:
		return ExpandPreserve
	}
}

// CvsFileItems holds every CvsRevision, CvsBranch, and CvsTag item for
// a single file, indexed by id, plus file-wide metadata (spec.md §3).
type CvsFileItems struct {
	FileID PathID

	Revisions map[ItemID]*CvsRevision
	Branches  map[ItemID]*CvsBranch
	Tags      map[ItemID]*CvsTag

	Expansion     ExpansionMode
	DefaultBranch RevisionNumber // RCS "branch" admin phrase, if set

	// HeadRevision is the admin "head" phrase: the newest trunk revision,
	// from which reverse-delta materialization starts (spec.md §4.2).
	HeadRevision ItemID
}

// NewCvsFileItems returns an empty items container for fileID.
func NewCvsFileItems(fileID PathID) *CvsFileItems {
	return &CvsFileItems{
		FileID:    fileID,
		Revisions: make(map[ItemID]*CvsRevision),
		Branches:  make(map[ItemID]*CvsBranch),
		Tags:      make(map[ItemID]*CvsTag),
	}
}

// RevisionsByLOD returns every revision on the given LOD, in ancestry order.
func (fi *CvsFileItems) RevisionsByLOD(lod LODID) []*CvsRevision {
	var out []*CvsRevision
	for _, r := range fi.Revisions {
		if r.LOD == lod {
			out = append(out, r)
		}
	}
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && out[j].Number.Less(out[j-1].Number) {
			out[j-1], out[j] = out[j], out[j-1]
			j--
		}
	}
	return out
}
