// Package symbols implements C6: classifying every CVS symbolic name
// as a Branch, a Tag, or Excluded, and choosing each branch's parent
// line of development, from the evidence package collect accumulated
// (spec.md §4.6).
package symbols

import (
	"sort"

	"github.com/esr-cvs/cvsconvert/config"
	"github.com/esr-cvs/cvsconvert/model"
	"github.com/esr-cvs/cvsconvert/rlog"
)

// Decision is C6's verdict for one symbol.
type Decision struct {
	Kind   model.SymbolKind
	Parent model.LODID // meaningful only when Kind == model.Branch
}

// Strategy applies spec.md §4.6's classification rules, in order:
//  1. an explicit --force-branch/--force-tag/--exclude override wins
//     outright, regardless of observed evidence;
//  2. unanimous evidence (seen only as a branch, or only as a tag)
//     classifies directly;
//  3. mixed evidence is a SymbolConflict in --symbol-strict mode, and
//     otherwise resolved by majority vote (ties favor Branch, since
//     misclassifying a branch as a tag silently drops history, the
//     more destructive of the two mistakes);
//  4. a symbol with no evidence at all (declared but never used) is
//     Excluded.
type Strategy struct {
	overrides map[string]config.SymbolOverride
	renames   map[string]string
	strict    bool
	logger    *rlog.Logger
}

// New builds a Strategy from already-validated Options.
func New(opts *config.Options, logger *rlog.Logger) *Strategy {
	overrides := make(map[string]config.SymbolOverride, len(opts.SymbolOverrides))
	for _, ov := range opts.SymbolOverrides {
		overrides[ov.Name] = ov
	}
	renames := make(map[string]string, len(opts.SymbolRenames))
	for _, r := range opts.SymbolRenames {
		renames[r.From] = r.To
	}
	return &Strategy{overrides: overrides, renames: renames, strict: opts.SymbolStrict, logger: logger}
}

// Rename returns name after any configured --symbol-rename rewrite.
func (s *Strategy) Rename(name string) string {
	if to, ok := s.renames[name]; ok {
		return to
	}
	return name
}

// Classify decides every symbol in syms, mutating each Symbol's Kind
// and (for branches) PreferredLOD in place, and returns the same
// verdicts keyed by SymbolID for callers that prefer not to touch the
// model objects directly.
func (s *Strategy) Classify(syms map[string]*model.Symbol, lods *model.LODStore) (map[model.SymbolID]*Decision, error) {
	decisions := make(map[model.SymbolID]*Decision, len(syms))
	for name, sym := range syms {
		d, err := s.classifyOne(name, sym, lods)
		if err != nil {
			return nil, err
		}
		sym.Kind = d.Kind
		if d.Kind == model.Branch {
			sym.PreferredLOD = d.Parent
		}
		decisions[sym.ID] = d
	}
	return decisions, nil
}

func (s *Strategy) classifyOne(name string, sym *model.Symbol, lods *model.LODStore) (*Decision, error) {
	if ov, ok := s.overrides[name]; ok {
		sym.Forced = true
		switch ov.Kind {
		case "branch":
			return &Decision{Kind: model.Branch, Parent: s.chooseParent(sym, lods)}, nil
		case "tag":
			return &Decision{Kind: model.Tag}, nil
		case "exclude":
			return &Decision{Kind: model.Excluded}, nil
		}
	}

	switch {
	case sym.BranchCount > 0 && sym.TagCount == 0:
		return &Decision{Kind: model.Branch, Parent: s.chooseParent(sym, lods)}, nil
	case sym.TagCount > 0 && sym.BranchCount == 0:
		return &Decision{Kind: model.Tag}, nil
	case sym.BranchCount > 0 && sym.TagCount > 0:
		if s.strict {
			return nil, &rlog.SymbolConflict{Symbol: name, AsBranch: sym.BranchCount, AsTag: sym.TagCount}
		}
		s.logger.Warn("mixed_evidence_symbol",
			"%q used as a branch in %d file(s) and a tag in %d file(s); resolving by majority vote",
			name, sym.BranchCount, sym.TagCount)
		if sym.BranchCount >= sym.TagCount {
			return &Decision{Kind: model.Branch, Parent: s.chooseParent(sym, lods)}, nil
		}
		return &Decision{Kind: model.Tag}, nil
	default:
		s.logger.Warn("unused_symbol", "%q was declared but never attached to a revision; excluding", name)
		return &Decision{Kind: model.Excluded}, nil
	}
}

// chooseParent picks the best-evidenced parent LOD for a branch
// symbol, applying spec.md §4.6 rule 4's tie-break: the LOD with the
// most votes wins; a tie prefers trunk, and failing that the
// lexicographically first LOD name.
func (s *Strategy) chooseParent(sym *model.Symbol, lods *model.LODStore) model.LODID {
	votes := sym.SortedParentVotes()
	if len(votes) == 0 {
		return model.TrunkLOD
	}
	top := votes[0].Count
	var tied []model.ParentCount
	for _, v := range votes {
		if v.Count == top {
			tied = append(tied, v)
		}
	}
	if len(tied) == 1 {
		return tied[0].Parent
	}
	for _, v := range tied {
		if v.Parent == model.TrunkLOD {
			return model.TrunkLOD
		}
	}
	sort.Slice(tied, func(i, j int) bool {
		return lodName(lods, tied[i].Parent) < lodName(lods, tied[j].Parent)
	})
	return tied[0].Parent
}

func lodName(lods *model.LODStore, id model.LODID) string {
	if lod := lods.Get(id); lod != nil {
		return lod.Name
	}
	return ""
}
