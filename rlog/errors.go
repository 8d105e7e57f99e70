package rlog

import (
	"fmt"

	"github.com/pkg/errors"
)

// ParseError reports a malformed RCS file (spec.md §7, C1). It always
// names the file and the byte offset parsing failed at.
type ParseError struct {
	File   string
	Offset int64
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Offset, e.Reason)
}

// ConsistencyError reports a self-contradictory revision tree (spec.md
// §7, C5/C7) — e.g. a revision number out of ancestry order, or a dead
// revision whose content diverges from its parent.
type ConsistencyError struct {
	File   string
	Reason string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: inconsistent revision tree: %s", e.File, e.Reason)
}

// SymbolConflict reports mixed branch/tag usage of one symbol name
// across files (spec.md §7, C6). Fatal only in strict mode.
type SymbolConflict struct {
	Symbol  string
	AsBranch int
	AsTag    int
}

func (e *SymbolConflict) Error() string {
	return fmt.Sprintf("symbol %q used as a branch in %d file(s) and as a tag in %d file(s)",
		e.Symbol, e.AsBranch, e.AsTag)
}

// CycleUnresolved reports a changeset-graph cycle that splitting and
// edge-breaking could not eliminate (spec.md §7, C9).
type CycleUnresolved struct {
	Members []int64 // ChangesetIDs, reported as int64 to keep this package model-free
}

func (e *CycleUnresolved) Error() string {
	return fmt.Sprintf("unresolved cycle among %d changeset(s)", len(e.Members))
}

// MirrorViolation reports a commit-synthesis operation inconsistent
// with the repository mirror's recorded state — always a logic bug
// upstream, not a data problem (spec.md §7, C10).
type MirrorViolation struct {
	Op     string
	Path   string
	Reason string
}

func (e *MirrorViolation) Error() string {
	return fmt.Sprintf("mirror violation during %s %s: %s", e.Op, e.Path, e.Reason)
}

// IOError wraps any filesystem error on inputs or artifacts (spec.md §7).
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("i/o error on %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Wrap attaches a stack trace to err for the top-level fatal report,
// the way rcowham's gitp4transfer leans on github.com/pkg/errors for
// its fatal paths.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, message)
}
