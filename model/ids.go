// Package model holds the entities of § 3 of the conversion spec: paths,
// projects, symbols, revisions, items, metadata, and changesets. Every
// cross-reference between entities is an integer id, never a pointer —
// in-memory graphs never survive a pass boundary (spec.md §3 "Ownership").
package model

import "sync"

// PathID identifies a CvsPath.
type PathID int32

// ProjectID identifies a Project.
type ProjectID int32

// SymbolID identifies a Symbol.
type SymbolID int32

// ItemID identifies any CvsRevision, CvsBranch, or CvsTag item.
type ItemID int64

// MetadataID identifies an interned (author, log) pair.
type MetadataID int32

// LODID identifies a line of development (trunk or a classified branch).
type LODID int32

// ChangesetID identifies a Changeset.
type ChangesetID int64

// TrunkLOD is the reserved LODID naming a project's trunk.
const TrunkLOD LODID = 0

// IDGenerator hands out densely increasing ids. A single instance is
// shared by one pass; concurrent workers each reserve a range with
// Reserve and number their own items without contention, mirroring
// reposurgeon's Safecounter but for bulk allocation rather than a
// single bump per call (spec.md §5 "Shared resources").
type IDGenerator struct {
	mu   sync.Mutex
	next int64
}

// NewIDGenerator returns a generator whose first id is start.
func NewIDGenerator(start int64) *IDGenerator {
	return &IDGenerator{next: start}
}

// Next returns the next single id.
func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next
	g.next++
	return id
}

// Reserve allocates a contiguous range of n ids and returns its first
// value; the caller numbers items [first, first+n) without further
// synchronization.
func (g *IDGenerator) Reserve(n int) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	first := g.next
	g.next += int64(n)
	return first
}
