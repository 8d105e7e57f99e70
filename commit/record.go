package commit

import "github.com/esr-cvs/cvsconvert/model"

// Record is one commit emitted for C12: the metadata and timestamp of
// one changeset plus the filesystem operations it requires (spec.md
// §4.10 "a stream of commit records {metadata_id, timestamp, operations[]}").
type Record struct {
	ChangesetID model.ChangesetID
	MetadataID  model.MetadataID
	Timestamp   int64
	LOD         model.LODID
	Operations  []FileOp
}
