package commit

import "github.com/esr-cvs/cvsconvert/model"

// OpKind is a filesystem operation kind C12 backends translate into
// their own wire format (spec.md §4.10).
type OpKind uint8

const (
	OpMkdir OpKind = iota
	OpAddFile
	OpChangeFile
	OpDeleteFile
	OpCopyPath
	OpChangeProperty
)

func (k OpKind) String() string {
	switch k {
	case OpMkdir:
		return "mkdir"
	case OpAddFile:
		return "add_file"
	case OpChangeFile:
		return "change_file"
	case OpDeleteFile:
		return "delete_file"
	case OpCopyPath:
		return "copy_path"
	case OpChangeProperty:
		return "change_property"
	default:
		return "unknown"
	}
}

// FileOp is one filesystem operation attached to a CommitRecord.
type FileOp struct {
	Kind OpKind
	Path string

	// Populated for OpAddFile/OpChangeFile: the revision whose
	// materialized (and keyword-processed) text is this path's content.
	Content model.ItemID

	// Populated for OpCopyPath: the source path and the index (in C9's
	// final order) of the commit whose tree state is being copied.
	CopySource      string
	CopySourceIndex int

	// Populated for OpChangeProperty.
	PropKey   string
	PropValue string
}
