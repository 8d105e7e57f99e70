package backend

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/esr-cvs/cvsconvert/commit"
	"github.com/esr-cvs/cvsconvert/model"
)

func init() { register(GitFastImport{}) }

// GitFastImport emits the documented git fast-import format (spec.md
// §6): one "blob" command per distinct content reference, one "commit"
// per revision changeset with "M"/"D" file ops against it, and a
// "reset" for every branch or tag changeset, since both are git refs
// created without a tree-copy the way an svn dump or bzr/hg equivalent
// would represent them (surgeon/inner.go's Commit/Blob split mirrors
// the same two-object shape; this package's own FileOp vocabulary is
// the one C10 built it from).
type GitFastImport struct{}

func (GitFastImport) Name() string    { return "git" }
func (GitFastImport) Capability() VCS { return vcsTable["git"] }

// commitWriter tracks the running mark allocator and per-ref head
// state a fast-import stream must thread across every record: marks
// are never reused, and "from"/"merge" only make sense relative to
// whatever mark most recently advanced a given ref.
type commitWriter struct {
	w        *bufio.Writer
	mark     int
	headMark map[string]int // ref -> mark of its current tip
	refOfLOD map[model.LODID]string
}

func (GitFastImport) Write(w io.Writer, records []*commit.Record, ctx *Context) error {
	cw := &commitWriter{
		w:        bufio.NewWriter(w),
		headMark: make(map[string]int),
		refOfLOD: map[model.LODID]string{},
	}

	trunk := ctx.Filtered.LODs.Trunk(ctx.Filtered.Project.ID)
	cw.refOfLOD[trunk.ID] = "refs/heads/master"

	for _, rec := range records {
		if isRefCreation(rec.Operations) {
			if err := cw.writeRefCreation(rec, ctx); err != nil {
				return err
			}
			continue
		}
		if err := cw.writeCommit(rec, ctx); err != nil {
			return err
		}
	}
	return cw.w.Flush()
}

// isRefCreation reports whether rec is a branch or tag changeset: C10
// always represents those as exactly one copy_path operation and
// nothing else (commit/synth.go's synthSymbolChangeset).
func isRefCreation(ops []commit.FileOp) bool {
	return len(ops) == 1 && ops[0].Kind == commit.OpCopyPath
}

// writeRefCreation turns a copy_path into a ref reset. A destination
// under the project's branch template names a LOD this package hasn't
// seen before; one under the tag template reuses an already-known LOD
// (commit/synth.go sets destLOD to the pre-existing source LOD for
// tags) and becomes a lightweight tag instead of a branch.
func (cw *commitWriter) writeRefCreation(rec *commit.Record, ctx *Context) error {
	op := rec.Operations[0]
	name := refLeaf(op.Path)

	if existingRef, known := cw.refOfLOD[rec.LOD]; known {
		// rec.LOD already has a ref: this is a tag, and its own LOD
		// never changes, so reuse whatever mark that ref is at.
		mark := cw.headMark[existingRef]
		fmt.Fprintf(cw.w, "reset refs/tags/%s\n", name)
		if mark != 0 {
			fmt.Fprintf(cw.w, "from :%d\n", mark)
		}
		return nil
	}

	// A new branch LOD: its source is whatever ref owns op.CopySource's
	// LOD. commit/synth.go resolves CopySource to the source LOD's root
	// path (e.g. "trunk"), so walk refOfLOD by matching ref leaf names
	// is unnecessary — the source LOD is always the project's trunk or
	// an already-registered branch, both already keyed in refOfLOD by
	// the time a later branch forks from them.
	sourceRef := cw.resolveSourceRef(op.CopySource, ctx)
	ref := "refs/heads/" + name
	cw.refOfLOD[rec.LOD] = ref
	mark := cw.headMark[sourceRef]
	fmt.Fprintf(cw.w, "reset %s\n", ref)
	if mark != 0 {
		fmt.Fprintf(cw.w, "from :%d\n", mark)
	}
	cw.headMark[ref] = mark
	return nil
}

func (cw *commitWriter) resolveSourceRef(copySource string, ctx *Context) string {
	if copySource == ctx.Filtered.Project.TrunkTemplate {
		return "refs/heads/master"
	}
	for lod, ref := range cw.refOfLOD {
		l := ctx.Filtered.LODs.Get(lod)
		if l != nil && !l.IsTrunk && fmt.Sprintf(ctx.Filtered.Project.BranchTemplate, l.Name) == copySource {
			return ref
		}
	}
	return "refs/heads/master"
}

func refLeaf(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// writeCommit emits one blob per add_file/change_file operation
// followed by one commit object referencing them, on the ref rec.LOD
// already owns (or refs/heads/master, for a project's very first
// commit on trunk before any ref has been reset).
func (cw *commitWriter) writeCommit(rec *commit.Record, ctx *Context) error {
	ref, ok := cw.refOfLOD[rec.LOD]
	if !ok {
		ref = "refs/heads/master"
		cw.refOfLOD[rec.LOD] = ref
	}

	type fileMark struct {
		path string
		mark int
	}
	var adds []fileMark
	var deletes []string
	for _, op := range rec.Operations {
		switch op.Kind {
		case commit.OpAddFile, commit.OpChangeFile:
			content, err := ctx.Synth.ContentByItem(op.Content)
			if err != nil {
				return err
			}
			cw.mark++
			blobMark := cw.mark
			fmt.Fprintf(cw.w, "blob\nmark :%d\ndata %d\n", blobMark, len(content))
			cw.w.Write(content)
			cw.w.WriteByte('\n')
			adds = append(adds, fileMark{path: stripLODRoot(ctx, rec.LOD, op.Path), mark: blobMark})
		case commit.OpDeleteFile:
			deletes = append(deletes, stripLODRoot(ctx, rec.LOD, op.Path))
		case commit.OpMkdir:
			// git has no directory objects; a later M/D under the
			// directory implies it, so nothing to emit here.
		}
	}

	meta := ctx.Filtered.Metadata.Get(rec.MetadataID)
	author, log := "unknown", ""
	if meta != nil {
		author, log = meta.Author, meta.Log
	}

	cw.mark++
	commitMark := cw.mark
	fmt.Fprintf(cw.w, "commit %s\n", ref)
	fmt.Fprintf(cw.w, "mark :%d\n", commitMark)
	fmt.Fprintf(cw.w, "committer %s <%s@local> %d +0000\n", author, author, rec.Timestamp)
	fmt.Fprintf(cw.w, "data %d\n%s\n", len(log), log)
	if parent := cw.headMark[ref]; parent != 0 {
		fmt.Fprintf(cw.w, "from :%d\n", parent)
	}
	for _, a := range adds {
		fmt.Fprintf(cw.w, "M 100644 :%d %s\n", a.mark, a.path)
	}
	for _, d := range deletes {
		fmt.Fprintf(cw.w, "D %s\n", d)
	}
	cw.w.WriteByte('\n')
	cw.headMark[ref] = commitMark
	return nil
}

// stripLODRoot removes the trunk/branches-<name> path prefix C10
// attaches for svn-shaped backends (commit/synth.go's
// lodRelativePath), since git addresses every path relative to the
// ref's own tree rather than prefixing it by line of development.
func stripLODRoot(ctx *Context, lod model.LODID, path string) string {
	l := ctx.Filtered.LODs.Get(lod)
	var root string
	if l == nil || l.IsTrunk {
		root = ctx.Filtered.Project.TrunkTemplate
	} else {
		root = fmt.Sprintf(ctx.Filtered.Project.BranchTemplate, l.Name)
	}
	return strings.TrimPrefix(strings.TrimPrefix(path, root), "/")
}
