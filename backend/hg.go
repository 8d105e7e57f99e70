package backend

import (
	"io"

	"github.com/esr-cvs/cvsconvert/commit"
)

func init() { register(HgFastImport{}) }

// HgFastImport delegates to GitFastImport's encoding. surgeon/vcs.go
// records hg's importer as "hg-git-fast-import", which ingests a git
// fast-import stream and replays it onto a Mercurial repository via
// the hg-git bridge; as with bzr there is no separate wire format to
// produce, only a distinct Capability (no "master" rename notes
// needed here since this package never inspects branch names at
// import time the way reposurgeon's interactive reader does).
type HgFastImport struct{}

func (HgFastImport) Name() string    { return "hg" }
func (HgFastImport) Capability() VCS { return vcsTable["hg"] }

func (HgFastImport) Write(w io.Writer, records []*commit.Record, ctx *Context) error {
	return GitFastImport{}.Write(w, records, ctx)
}
