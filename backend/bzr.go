package backend

import (
	"io"

	"github.com/esr-cvs/cvsconvert/commit"
)

func init() { register(BzrFastImport{}) }

// BzrFastImport delegates to GitFastImport's encoding. surgeon/vcs.go
// records bzr's importer as "bzr fast-import -": the bzr-fast-import
// plugin is documented to consume the same stream git-fast-import
// does, so there is no separate byte-level format to produce here —
// the distinct Backend only exists so --output=bzr resolves to its own
// Capability (ignore file name, plugin requirement note).
type BzrFastImport struct{}

func (BzrFastImport) Name() string    { return "bzr" }
func (BzrFastImport) Capability() VCS { return vcsTable["bzr"] }

func (BzrFastImport) Write(w io.Writer, records []*commit.Record, ctx *Context) error {
	return GitFastImport{}.Write(w, records, ctx)
}
