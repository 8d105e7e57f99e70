// Package backend implements C12: "consume the commit sequence; emit
// target-specific stream" (spec.md §4, listed there as an interface
// only). It defines the Backend contract every --output target
// implements, plus one concrete implementation per target named in
// spec.md §6 ("Outputs"): a git fast-import stream built directly from
// the documented format, and Bazaar/Mercurial equivalents that reuse
// it verbatim because both targets' own import tooling is documented
// to accept that exact stream (surgeon/vcs.go's bzr and hg entries
// name "bzr fast-import -" and "hg-git-fast-import" as their
// importers). The svn backend instead emits the Subversion dump format
// v3 directly, since svn has no fast-import equivalent.
package backend

import (
	"io"

	"github.com/esr-cvs/cvsconvert/commit"
	"github.com/esr-cvs/cvsconvert/filter"
)

// Context bundles everything a Backend needs to translate C10's commit
// records into bytes: the filtered project state every record's IDs
// resolve against, and the Synthesizer that lazily materializes each
// FileOp's content. Backends call ContentByItem once per add_file or
// change_file operation they actually write, never up front — the same
// streaming discipline spec.md §5 asks of C10 itself extends to its
// one consumer.
type Context struct {
	Filtered *filter.Filtered
	Synth    *commit.Synthesizer
}

// Backend is C12. Exactly one is selected per run via --output.
type Backend interface {
	// Name is the --output value this Backend answers to.
	Name() string

	// Capability describes the target's own conventions: where it
	// keeps metadata, what it calls its ignore file, what external
	// tool is documented to ingest this package's stream.
	Capability() VCS

	// Write emits records, in order, as one self-contained stream to w.
	Write(w io.Writer, records []*commit.Record, ctx *Context) error
}

var registry = map[string]Backend{}

func register(b Backend) { registry[b.Name()] = b }

// Lookup resolves an --output value to its Backend.
func Lookup(name string) (Backend, bool) {
	b, ok := registry[name]
	return b, ok
}

// Names lists every registered --output value, for CLI help text and
// flag validation.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
