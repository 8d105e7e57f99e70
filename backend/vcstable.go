package backend

// VCS is a pared-down version of reposurgeon's own capability table
// (surgeon/vcs.go's VCS struct and vcsInit()'s literal vcstypes):
// fields a stream-emitting backend still needs even though it never
// shells out to drive the target tool interactively the way
// reposurgeon's surgeon does. Command templates, prenuke/preserve
// lists and REPL-facing fields (gui, checkignore, cookies) are dropped
// since nothing here ever opens a working copy.
type VCS struct {
	Name           string
	Subdirectory   string
	Importer       string
	IgnoreName     string
	DefaultIgnores string
	Notes          string
}

// vcsTable mirrors vcsInit()'s entries for the four targets spec.md §6
// names, trimmed to what a batch stream producer needs to document.
var vcsTable = map[string]VCS{
	"git": {
		Name:         "git",
		Subdirectory: ".git",
		Importer:     "git fast-import",
		IgnoreName:   ".gitignore",
	},
	"svn": {
		Name:         "svn",
		Subdirectory: "locks",
		Importer:     "svnadmin load",
		DefaultIgnores: subversionDefaultIgnores,
		Notes:        "load into a repository created with svnadmin create",
	},
	"bzr": {
		Name:         "bzr",
		Subdirectory: ".bzr",
		Importer:     "bzr fast-import -",
		IgnoreName:   ".bzrignore",
		Notes:        "requires the bzr-fast-import plugin; consumes the same stream as git",
	},
	"hg": {
		Name:         "hg",
		Subdirectory: ".hg",
		Importer:     "hg-git-fast-import",
		IgnoreName:   ".hgignore",
		Notes:        "consumes the same stream as git via hg-git-fast-import",
	},
}

// subversionDefaultIgnores mirrors the simulated svn default-ignores
// list surgeon/vcs.go embeds for its svn entry, so a backend asked to
// also write an svn:ignore property set has a real starting point.
const subversionDefaultIgnores = `*.o
*.lo
*.la
*.al
.libs
*.so
*.so.[0-9]*
*.a
*.pyc
*.pyo
*.rej
*~
.*.swp
.DS_store
`
