package collect

import (
	"fmt"
	"os"
	"path/filepath"

	shutil "github.com/termie/go-shutil"
)

// stageSource copies cvsRoot into a fresh scratch directory under
// storeDir before C5 ever opens a file, so the conversion never writes
// to, locks, or otherwise disturbs the operator's CVS repository —
// matching cvs2svn's own insistence on a read-only source tree. The
// returned cleanup func removes the staged copy.
func stageSource(cvsRoot, storeDir string) (string, func(), error) {
	staged, err := os.MkdirTemp(storeDir, "cvsroot-")
	if err != nil {
		return "", nil, fmt.Errorf("creating staging directory: %w", err)
	}
	// MkdirTemp already created staged; CopyTree refuses to write into
	// an existing directory, so hand it the basename one level down.
	dst := filepath.Join(staged, "root")
	opts := &shutil.CopyTreeOptions{
		Symlinks:               true,
		IgnoreDanglingSymlinks: true,
		CopyFunction:           shutil.Copy,
	}
	if err := shutil.CopyTree(cvsRoot, dst, opts); err != nil {
		os.RemoveAll(staged)
		return "", nil, fmt.Errorf("staging %s: %w", cvsRoot, err)
	}
	cleanup := func() { os.RemoveAll(staged) }
	return dst, cleanup, nil
}
