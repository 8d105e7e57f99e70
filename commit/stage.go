package commit

import (
	"fmt"
	"os"
	"path/filepath"

	shutil "github.com/termie/go-shutil"
)

// stageSource copies cvsRoot into a fresh scratch directory under
// storeDir before re-reading any ",v" file for delta content, for the
// same reason collect.stageSource does: the conversion must never
// write to, lock, or otherwise disturb the operator's CVS repository.
// The returned cleanup func removes the staged copy.
func stageSource(cvsRoot, storeDir string) (string, func(), error) {
	staged, err := os.MkdirTemp(storeDir, "cvsroot-commit-")
	if err != nil {
		return "", nil, fmt.Errorf("creating staging directory: %w", err)
	}
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
