package commit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/esr-cvs/cvsconvert/model"
)

// resolveRCSPaths walks stagedRoot and maps every already-collected
// file's PathID back to the ",v" file it was collected from, so C10
// can re-open it for fileRevisionSource. The walk mirrors
// collect.walkRCSFiles's Attic re-homing (spec.md §4.5): a revision
// found under .../Attic/foo.c,v is keyed by the logical path its
// parent directory uses, not by a path containing "Attic".
func resolveRCSPaths(stagedRoot string, paths *model.PathStore, items map[model.PathID]*model.CvsFileItems) (map[model.PathID]string, error) {
	byLogicalPath := make(map[string]string) // logical relative path -> disk path
	if err := walkForResolve(stagedRoot, "", byLogicalPath); err != nil {
		return nil, err
	}

	resolved := make(map[model.PathID]string, len(items))
	for fileID := range items {
		logical := paths.FullPath(fileID)
		diskPath, ok := byLogicalPath[logical]
		if !ok {
			return nil, fmt.Errorf("no ,v file found on disk for %q (path id %d)", logical, fileID)
		}
		resolved[fileID] = diskPath
	}
	return resolved, nil
}

func walkForResolve(diskDir, logicalDir string, out map[string]string) error {
	entries, err := os.ReadDir(diskDir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", diskDir, err)
	}
	// Attic sorts last, so a live copy of a file claims its path first.
	sort.SliceStable(entries, func(i, j int) bool {
		return !strings.EqualFold(entries[i].Name(), "Attic") && strings.EqualFold(entries[j].Name(), "Attic")
	})
	for _, e := range entries {
		name := e.Name()
		if name == "CVS" || name == "CVSROOT" {
			continue
		}
		full := filepath.Join(diskDir, name)
		if e.IsDir() {
			if strings.EqualFold(name, "Attic") {
				if err := walkForResolve(full, logicalDir, out); err != nil {
					return err
				}
				continue
			}
			childLogical := name
			if logicalDir != "" {
				childLogical = logicalDir + "/" + name
			}
			if err := walkForResolve(full, childLogical, out); err != nil {
				return err
			}
			continue
		}
		if !strings.HasSuffix(name, ",v") {
			continue
		}
		base := strings.TrimSuffix(name, ",v")
		logical := base
		if logicalDir != "" {
			logical = logicalDir + "/" + base
		}
		if _, already := out[logical]; already {
			continue // a non-Attic copy already claimed this logical path
		}
		out[logical] = full
	}
	return nil
}
