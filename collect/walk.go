package collect

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/esr-cvs/cvsconvert/model"
)

// rcsFile names one discovered ",v" file and the logical path it will
// occupy in the converted repository.
type rcsFile struct {
	rcsPath  string // absolute path on disk to the ,v file
	pathID   model.PathID
	fromAttic bool
}

// walkRCSFiles walks a staged CVS source tree rooted at diskRoot,
// registering every directory and file as a CvsPath under rootID, and
// returns the ",v" files found. Attic directories are re-homed: a file
// found under .../Attic/foo.c,v is registered at the path its parent
// directory would use were the file still live, not under an "Attic"
// segment (spec.md §4.5 "the Attic holds the last, dead revision of a
// file no longer present on trunk; converters must not surface the
// Attic/ path component itself").
func walkRCSFiles(diskRoot string, paths *model.PathStore, rootID model.PathID) ([]rcsFile, error) {
	var files []rcsFile
	seen := make(map[model.PathID]map[string]bool) // parent -> basename -> claimed

	claim := func(parent model.PathID, basename string) bool {
		m, ok := seen[parent]
		if !ok {
			m = make(map[string]bool)
			seen[parent] = m
		}
		if m[basename] {
			return false
		}
		m[basename] = true
		return true
	}

	var walk func(diskDir string, logicalParent model.PathID, dirCache map[string]model.PathID) error
	walk = func(diskDir string, logicalParent model.PathID, dirCache map[string]model.PathID) error {
		entries, err := os.ReadDir(diskDir)
		if err != nil {
			return fmt.Errorf("reading %s: %w", diskDir, err)
		}
		// Attic sorts last, so a live copy of a file claims its path first.
		sort.Slice(entries, func(i, j int) bool {
			ai, aj := strings.EqualFold(entries[i].Name(), "Attic"), strings.EqualFold(entries[j].Name(), "Attic")
			if ai != aj {
				return aj
			}
			return entries[i].Name() < entries[j].Name()
		})

		for _, e := range entries {
			name := e.Name()
			if name == "CVS" || name == "CVSROOT" {
				continue // administrative directories, never part of history
			}
			full := filepath.Join(diskDir, name)
			if e.IsDir() {
				if strings.EqualFold(name, "Attic") {
					// Re-home: recurse with the *same* logical parent.
					if err := walk(full, logicalParent, dirCache); err != nil {
						return err
					}
					continue
				}
				childID, ok := dirCache[name]
				if !ok {
					childID = paths.Add(logicalParent, name, false).ID
					dirCache[name] = childID
				}
				if err := walk(full, childID, make(map[string]model.PathID)); err != nil {
					return err
				}
				continue
			}
			if !strings.HasSuffix(name, ",v") {
				continue
			}
			base := strings.TrimSuffix(name, ",v")
			if !claim(logicalParent, base) {
				continue // already registered from a non-Attic copy; keep that one
			}
			p := paths.Add(logicalParent, base, true)
			files = append(files, rcsFile{rcsPath: full, pathID: p.ID, fromAttic: strings.Contains(diskDir, string(filepath.Separator)+"Attic")})
		}
		return nil
	}

	if err := walk(diskRoot, rootID, make(map[string]model.PathID)); err != nil {
		return nil, err
	}
	return files, nil
}
