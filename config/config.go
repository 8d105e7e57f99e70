// Package config loads and validates the declarative --options=FILE
// configuration (spec.md §6) and defines RunContext, the explicit
// context value threaded through every pass and component in place of
// reposurgeon's process-wide Control singleton (spec.md §9 "Cross-module
// global context").
package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// SymbolOverride names a forced classification for one symbol, driven
// by --force-branch/--force-tag/--exclude (spec.md §4.6 rule 1).
type SymbolOverride struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // "branch", "tag", or "exclude"
}

// SymbolRename renames a CVS symbol before classification.
type SymbolRename struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Options mirrors the CLI surface of spec.md §6. Fields are exported
// so both the cobra flag layer and the YAML --options loader can
// populate them; YAML values are applied first, flags override.
type Options struct {
	TmpDir           string           `yaml:"tmpdir"`
	StartPass        int              `yaml:"-"`
	EndPass          int              `yaml:"-"`
	Encoding         string           `yaml:"encoding"`
	SymbolOverrides  []SymbolOverride `yaml:"symbol_overrides"`
	SymbolRenames    []SymbolRename   `yaml:"symbol_renames"`
	CommitThreshold  int              `yaml:"commit_threshold"`
	Output           string           `yaml:"output"`
	SkipBadFiles     bool             `yaml:"skip_bad_files"`
	SymbolStrict     bool             `yaml:"symbol_strict"`
	PruneEmptyDirs   bool             `yaml:"prune_empty_dirs"`
	DeltaCacheBytes  int64            `yaml:"delta_cache_bytes"`
	MirrorLimitBytes int64            `yaml:"mirror_limit_bytes"`
	LogFormat        string           `yaml:"log_format"`

	// TimestampFuzzSeconds bounds how far a resynchronized revision
	// timestamp may be nudged forward past its recorded parent
	// (spec.md §4.5).
	TimestampFuzzSeconds int64 `yaml:"timestamp_fuzz_seconds"`

	Workers int `yaml:"workers"` // collector worker-pool size; 0 means runtime.NumCPU()
}

// Default returns an Options populated with spec.md §4.8/§6's documented
// defaults: a 5 minute commit-threshold window, Latin-1 decoding,
// preserve-as-stored keyword handling (the default lives in package
// keyword, not here), and directory pruning on.
func Default() *Options {
	return &Options{
		TmpDir:           os.TempDir(),
		StartPass:        1,
		EndPass:          0, // 0 means "run to the last registered pass"
		Encoding:         "latin1",
		CommitThreshold:  5 * 60,
		Output:           "git",
		PruneEmptyDirs:   true,
		DeltaCacheBytes:      256 << 20,
		MirrorLimitBytes:     0, // 0 means unlimited
		LogFormat:            "text",
		TimestampFuzzSeconds: 1,
		Workers:              0,
	}
}

// LoadFile reads a YAML options file and merges it onto o.
func (o *Options) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return o.LoadBytes(data)
}

// LoadBytes merges YAML-encoded overrides onto o.
func (o *Options) LoadBytes(data []byte) error {
	overlay := *o
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("invalid options file: %w", err)
	}
	*o = overlay
	return o.Validate()
}

// Validate checks cross-field invariants: a known output backend, a
// sane pass range, a non-negative commit threshold.
func (o *Options) Validate() error {
	switch o.Output {
	case "svn", "git", "bzr", "hg":
	default:
		return fmt.Errorf("unknown --output backend %q (want svn|git|bzr|hg)", o.Output)
	}
	if o.CommitThreshold < 0 {
		return fmt.Errorf("--commit-threshold must be >= 0, got %d", o.CommitThreshold)
	}
	if o.EndPass != 0 && o.StartPass > o.EndPass {
		return fmt.Errorf("--start=%d is after --end=%d", o.StartPass, o.EndPass)
	}
	for _, ov := range o.SymbolOverrides {
		switch ov.Kind {
		case "branch", "tag", "exclude":
		default:
			return fmt.Errorf("symbol override %q has unknown kind %q", ov.Name, ov.Kind)
		}
	}
	return nil
}
