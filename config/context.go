package config

import "github.com/esr-cvs/cvsconvert/rlog"

// RunContext is the explicit, value-passed replacement for
// reposurgeon's process-wide Control singleton (spec.md §9). It
// carries everything a pass or component needs: the resolved options,
// the logger, and the artifact store's root directory. Passing this by
// pointer through constructors — never through package-level state —
// is what lets tests instantiate two independent conversions in one
// process.
type RunContext struct {
	Options *Options
	Logger  *rlog.Logger

	// StoreDir is the tmpdir each pass's artifact store opens under;
	// resolved once at startup from Options.TmpDir (or $TMPDIR per
	// spec.md §6) plus a run-specific subdirectory.
	StoreDir string
}

// New builds a RunContext from already-validated Options.
func New(opts *Options, logger *rlog.Logger, storeDir string) *RunContext {
	if logger == nil {
		logger = rlog.Default()
	}
	return &RunContext{Options: opts, Logger: logger, StoreDir: storeDir}
}
