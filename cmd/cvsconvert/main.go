// Command cvsconvert drives the conversion pipeline end to end: parse
// flags and an optional --options file into config.Options (spec.md
// §6), run the registered passes (passes.Run), and hand the resulting
// commit records to the chosen output backend. The flag layer follows
// git-migrator's cobra root command (cmd/git-migrator/commands/root.go)
// rather than reposurgeon's kommandant REPL, per the one-shot batch
// CLI spec.md §6 describes.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/esr-cvs/cvsconvert/backend"
	"github.com/esr-cvs/cvsconvert/config"
	"github.com/esr-cvs/cvsconvert/passes"
	"github.com/esr-cvs/cvsconvert/rlog"
	"github.com/esr-cvs/cvsconvert/store"
)

// flagSet mirrors config.Options one field at a time so cobra can bind
// each CLI flag directly to a variable; resolveOptions below folds
// whichever of these the user actually set on top of --options'
// already-loaded Options, per config.Options' documented precedence
// (YAML first, flags override).
var flagSet struct {
	tmpDir           string
	start            int
	end              int
	encoding         string
	forceBranch      []string
	forceTag         []string
	exclude          []string
	commitThreshold  int
	output           string
	optionsFile      string
	to               string
	skipBadFiles     bool
	symbolStrict     bool
	pruneEmptyDirs   bool
	deltaCacheBytes  int64
	mirrorLimitBytes int64
	logFormat        string
	timestampFuzz    int64
	workers          int
}

var rootCmd = &cobra.Command{
	Use:   "cvsconvert CVS-ROOT",
	Short: "Convert a CVS repository into a git/svn/bzr/hg history stream",
	Long: `cvsconvert reads a CVS repository (RCS ,v files under CVS-ROOT),
reconstructs its revision history into changesets and commits, and
emits an equivalent history stream for git fast-import, Subversion's
dump format, or (via the same fast-import stream) Bazaar or Mercurial.

The stream is written to stdout by default; use --to to write a file
instead. Progress and warnings go to stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	flags := rootCmd.Flags()
	d := config.Default()
	flags.StringVar(&flagSet.tmpDir, "tmpdir", "", "directory for artifact store (default $TMPDIR or os.TempDir)")
	flags.IntVar(&flagSet.start, "start", 0, "first pass to run, 1-indexed (default: the first pass)")
	flags.IntVar(&flagSet.end, "end", 0, "last pass to run, 1-indexed (default: the last pass)")
	flags.StringVar(&flagSet.encoding, "encoding", d.Encoding, "author/log text encoding")
	flags.StringArrayVar(&flagSet.forceBranch, "force-branch", nil, "force symbol NAME to classify as a branch (repeatable)")
	flags.StringArrayVar(&flagSet.forceTag, "force-tag", nil, "force symbol NAME to classify as a tag (repeatable)")
	flags.StringArrayVar(&flagSet.exclude, "exclude", nil, "exclude symbol NAME entirely (repeatable)")
	flags.IntVar(&flagSet.commitThreshold, "commit-threshold", d.CommitThreshold, "seconds separating two changeset clustering windows")
	flags.StringVar(&flagSet.output, "output", d.Output, "output backend: svn|git|bzr|hg")
	flags.StringVar(&flagSet.optionsFile, "options", "", "load a declarative --options=FILE configuration")
	flags.StringVar(&flagSet.to, "to", "", "write the output stream to this file instead of stdout")
	flags.BoolVar(&flagSet.skipBadFiles, "skip-bad-files", d.SkipBadFiles, "exclude inconsistent RCS files with a warning instead of aborting")
	flags.BoolVar(&flagSet.symbolStrict, "symbol-strict", d.SymbolStrict, "treat symbol classification conflicts as fatal")
	flags.BoolVar(&flagSet.pruneEmptyDirs, "prune-empty-dirs", d.PruneEmptyDirs, "delete a directory once the last file in it is deleted")
	flags.Int64Var(&flagSet.deltaCacheBytes, "delta-cache-bytes", d.DeltaCacheBytes, "bound on the RCS delta reconstruction cache")
	flags.Int64Var(&flagSet.mirrorLimitBytes, "mirror-limit-bytes", d.MirrorLimitBytes, "bound on the commit synthesizer's directory mirror (0 = unlimited)")
	flags.StringVar(&flagSet.logFormat, "log-format", d.LogFormat, "progress log format: text|json")
	flags.Int64Var(&flagSet.timestampFuzz, "timestamp-fuzz-seconds", d.TimestampFuzzSeconds, "how far a resynchronized timestamp may be nudged past its parent")
	flags.IntVar(&flagSet.workers, "workers", d.Workers, "worker pool size for C5's RCS parsing (0 = CPU count)")
}

// resolveOptions builds the run's config.Options from config.Default(),
// an optional --options=FILE overlay, then every flag the user actually
// set, matching Options' own doc comment: "YAML values are applied
// first, flags override."
func resolveOptions(cmd *cobra.Command) (*config.Options, error) {
	opts := config.Default()
	if flagSet.optionsFile != "" {
		if err := opts.LoadFile(flagSet.optionsFile); err != nil {
			return nil, fmt.Errorf("--options=%s: %w", flagSet.optionsFile, err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("tmpdir") {
		opts.TmpDir = flagSet.tmpDir
	}
	if flags.Changed("start") {
		opts.StartPass = flagSet.start
	}
	if flags.Changed("end") {
		opts.EndPass = flagSet.end
	}
	if flags.Changed("encoding") {
		opts.Encoding = flagSet.encoding
	}
	if flags.Changed("commit-threshold") {
		opts.CommitThreshold = flagSet.commitThreshold
	}
	if flags.Changed("output") {
		opts.Output = flagSet.output
	}
	if flags.Changed("skip-bad-files") {
		opts.SkipBadFiles = flagSet.skipBadFiles
	}
	if flags.Changed("symbol-strict") {
		opts.SymbolStrict = flagSet.symbolStrict
	}
	if flags.Changed("prune-empty-dirs") {
		opts.PruneEmptyDirs = flagSet.pruneEmptyDirs
	}
	if flags.Changed("delta-cache-bytes") {
		opts.DeltaCacheBytes = flagSet.deltaCacheBytes
	}
	if flags.Changed("mirror-limit-bytes") {
		opts.MirrorLimitBytes = flagSet.mirrorLimitBytes
	}
	if flags.Changed("log-format") {
		opts.LogFormat = flagSet.logFormat
	}
	if flags.Changed("timestamp-fuzz-seconds") {
		opts.TimestampFuzzSeconds = flagSet.timestampFuzz
	}
	if flags.Changed("workers") {
		opts.Workers = flagSet.workers
	}

	for _, name := range flagSet.forceBranch {
		opts.SymbolOverrides = append(opts.SymbolOverrides, config.SymbolOverride{Name: name, Kind: "branch"})
	}
	for _, name := range flagSet.forceTag {
		opts.SymbolOverrides = append(opts.SymbolOverrides, config.SymbolOverride{Name: name, Kind: "tag"})
	}
	for _, name := range flagSet.exclude {
		opts.SymbolOverrides = append(opts.SymbolOverrides, config.SymbolOverride{Name: name, Kind: "exclude"})
	}

	if opts.TmpDir == "" {
		if env := os.Getenv("TMPDIR"); env != "" {
			opts.TmpDir = env
		} else {
			opts.TmpDir = os.TempDir()
		}
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// passName converts a 1-indexed --start/--end pass number (spec.md §6)
// to the pass manager's stable name, or "" for "unset" (0).
func passName(n int) (string, error) {
	if n == 0 {
		return "", nil
	}
	if n < 1 || n > len(passes.All) {
		return "", fmt.Errorf("pass number %d out of range 1..%d", n, len(passes.All))
	}
	return passes.All[n-1].Name, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	cvsRoot := args[0]
	if info, err := os.Stat(cvsRoot); err != nil || !info.IsDir() {
		return &usageError{fmt.Errorf("%q is not a directory", cvsRoot)}
	}

	opts, err := resolveOptions(cmd)
	if err != nil {
		return &usageError{err}
	}

	startName, err := passName(opts.StartPass)
	if err != nil {
		return &usageError{err}
	}
	endName, err := passName(opts.EndPass)
	if err != nil {
		return &usageError{err}
	}

	logger := rlog.New(cmd.ErrOrStderr(), opts.LogFormat)

	runDir := filepath.Join(opts.TmpDir, fmt.Sprintf("cvsconvert-%d", os.Getpid()))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("creating run directory %s: %w", runDir, err)
	}

	runCtx := config.New(opts, logger, runDir)
	manager := store.NewManager(runDir)
	pipeline := passes.NewPipeline(runCtx, manager, cvsRoot)

	if err := passes.Run(pipeline, startName, endName); err != nil {
		return err
	}

	if endName != "" && endName != passes.All[len(passes.All)-1].Name {
		// A partial run (--end before "commit") has no commit records
		// to hand a backend. Pass results live in memory only; runDir
		// keeps just the pass state record.
		fmt.Fprintf(cmd.OutOrStdout(), "stopped after pass %q\n", endName)
		return nil
	}

	enc, ok := backend.Lookup(opts.Output)
	if !ok {
		return &usageError{fmt.Errorf("unknown --output backend %q", opts.Output)}
	}

	out := cmd.OutOrStdout()
	if flagSet.to != "" {
		f, err := os.Create(flagSet.to)
		if err != nil {
			return fmt.Errorf("creating --to=%s: %w", flagSet.to, err)
		}
		defer f.Close()
		out = f
	}

	bctx := &backend.Context{Filtered: pipeline.Filtered, Synth: pipeline.Synth}
	if err := enc.Write(out, pipeline.Commits, bctx); err != nil {
		return fmt.Errorf("writing %s output: %w", enc.Name(), err)
	}
	return nil
}

// usageError marks an error as CLI misuse (spec.md §6 exit code 2)
// rather than a fatal conversion failure (exit code 1).
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func main() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	err := rootCmd.Execute()
	if err == nil {
		os.Exit(0)
	}

	fmt.Fprintf(os.Stderr, "cvsconvert: %v\n", err)

	var usage *usageError
	var interrupted *passes.Interrupted
	switch {
	case errors.As(err, &usage):
		os.Exit(2)
	case errors.As(err, &interrupted):
		os.Exit(3)
	default:
		os.Exit(1)
	}
}
