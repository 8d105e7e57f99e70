// Package collect implements C5: the data collector. It walks a CVS
// repository tree, parses every ",v" file with package rcs, resolves
// each revision onto a line of development, resynchronizes timestamps,
// interns metadata, and accumulates the evidence C6 later classifies
// symbols from (spec.md §4.5).
package collect

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map"

	"github.com/esr-cvs/cvsconvert/config"
	"github.com/esr-cvs/cvsconvert/model"
	"github.com/esr-cvs/cvsconvert/rlog"
)

// Result is everything C5 hands to later passes for one project.
type Result struct {
	Project   *model.Project
	Paths     *model.PathStore
	Items     map[model.PathID]*model.CvsFileItems
	Metadata  *model.MetadataStore
	Symbols   map[string]*model.Symbol
	LODs      *model.LODStore
	Ids       *model.IDGenerator
}

// Collector runs C5 over a staged copy of a CVS repository root.
type Collector struct {
	ctx *config.RunContext

	mu       sync.Mutex
	paths    *model.PathStore
	metadata *model.MetadataStore
	symbols  map[string]*model.Symbol
	lods     *model.LODStore
	ids      *model.IDGenerator
	decoder  *authorLogDecoder

	project *model.Project
}

// New returns a Collector bound to ctx. Options.Encoding governs how
// author/log bytes are decoded (spec.md §6 "--encoding").
func New(ctx *config.RunContext) *Collector {
	return &Collector{
		ctx:      ctx,
		paths:    model.NewPathStore(),
		metadata: model.NewMetadataStore(),
		symbols:  make(map[string]*model.Symbol),
		lods:     model.NewLODStore(),
		ids:      model.NewIDGenerator(1),
		decoder:  newAuthorLogDecoder(ctx.Options.Encoding),
	}
}

// Collect stages cvsRoot into a scratch workspace, walks it, and
// parses every RCS file it finds, fanning work out across a worker
// pool sized by Options.Workers (spec.md §5 "per-file parallelism").
func (c *Collector) Collect(cvsRoot string) (*Result, error) {
	staged, cleanup, err := stageSource(cvsRoot, c.ctx.StoreDir)
	if err != nil {
		return nil, fmt.Errorf("staging %s: %w", cvsRoot, err)
	}
	defer cleanup()

	rootName := filepath.Base(strings.TrimRight(cvsRoot, string(os.PathSeparator)))
	rootPath := c.paths.AddRoot(rootName)
	c.project = model.DefaultProject(1, rootPath.ID)
	c.lods.Trunk(c.project.ID)

	files, err := walkRCSFiles(staged, c.paths, rootPath.ID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	c.ctx.Logger.StartPass("collect")
	c.ctx.Logger.Baton(fmt.Sprintf("parsing %d RCS files", len(files)))

	results := cmap.New()
	pool := newWorkerPool(c.ctx.Options.Workers)
	var firstErr error
	var errMu sync.Mutex

	for _, f := range files {
		f := f
		pool.Submit(func() {
			items, err := c.parseOneFile(f)
			if err != nil {
				if c.ctx.Options.SkipBadFiles {
					c.ctx.Logger.Warn("unparseable_file", "skipping %s: %v", f.rcsPath, err)
					return
				}
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
				return
			}
			results.Set(fmt.Sprintf("%d", f.pathID), items)
			c.ctx.Logger.FileProcessed(f.rcsPath)
			c.ctx.Logger.Tick()
		})
	}
	pool.StopAndWait()
	c.ctx.Logger.Done("collection scan finished")

	if firstErr != nil {
		return nil, firstErr
	}

	itemsByPath := make(map[model.PathID]*model.CvsFileItems, results.Count())
	for entry := range results.IterBuffered() {
		items := entry.Val.(*model.CvsFileItems)
		itemsByPath[items.FileID] = items
	}

	resynchronizeTimestamps(itemsByPath, c.ctx.Options.TimestampFuzzSeconds)

	c.ctx.Logger.CompletePass("collect", time.Since(start))

	return &Result{
		Project:  c.project,
		Paths:    c.paths,
		Items:    itemsByPath,
		Metadata: c.metadata,
		Symbols:  c.symbols,
		LODs:     c.lods,
		Ids:      c.ids,
	}, nil
}

// internMetadata interns (author, log) under the collector-wide lock,
// since MetadataStore is shared by every worker.
func (c *Collector) internMetadata(author, log string) model.MetadataID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metadata.Intern(author, log)
}

// symbolFor returns (creating if necessary) the Symbol named name,
// under the collector-wide lock.
func (c *Collector) symbolFor(name string) *model.Symbol {
	c.mu.Lock()
	defer c.mu.Unlock()
	sym, ok := c.symbols[name]
	if !ok {
		sym = model.NewSymbol(model.SymbolID(len(c.symbols)+1), c.project.ID, name)
		c.symbols[name] = sym
	}
	return sym
}

func (c *Collector) logger() *rlog.Logger { return c.ctx.Logger }
