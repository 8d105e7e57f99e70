// Command cvsgraph is a diagnostic companion to cvsconvert: it runs
// the pipeline through the changeset pass and C9's graph.Build, then
// renders the predecessor graph graph.Build leaves behind as Graphviz
// dot, filling red the members of any cycle it could not break. It
// exists for inspecting a *CycleUnresolved (spec.md
// §7, C9) report — the ordering error names which changesets are
// involved but not why, and a picture of their predecessor edges is
// usually the fastest way to see it.
//
// Grounded on rcowham-gitp4transfer/main.go, which builds the same
// kind of optional diagnostic structure (g.graph, a *dot.Graph built
// up one commit Node and parent/merge Edge at a time) alongside its
// main conversion loop rather than as a separate tool; this is the
// pack's only precedent for driving github.com/emicklei/dot, split out
// into its own binary since cvsconvert's own output path has no use
// for a dot stream.
package main

import (
	"fmt"
	"os"

	"github.com/emicklei/dot"

	"github.com/esr-cvs/cvsconvert/changeset"
	"github.com/esr-cvs/cvsconvert/collect"
	"github.com/esr-cvs/cvsconvert/config"
	"github.com/esr-cvs/cvsconvert/filter"
	"github.com/esr-cvs/cvsconvert/graph"
	"github.com/esr-cvs/cvsconvert/model"
	"github.com/esr-cvs/cvsconvert/rlog"
	"github.com/esr-cvs/cvsconvert/symbols"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "cvsgraph: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) != 2 {
		return fmt.Errorf("usage: cvsgraph CVS-ROOT")
	}
	cvsRoot := os.Args[1]

	opts := config.Default()
	logger := rlog.New(os.Stderr, "text")
	ctx := config.New(opts, logger, opts.TmpDir)

	result, err := collect.New(ctx).Collect(cvsRoot)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	strategy := symbols.New(opts, logger)
	decisions, err := strategy.Classify(result.Symbols, result.LODs)
	if err != nil {
		return fmt.Errorf("symbols: %w", err)
	}

	filtered, err := filter.Apply(result, decisions, logger)
	if err != nil {
		return fmt.Errorf("filter: %w", err)
	}

	store := changeset.New(opts).Build(filtered)

	// graph.Build breaks what cycles it can in store, so the edges
	// rendered below are the ones it leaves behind.
	_, orderErr := graph.Build(store, filtered, logger)

	g := dot.NewGraph(dot.Directed)
	nodes := make(map[model.ChangesetID]dot.Node, store.Len())
	for _, cs := range store.All() {
		label := fmt.Sprintf("#%d %s", cs.ID, cs.Kind)
		n := g.Node(label)
		n.Attr("shape", nodeShape(cs.Kind))
		nodes[cs.ID] = n
	}
	for _, cs := range store.All() {
		for _, pred := range cs.PredecessorIDs() {
			predNode, ok := nodes[pred]
			if !ok {
				continue
			}
			g.Edge(predNode, nodes[cs.ID])
		}
	}

	if orderErr != nil {
		var cyc *rlog.CycleUnresolved
		if asCycleUnresolved(orderErr, &cyc) {
			fmt.Fprintf(os.Stderr, "unresolved cycle: %v\n", cyc.Members)
			for _, id := range cyc.Members {
				if n, ok := nodes[model.ChangesetID(id)]; ok {
					n.Attr("color", "red")
					n.Attr("style", "filled")
				}
			}
		} else {
			return fmt.Errorf("graph: %w", orderErr)
		}
	}

	fmt.Println(g.String())
	return nil
}

func nodeShape(kind model.ChangesetKind) string {
	switch kind {
	case model.BranchChangesetKind:
		return "box"
	case model.TagChangesetKind:
		return "diamond"
	default:
		return "ellipse"
	}
}

func asCycleUnresolved(err error, target **rlog.CycleUnresolved) bool {
	if cyc, ok := err.(*rlog.CycleUnresolved); ok {
		*target = cyc
		return true
	}
	return false
}
