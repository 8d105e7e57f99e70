package collect

import (
	"fmt"
	"os"

	"github.com/esr-cvs/cvsconvert/model"
	"github.com/esr-cvs/cvsconvert/rcs"
	"github.com/esr-cvs/cvsconvert/rlog"
)

// rawRevision accumulates one DefineRevision/SetRevisionInfo pair
// before the per-file second pass resolves ancestry and LODs.
type rawRevision struct {
	number    model.RevisionNumber
	numberStr string
	timestamp int64
	author    string
	state     string
	branches  []string // first-revision numbers of branches rooted here
	next      string    // predecessor in admin storage order

	log  string
	text []byte
}

// fileHandler implements rcs.Handler for one ",v" file, recording
// every admin and delta event without yet resolving cross-revision
// structure (spec.md §4.1's event order; resolution happens once
// ParseCompleted fires, in Collector.parseOneFile).
type fileHandler struct {
	rcs.NullHandler

	head      string
	principal string
	tags      map[string]string // symbol name -> RCS tag number (possibly magic)
	comment   string
	expand    string

	order []string // revision numbers in admin storage order
	revs  map[string]*rawRevision
}

func newFileHandler() *fileHandler {
	return &fileHandler{tags: make(map[string]string), revs: make(map[string]*rawRevision)}
}

func (h *fileHandler) SetHeadRevision(number string)      { h.head = number }
func (h *fileHandler) SetPrincipalBranch(number string)   { h.principal = number }
func (h *fileHandler) DefineTag(name, number string)      { h.tags[name] = number }
func (h *fileHandler) SetComment(text string)             { h.comment = text }
func (h *fileHandler) SetExpansion(mode string)           { h.expand = mode }

func (h *fileHandler) DefineRevision(number string, timestamp int64, author string, state string, branches []string, next string) {
	num, err := model.ParseRevisionNumber(number)
	if err != nil {
		return // surfaced later as a parse inconsistency when resolution can't find the revision
	}
	h.order = append(h.order, number)
	h.revs[number] = &rawRevision{
		number: num, numberStr: number, timestamp: timestamp,
		author: author, state: state, branches: branches, next: next,
	}
}

func (h *fileHandler) SetRevisionInfo(number string, log string, text []byte) {
	r, ok := h.revs[number]
	if !ok {
		return
	}
	r.log = log
	r.text = text
}

// parseOneFile parses f.rcsPath and resolves it into a complete
// model.CvsFileItems: LOD assignment, branch/tag items, metadata
// interning, and the file's own delta materializer handoff is left to
// the commit pass, which re-opens the same bytes via delta.RevisionSource.
func (c *Collector) parseOneFile(f rcsFile) (*model.CvsFileItems, error) {
	fh, err := os.Open(f.rcsPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.rcsPath, err)
	}
	defer fh.Close()

	handler := newFileHandler()
	parser := rcs.NewParser(fh)
	if err := rcs.ParseFile(f.rcsPath, parser, handler); err != nil {
		return nil, err
	}

	items := model.NewCvsFileItems(f.pathID)
	items.Expansion = model.ParseExpansionMode(handler.expand)
	if handler.principal != "" {
		if num, err := model.ParseRevisionNumber(handler.principal); err == nil {
			items.DefaultBranch = num
		}
	}

	// branchNumberKey -> symbol name, decoded from the admin "symbols"
	// phrase's magic branch numbers (spec.md §4.5 "RCS magic branch
	// number": "x.y.0.z" denotes branch number "x.y.z").
	branchSymbolName := make(map[string]string)
	for name, num := range handler.tags {
		if bn, ok := decodeMagicBranch(num); ok {
			branchSymbolName[bn.String()] = name
		}
	}

	numberToItemID := make(map[string]model.ItemID, len(handler.order))
	idStart := c.ids.Reserve(len(handler.order))
	for i, number := range handler.order {
		numberToItemID[number] = model.ItemID(idStart + int64(i))
	}

	// lodOf resolves (creating provisional branch LODs as needed) the
	// LOD a given revision number belongs to, recursing up the branch
	// chain; trunk terminates the recursion.
	counted := make(map[model.SymbolID]bool) // branches already voted on for this file
	var lodOf func(n model.RevisionNumber) model.LODID
	lodOf = func(n model.RevisionNumber) model.LODID {
		if n.IsTrunk() {
			return c.lods.Trunk(c.project.ID).ID
		}
		branchNum := n.BranchNumber()
		name, ok := branchSymbolName[branchNum.String()]
		if !ok {
			name = fmt.Sprintf("unnamed-branch-%s", branchNum.String())
			c.logger().Warn("untagged_branch", "%s: branch %s has no symbol name; synthesizing %q", f.rcsPath, branchNum, name)
		}
		sym := c.symbolFor(name)
		parentLOD := lodOf(branchNum.BranchPointNumber())
		c.mu.Lock()
		lodID, ok := c.lods.BySymbol(sym.ID)
		if !ok {
			lod := c.lods.NewBranch(c.project.ID, sym.ID, name, parentLOD)
			lodID = lod.ID
		}
		if !counted[sym.ID] {
			counted[sym.ID] = true
			sym.Vote(parentLOD)
			sym.BranchCount++
		}
		c.mu.Unlock()
		return lodID
	}

	for _, number := range handler.order {
		raw := handler.revs[number]
		author := c.decoder.decode([]byte(raw.author))
		log := c.decoder.decode([]byte(raw.log))
		metaID := c.internMetadata(author, log)
		rev := &model.CvsRevision{
			ID:           numberToItemID[number],
			FileID:       f.pathID,
			Number:       raw.number,
			Timestamp:    raw.timestamp,
			ResyncedTime: raw.timestamp,
			AuthorID:     metaID,
			LogID:        metaID,
			LOD:          lodOf(raw.number),
		}
		if raw.state == "dead" {
			rev.State = model.StateDead
		}
		items.Revisions[rev.ID] = rev
	}

	// Second pass: wire "next" linkage now every revision exists. On
	// trunk, deltas are reverse diffs and "next" points to the older
	// (parent) revision; on a branch, deltas are forward diffs and
	// "next" points to the newer (child) revision (spec.md §4.2). Also
	// attach CvsBranch items for each sprouting branch.
	for _, number := range handler.order {
		raw := handler.revs[number]
		revID := numberToItemID[number]
		rev := items.Revisions[revID]

		if raw.next != "" {
			if id, ok := numberToItemID[raw.next]; ok {
				if rev.Number.IsTrunk() {
					rev.ParentID = id
					if parent, ok := items.Revisions[id]; ok {
						parent.ChildrenID = append(parent.ChildrenID, revID)
					}
				} else {
					rev.ChildrenID = append(rev.ChildrenID, id)
					if child, ok := items.Revisions[id]; ok {
						child.ParentID = revID
					}
				}
			}
		}

		for _, childNum := range raw.branches {
			childNumber, err := model.ParseRevisionNumber(childNum)
			if err != nil {
				continue
			}
			branchNum := childNumber.BranchNumber()
			name, ok := branchSymbolName[branchNum.String()]
			if !ok {
				name = fmt.Sprintf("unnamed-branch-%s", branchNum.String())
			}
			sym := c.symbolFor(name)
			c.mu.Lock()
			lodID, ok := c.lods.BySymbol(sym.ID)
			c.mu.Unlock()
			if !ok {
				continue
			}
			branchID := model.ItemID(c.ids.Next())
			childID, hasChild := numberToItemID[childNum]
			branch := &model.CvsBranch{
				ID: branchID, FileID: f.pathID, SymbolID: sym.ID,
				SourceID: revID, LOD: lodID,
			}
			if hasChild {
				branch.NextRevID = childID
			}
			items.Branches[branchID] = branch
			rev.BranchOpenings = append(rev.BranchOpenings, branchID)
		}
	}

	// Plain tags: every admin symbol whose number is NOT a magic branch
	// form points directly at a revision.
	for name, num := range handler.tags {
		if _, isBranch := decodeMagicBranch(num); isBranch {
			continue
		}
		targetID, ok := numberToItemID[num]
		if !ok {
			continue
		}
		sym := c.symbolFor(name)
		sym.TagCount++
		tagID := model.ItemID(c.ids.Next())
		tag := &model.CvsTag{ID: tagID, FileID: f.pathID, SymbolID: sym.ID, SourceID: targetID}
		items.Tags[tagID] = tag
		items.Revisions[targetID].TagIDs = append(items.Revisions[targetID].TagIDs, tagID)
	}

	if handler.head != "" {
		id, ok := numberToItemID[handler.head]
		if !ok {
			return nil, &rlog.ParseError{
				File:   f.rcsPath,
				Offset: -1,
				Reason: fmt.Sprintf("head revision %s is unreachable: no delta defines it", handler.head),
			}
		}
		items.HeadRevision = id
	}

	return items, nil
}

// decodeMagicBranch reports whether num is an RCS magic branch number
// ("x.y.0.z") and, if so, the true (odd-length) branch number it
// denotes (spec.md §4.5).
func decodeMagicBranch(num string) (model.RevisionNumber, bool) {
	n, err := model.ParseRevisionNumber(num)
	if err != nil || len(n) < 4 || len(n)%2 != 0 || n[len(n)-2] != 0 {
		return nil, false
	}
	out := make(model.RevisionNumber, 0, len(n)-1)
	out = append(out, n[:len(n)-2]...)
	out = append(out, n[len(n)-1])
	return out, true
}
