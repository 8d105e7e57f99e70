package collect

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esr-cvs/cvsconvert/config"
	"github.com/esr-cvs/cvsconvert/model"
	"github.com/esr-cvs/cvsconvert/rlog"
)

// unreachableHeadRCS declares head 1.3, but no delta defines 1.3 — the
// malformed-admin-data case spec.md §4.1 requires rejecting outright
// rather than letting a zero HeadRevision drift downstream.
const unreachableHeadRCS = `head	1.3;
access;
symbols;
locks; strict;
comment	@# @;


1.1
date	2024.01.01.00.00.00;	author alice;	state Exp;
branches;
next	;


desc
@Initial import.
@


1.1
log
@add file
@
text
@one
@
`

func TestParseOneFileRejectsUnreachableHeadRevision(t *testing.T) {
	dir := t.TempDir()
	rcsPath := filepath.Join(dir, "file,v")
	require.NoError(t, os.WriteFile(rcsPath, []byte(unreachableHeadRCS), 0644))

	ctx := config.New(config.Default(), rlog.New(io.Discard, "text"), dir)
	c := New(ctx)
	c.project = model.DefaultProject(1, 1)

	_, err := c.parseOneFile(rcsFile{rcsPath: rcsPath, pathID: 1})
	require.Error(t, err)

	var parseErr *rlog.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, rcsPath, parseErr.File)
	assert.Contains(t, parseErr.Reason, "1.3")
}

func TestDecodeMagicBranch(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"1.3.0.2", "1.3.2", true},
		{"1.1.0.2", "1.1.2", true},
		{"1.3.2.4.0.2", "1.3.2.4.2", true},
		{"1.3", "", false},   // plain tag, not a branch
		{"1.3.2", "", false}, // already odd-length, not magic form
	}
	for _, c := range cases {
		got, ok := decodeMagicBranch(c.in)
		if ok != c.wantOK {
			t.Errorf("decodeMagicBranch(%q) ok = %v, want %v", c.in, ok, c.wantOK)
			continue
		}
		if ok && got.String() != c.want {
			t.Errorf("decodeMagicBranch(%q) = %q, want %q", c.in, got.String(), c.want)
		}
	}
}

func TestResynchronizeTimestampsPushesSkewedChildForward(t *testing.T) {
	fi := model.NewCvsFileItems(1)
	parent := &model.CvsRevision{ID: 1, Number: model.RevisionNumber{1, 1}, Timestamp: 1000, LOD: model.TrunkLOD}
	child := &model.CvsRevision{ID: 2, Number: model.RevisionNumber{1, 2}, Timestamp: 999, LOD: model.TrunkLOD, ParentID: 1}
	fi.Revisions[1] = parent
	fi.Revisions[2] = child

	resynchronizeTimestamps(map[model.PathID]*model.CvsFileItems{1: fi}, 1)

	if parent.ResyncedTime != 1000 {
		t.Errorf("parent.ResyncedTime = %d, want 1000", parent.ResyncedTime)
	}
	if child.ResyncedTime != 1001 {
		t.Errorf("child.ResyncedTime = %d, want 1001 (pushed past parent+fuzz)", child.ResyncedTime)
	}
	if !child.TimestampSkewed {
		t.Error("child.TimestampSkewed = false, want true")
	}
	if parent.TimestampSkewed {
		t.Error("parent.TimestampSkewed = true, want false")
	}
}

func TestResynchronizeTimestampsLeavesOrderedRevisionsAlone(t *testing.T) {
	fi := model.NewCvsFileItems(1)
	parent := &model.CvsRevision{ID: 1, Number: model.RevisionNumber{1, 1}, Timestamp: 1000, LOD: model.TrunkLOD}
	child := &model.CvsRevision{ID: 2, Number: model.RevisionNumber{1, 2}, Timestamp: 2000, LOD: model.TrunkLOD, ParentID: 1}
	fi.Revisions[1] = parent
	fi.Revisions[2] = child

	resynchronizeTimestamps(map[model.PathID]*model.CvsFileItems{1: fi}, 1)

	if child.ResyncedTime != 2000 || child.TimestampSkewed {
		t.Errorf("unskewed child mutated: ResyncedTime=%d Skewed=%v", child.ResyncedTime, child.TimestampSkewed)
	}
}

func TestAuthorLogDecoderLatin1(t *testing.T) {
	d := newAuthorLogDecoder("latin1")
	// 0xE9 is e-acute in Latin-1.
	got := d.decode([]byte{0xE9})
	if got != "é" {
		t.Errorf("decode(0xE9) = %q, want é", got)
	}
}

func TestAuthorLogDecoderUTF8Passthrough(t *testing.T) {
	d := newAuthorLogDecoder("utf8")
	in := "héllo"
	if got := d.decode([]byte(in)); got != in {
		t.Errorf("utf8 decode = %q, want %q", got, in)
	}
}
