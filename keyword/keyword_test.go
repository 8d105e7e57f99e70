package keyword

import (
	"testing"
	"time"

	"github.com/esr-cvs/cvsconvert/model"
)

func TestExpandPreserveIsNoOp(t *testing.T) {
	src := []byte("$Id$\n")
	out := Expand(src, model.ExpandPreserve, Info{})
	if string(out) != string(src) {
		t.Errorf("ExpandPreserve changed bytes: %q", out)
	}
}

func TestExpandKV(t *testing.T) {
	info := Info{
		Path:     "module/file.c",
		Revision: "1.3",
		Date:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Author:   "alice",
		State:    "Exp",
	}
	out := Expand([]byte("$Id$\n"), model.ExpandKV, info)
	want := "$Id: file.c 1.3 2024/01/02 03:04:05 alice Exp $\n"
	if string(out) != want {
		t.Errorf("ExpandKV = %q, want %q", out, want)
	}
}

func TestCollapseK(t *testing.T) {
	src := []byte("$Id: file.c 1.3 2024/01/02 03:04:05 alice Exp $\n")
	out := Expand(src, model.ExpandK, Info{})
	want := "$Id$\n"
	if string(out) != want {
		t.Errorf("ExpandK = %q, want %q", out, want)
	}
}

func TestExpandRoundTrip(t *testing.T) {
	info := Info{Path: "a/b.c", Revision: "1.1", Date: time.Unix(0, 0).UTC(), Author: "bob", State: "Exp"}
	expanded := Expand([]byte("$Id$"), model.ExpandKV, info)
	collapsed := Expand(expanded, model.ExpandK, Info{})
	if string(collapsed) != "$Id$" {
		t.Errorf("round trip collapse = %q, want $Id$", collapsed)
	}
}

func TestSniffBinaryOnText(t *testing.T) {
	if SniffBinary([]byte("hello world, this is plain text\n")) {
		t.Errorf("plain text should not be sniffed as binary")
	}
}

func TestSniffBinaryOnPNG(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}
	if !SniffBinary(png) {
		t.Errorf("PNG signature should be sniffed as binary")
	}
}
