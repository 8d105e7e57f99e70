package rcs

import (
	"strings"
	"testing"
)

// recorder captures every event in order for assertions.
type recorder struct {
	NullHandler
	events []string
	head   string
	tags   map[string]string
	revs   []string
	texts  map[string]string
	logs   map[string]string
}

func newRecorder() *recorder {
	return &recorder{tags: map[string]string{}, texts: map[string]string{}, logs: map[string]string{}}
}

func (r *recorder) SetHeadRevision(n string) { r.head = n; r.events = append(r.events, "head:"+n) }
func (r *recorder) DefineTag(name, num string) {
	r.tags[name] = num
	r.events = append(r.events, "tag:"+name+"="+num)
}
func (r *recorder) AdminCompleted() { r.events = append(r.events, "admin_completed") }
func (r *recorder) DefineRevision(number string, ts int64, author, state string, branches []string, next string) {
	r.revs = append(r.revs, number)
	r.events = append(r.events, "rev:"+number)
}
func (r *recorder) SetRevisionInfo(number, log string, text []byte) {
	r.logs[number] = log
	r.texts[number] = string(text)
	r.events = append(r.events, "info:"+number)
}
func (r *recorder) ParseCompleted() { r.events = append(r.events, "done") }

const sampleRCS = `head	1.2;
access;
symbols
	REL1_0:1.1;
locks; strict;
comment	@# @;


1.2
date	2024.01.02.03.04.05;	author alice;	state Exp;
branches;
next	1.1;

1.1
date	2024.01.01.00.00.00;	author alice;	state Exp;
branches;
next	;


desc
@Initial import.
@


1.2
log
@fix bug@
text
@line one
line two
@
1.1
log
@init@
text
@line one
@
`

func TestParserEventOrder(t *testing.T) {
	p := NewParser(strings.NewReader(sampleRCS))
	rec := newRecorder()
	if err := p.Parse(rec); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if rec.head != "1.2" {
		t.Errorf("head = %q, want 1.2", rec.head)
	}
	if rec.tags["REL1_0"] != "1.1" {
		t.Errorf("tag REL1_0 = %q, want 1.1", rec.tags["REL1_0"])
	}
	if len(rec.revs) != 2 || rec.revs[0] != "1.2" || rec.revs[1] != "1.1" {
		t.Fatalf("unexpected revision order: %v", rec.revs)
	}
	if rec.texts["1.2"] != "line one\nline two\n" {
		t.Errorf("unexpected text for 1.2: %q", rec.texts["1.2"])
	}
	if rec.logs["1.1"] != "init" {
		t.Errorf("unexpected log for 1.1: %q", rec.logs["1.1"])
	}

	// admin_completed must come before any "rev:" event, and "done"
	// must be last (spec.md §4.1 fixed event order).
	adminIdx, doneIdx := -1, -1
	firstRevIdx := -1
	for i, e := range rec.events {
		if e == "admin_completed" {
			adminIdx = i
		}
		if e == "done" {
			doneIdx = i
		}
		if firstRevIdx == -1 && strings.HasPrefix(e, "rev:") {
			firstRevIdx = i
		}
	}
	if adminIdx == -1 || firstRevIdx == -1 || adminIdx > firstRevIdx {
		t.Fatalf("admin_completed must precede revision events: %v", rec.events)
	}
	if doneIdx != len(rec.events)-1 {
		t.Fatalf("done must be the last event: %v", rec.events)
	}
}

func TestParserAtQuotingEscape(t *testing.T) {
	src := `head	1.1;
access;
symbols;
locks; strict;
comment	@@;

1.1
date	2024.01.01.00.00.00;	author bob;	state Exp;
branches;
next	;

desc
@@

1.1
log
@log with an @@at@@ sign@
text
@body with @@at@@ signs
@
`
	p := NewParser(strings.NewReader(src))
	rec := newRecorder()
	if err := p.Parse(rec); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if rec.logs["1.1"] != "log with an @at@ sign" {
		t.Errorf("unexpected unescaped log: %q", rec.logs["1.1"])
	}
	if rec.texts["1.1"] != "body with @at@ signs\n" {
		t.Errorf("unexpected unescaped text: %q", rec.texts["1.1"])
	}
}

func TestParserMalformedFileReportsOffset(t *testing.T) {
	p := NewParser(strings.NewReader("head 1.1\nbogus-not-semicolon"))
	err := p.Parse(newRecorder())
	if err == nil {
		t.Fatalf("expected a parse error")
	}
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Offset <= 0 {
		t.Errorf("expected a positive byte offset, got %d", pe.Offset)
	}
}

func TestParseRCSDate(t *testing.T) {
	ts, err := parseRCSDate("2024.01.02.03.04.05")
	if err != nil {
		t.Fatalf("parseRCSDate: %v", err)
	}
	// 2024-01-02T03:04:05Z
	want := int64(1704164645)
	if ts != want {
		t.Errorf("parseRCSDate = %d, want %d", ts, want)
	}
}

func TestParseRCSDateTwoDigitYear(t *testing.T) {
	ts, err := parseRCSDate("95.01.01.00.00.00")
	if err != nil {
		t.Fatalf("parseRCSDate: %v", err)
	}
	ts2, err := parseRCSDate("1995.01.01.00.00.00")
	if err != nil {
		t.Fatalf("parseRCSDate: %v", err)
	}
	if ts != ts2 {
		t.Errorf("two-digit and four-digit years should agree: %d vs %d", ts, ts2)
	}
}
