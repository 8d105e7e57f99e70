// Package rcs implements C1, the RCS ",v" file parser (spec.md §4.1):
// a streaming, callback-driven decoder of Walter Tichy's RCS format —
// semicolon-terminated phrases and "@"-quoted strings with "@@"
// escaping — producing admin/delta/deltatext events in a fixed order.
package rcs

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parser drives one Handler over one RCS byte stream. It holds no
// state beyond the current file's lexer and a one-token lookahead; the
// largest single allocation is one @-quoted string, which the lexer
// reads whole.
type Parser struct {
	lex    *lexer
	peeked *token
}

// NewParser returns a parser reading from r.
func NewParser(r io.Reader) *Parser {
	return &Parser{lex: newLexer(r)}
}

func (p *Parser) next() (token, error) {
	if p.peeked != nil {
		t := *p.peeked
		p.peeked = nil
		return t, nil
	}
	return p.lex.next()
}

func (p *Parser) peek() (token, error) {
	if p.peeked == nil {
		t, err := p.lex.next()
		if err != nil {
			return token{}, err
		}
		p.peeked = &t
	}
	return *p.peeked, nil
}

func (p *Parser) fail(offset int64, format string, args ...interface{}) error {
	return &ParseError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

func (p *Parser) expectWord() (token, error) {
	t, err := p.next()
	if err != nil {
		return t, err
	}
	if t.kind != tokWord {
		return t, p.fail(t.offset, "expected a bare word, got %q", t.text)
	}
	return t, nil
}

func (p *Parser) expectString() (token, error) {
	t, err := p.next()
	if err != nil {
		return t, err
	}
	if t.kind != tokString {
		return t, p.fail(t.offset, "expected an @-quoted string, got %q", t.text)
	}
	return t, nil
}

func (p *Parser) expectSemi() error {
	t, err := p.next()
	if err != nil {
		return err
	}
	if t.kind != tokSemi {
		return p.fail(t.offset, "expected ';', got %q", t.text)
	}
	return nil
}

func (p *Parser) expectColon() error {
	t, err := p.next()
	if err != nil {
		return err
	}
	if t.kind != tokColon {
		return p.fail(t.offset, "expected ':', got %q", t.text)
	}
	return nil
}

// looksLikeRevisionNumber reports whether s is a dotted sequence of
// digits — the shape of both revision numbers and RCS dates.
func looksLikeRevisionNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// skipToSemi consumes and discards tokens up to and including the next
// semicolon — used for admin phrases (access, locks, and any unknown
// "newphrase" items) whose content downstream passes never need
// (spec.md §4.1: "preserves them opaquely if needed by downstream (they
// are discarded here)").
func (p *Parser) skipToSemi() error {
	for {
		t, err := p.next()
		if err != nil {
			return err
		}
		if t.kind == tokSemi {
			return nil
		}
		if t.kind == tokEOF {
			return p.fail(t.offset, "unexpected end of file while skipping a phrase")
		}
	}
}

// Parse drives handler through exactly one RCS ",v" byte stream.
func (p *Parser) Parse(handler Handler) error {
	if err := p.parseAdmin(handler); err != nil {
		return err
	}
	handler.AdminCompleted()
	if err := p.parseDeltas(handler); err != nil {
		return err
	}
	if err := p.parseDesc(); err != nil {
		return err
	}
	if err := p.parseDeltatexts(handler); err != nil {
		return err
	}
	handler.ParseCompleted()
	return nil
}

// parseAdmin consumes the admin block: head, optional branch, access,
// symbols, locks, optional strict, comment, expand, and any unknown
// newphrases, in the order RCS emits them (spec.md §4.1).
func (p *Parser) parseAdmin(handler Handler) error {
	head, err := p.expectWord()
	if err != nil {
		return err
	}
	if head.text != "head" {
		return p.fail(head.offset, "expected 'head', got %q", head.text)
	}
	headNum, err := p.admOptionalNumber()
	if err != nil {
		return err
	}
	handler.SetHeadRevision(headNum)
	if err := p.expectSemi(); err != nil {
		return err
	}

	for {
		kw, err := p.peek()
		if err != nil {
			return err
		}
		if kw.kind != tokWord {
			return p.fail(kw.offset, "expected an admin keyword, got %q", kw.text)
		}
		switch kw.text {
		case "branch":
			p.next()
			num, err := p.admOptionalNumber()
			if err != nil {
				return err
			}
			if num != "" {
				handler.SetPrincipalBranch(num)
			}
			if err := p.expectSemi(); err != nil {
				return err
			}
		case "access":
			p.next()
			if err := p.skipToSemi(); err != nil {
				return err
			}
		case "symbols":
			p.next()
			if err := p.parseSymbols(handler); err != nil {
				return err
			}
		case "locks":
			p.next()
			if err := p.skipToSemi(); err != nil {
				return err
			}
		case "strict":
			p.next()
			if err := p.expectSemi(); err != nil {
				return err
			}
		case "comment":
			p.next()
			s, err := p.expectString()
			if err != nil {
				return err
			}
			handler.SetComment(s.text)
			if err := p.expectSemi(); err != nil {
				return err
			}
		case "expand":
			p.next()
			s, err := p.expectString()
			if err != nil {
				return err
			}
			handler.SetExpansion(s.text)
			if err := p.expectSemi(); err != nil {
				return err
			}
		default:
			// First delta header, or an unrecognized "newphrase" admin
			// item (spec.md §4.1: "permits missing optional newphrase
			// admin items"). A delta header starts with a bare revision
			// number; anything else is a newphrase we discard.
			if looksLikeRevisionNumber(kw.text) {
				return nil // admin block finished; delta section begins
			}
			p.next()
			if err := p.skipToSemi(); err != nil {
				return err
			}
		}
	}
}

// admOptionalNumber returns "" if the next token is immediately a
// semicolon (an empty head, as in a brand-new repository).
func (p *Parser) admOptionalNumber() (string, error) {
	t, err := p.peek()
	if err != nil {
		return "", err
	}
	if t.kind == tokSemi {
		return "", nil
	}
	w, err := p.expectWord()
	if err != nil {
		return "", err
	}
	return w.text, nil
}

// parseSymbols reads the "sym : num" pairs of the admin "symbols" phrase.
func (p *Parser) parseSymbols(handler Handler) error {
	for {
		t, err := p.peek()
		if err != nil {
			return err
		}
		if t.kind == tokSemi {
			p.next()
			return nil
		}
		name, err := p.expectWord()
		if err != nil {
			return err
		}
		if err := p.expectColon(); err != nil {
			return err
		}
		num, err := p.expectWord()
		if err != nil {
			return err
		}
		handler.DefineTag(name.text, num.text)
	}
}

// parseDeltas consumes one delta header per revision: num, date, author,
// state, branches, next, and any newphrases, until it sees "desc".
func (p *Parser) parseDeltas(handler Handler) error {
	for {
		t, err := p.peek()
		if err != nil {
			return err
		}
		if t.kind == tokWord && t.text == "desc" {
			return nil
		}
		if t.kind == tokEOF {
			return p.fail(t.offset, "unexpected end of file before 'desc'")
		}
		if err := p.parseOneDelta(handler); err != nil {
			return err
		}
	}
}

func (p *Parser) parseOneDelta(handler Handler) error {
	num, err := p.expectWord()
	if err != nil {
		return err
	}

	date, err := p.expectKeywordWord("date")
	if err != nil {
		return err
	}
	ts, err := parseRCSDate(date)
	if err != nil {
		return p.fail(num.offset, "%s: %v", num.text, err)
	}
	if err := p.expectSemi(); err != nil {
		return err
	}

	author, err := p.expectKeywordWord("author")
	if err != nil {
		return err
	}
	if err := p.expectSemi(); err != nil {
		return err
	}

	state, err := p.expectKeywordOptionalWord("state")
	if err != nil {
		return err
	}
	if err := p.expectSemi(); err != nil {
		return err
	}
	if state == "" {
		state = "Exp"
	}

	branchKw, err := p.expectWord()
	if err != nil {
		return err
	}
	if branchKw.text != "branches" {
		return p.fail(branchKw.offset, "expected 'branches', got %q", branchKw.text)
	}
	var branches []string
	for {
		t, err := p.peek()
		if err != nil {
			return err
		}
		if t.kind == tokSemi {
			p.next()
			break
		}
		w, err := p.expectWord()
		if err != nil {
			return err
		}
		branches = append(branches, w.text)
	}

	next, err := p.expectKeywordOptionalWord("next")
	if err != nil {
		return err
	}
	if err := p.expectSemi(); err != nil {
		return err
	}

	// Any number of newphrases before the next delta or "desc".
	for {
		t, err := p.peek()
		if err != nil {
			return err
		}
		if t.kind != tokWord {
			return p.fail(t.offset, "expected a delta keyword or newphrase, got %q", t.text)
		}
		if t.text == "desc" || looksLikeRevisionNumber(t.text) {
			break
		}
		p.next()
		if err := p.skipToSemi(); err != nil {
			return err
		}
	}

	handler.DefineRevision(num.text, ts, author, state, branches, next)
	return nil
}

// expectKeywordWord requires the exact keyword kw, then a single bare
// word (used for "date", "author").
func (p *Parser) expectKeywordWord(kw string) (string, error) {
	t, err := p.expectWord()
	if err != nil {
		return "", err
	}
	if t.text != kw {
		return "", p.fail(t.offset, "expected %q, got %q", kw, t.text)
	}
	w, err := p.expectWord()
	if err != nil {
		return "", err
	}
	return w.text, nil
}

// expectKeywordOptionalWord is like expectKeywordWord but tolerates an
// empty value (used for "state" with no id, and for an empty "next").
func (p *Parser) expectKeywordOptionalWord(kw string) (string, error) {
	t, err := p.expectWord()
	if err != nil {
		return "", err
	}
	if t.text != kw {
		return "", p.fail(t.offset, "expected %q, got %q", kw, t.text)
	}
	peeked, err := p.peek()
	if err != nil {
		return "", err
	}
	if peeked.kind == tokSemi {
		return "", nil
	}
	w, err := p.expectWord()
	if err != nil {
		return "", err
	}
	return w.text, nil
}

// parseDesc consumes the top-level "desc" STRING block.
func (p *Parser) parseDesc() error {
	kw, err := p.expectWord()
	if err != nil {
		return err
	}
	if kw.text != "desc" {
		return p.fail(kw.offset, "expected 'desc', got %q", kw.text)
	}
	if _, err := p.expectString(); err != nil {
		return err
	}
	return nil
}

// parseDeltatexts consumes the trailing "num log STRING text STRING"
// blocks, one per revision, until end of file.
func (p *Parser) parseDeltatexts(handler Handler) error {
	for {
		t, err := p.peek()
		if err != nil {
			return err
		}
		if t.kind == tokEOF {
			return nil
		}
		num, err := p.expectWord()
		if err != nil {
			return err
		}

		logKw, err := p.expectWord()
		if err != nil {
			return err
		}
		if logKw.text != "log" {
			return p.fail(logKw.offset, "expected 'log', got %q", logKw.text)
		}
		logStr, err := p.expectString()
		if err != nil {
			return err
		}

		// Optional newphrases before "text".
		for {
			t, err := p.peek()
			if err != nil {
				return err
			}
			if t.kind == tokWord && t.text == "text" {
				break
			}
			p.next()
			if err := p.skipToSemi(); err != nil {
				return err
			}
		}
		textKw, err := p.expectWord()
		if err != nil {
			return err
		}
		_ = textKw
		textStr, err := p.expectString()
		if err != nil {
			return err
		}

		handler.SetRevisionInfo(num.text, logStr.text, []byte(textStr.text))
	}
}

// parseRCSDate parses RCS's "yy.mm.dd.hh.mm.ss" date (or "yyyy.mm..."
// for post-2000 files written by RCS ≥5.7) into a Unix timestamp.
func parseRCSDate(s string) (int64, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 6 {
		return 0, fmt.Errorf("malformed RCS date %q", s)
	}
	nums := make([]int, 6)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("malformed RCS date %q: %w", s, err)
		}
		nums[i] = n
	}
	year := nums[0]
	if year < 100 {
		if year >= 69 {
			year += 1900
		} else {
			year += 2000
		}
	}
	return civilToUnix(year, nums[1], nums[2], nums[3], nums[4], nums[5]), nil
}

// civilToUnix converts a UTC civil date/time (RCS dates are always UTC)
// to a Unix timestamp without pulling in time.Time's locale machinery.
func civilToUnix(year, month, day, hour, min, sec int) int64 {
	days := daysFromCivil(year, month, day)
	return days*86400 + int64(hour)*3600 + int64(min)*60 + int64(sec)
}

// daysFromCivil is Howard Hinnant's days-from-civil algorithm, giving
// the day count since the Unix epoch for a proleptic Gregorian date.
func daysFromCivil(y, m, d int) int64 {
	if m <= 2 {
		y--
	}
	era := y
	if era < 0 {
		era -= 399
	}
	era /= 400
	yoe := y - era*400
	var mp int
	if m > 2 {
		mp = m - 3
	} else {
		mp = m + 9
	}
	doy := (153*mp+2)/5 + d - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return int64(era)*146097 + int64(doe) - 719468
}
