package rcs

import "github.com/esr-cvs/cvsconvert/rlog"

// ParseFile parses one named RCS ",v" file, translating any internal
// *ParseError into an *rlog.ParseError carrying the filename (spec.md
// §4.1; §7 "ParseError ... names file+offset").
func ParseFile(filename string, p *Parser, handler Handler) error {
	if err := p.Parse(handler); err != nil {
		if pe, ok := err.(*ParseError); ok {
			return &rlog.ParseError{File: filename, Offset: pe.Offset, Reason: pe.Reason}
		}
		return &rlog.ParseError{File: filename, Offset: -1, Reason: err.Error()}
	}
	return nil
}
