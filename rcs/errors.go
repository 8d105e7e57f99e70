package rcs

import "fmt"

// ParseError is C1's local error type — it knows the byte offset but
// not which file it came from; ParseFile attaches the filename and
// returns an *rlog.ParseError to the caller (spec.md §4.1: "malformed
// input → RcsParseError with byte offset").
type ParseError struct {
	Offset int64
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Reason)
}
