package collect

import (
	"golang.org/x/text/encoding/charmap"
)

// authorLogDecoder converts the raw bytes RCS stores author names and
// log messages in into UTF-8 Go strings, per Options.Encoding
// (spec.md §6 "--encoding"). CVS predates any encoding convention, so
// most repositories are plain ASCII or Latin-1; "utf8" is offered for
// repositories already converted or always UTF-8 clean.
type authorLogDecoder struct {
	mode string
}

func newAuthorLogDecoder(mode string) *authorLogDecoder {
	if mode == "" {
		mode = "latin1"
	}
	return &authorLogDecoder{mode: mode}
}

// decode returns b as a Go string. In "utf8" mode the bytes are
// returned unchanged, invalid sequences included. Otherwise they are
// decoded as Latin-1, which maps every byte to one character; if the
// decoder reports an error, the raw bytes are returned unchanged.
func (d *authorLogDecoder) decode(b []byte) string {
	if d.mode == "utf8" {
		return string(b)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
