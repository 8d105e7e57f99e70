// Package keyword implements C3: a pure line-wise transform expanding
// or collapsing RCS "$Id$"-style keywords according to a file's
// expansion mode (spec.md §4.3).
package keyword

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/h2non/filetype"

	"github.com/esr-cvs/cvsconvert/model"
)

// keywordPattern matches "$Keyword$" or "$Keyword: ... $" for any of
// the RCS-recognized keyword names.
var keywordPattern = regexp.MustCompile(
	`\$(Id|Header|Author|Date|CVSHeader|Source|RCSfile|Revision|State|Locker)(:[^$]*)?\$`)

// Info is the per-revision data keywords expand against.
type Info struct {
	Path     string
	Revision string
	Date     time.Time
	Author   string
	State    string
	Locker   string // only used by ExpandKVL
}

// Expand rewrites the keyword occurrences in text according to mode.
// Conversion's default policy is ExpandPreserve — CVS already stored
// expanded bytes and modern targets should receive the same bytes
// (spec.md §4.3) — so Expand is a no-op unless the file's own RCS
// "expand" attribute calls for something else.
func Expand(text []byte, mode model.ExpansionMode, info Info) []byte {
	switch mode {
	case model.ExpandPreserve, model.ExpandBinary:
		return text
	case model.ExpandK:
		return collapse(text)
	case model.ExpandKV:
		return substitute(text, info, false, false)
	case model.ExpandKVL:
		return substitute(text, info, true, false)
	case model.ExpandValueOnly:
		return substitute(text, info, false, true)
	default:
		return text
	}
}

// collapse replaces every "$Keyword: ...$" with the bare "$Keyword$"
// (mode "k").
func collapse(text []byte) []byte {
	return keywordPattern.ReplaceAllFunc(text, func(m []byte) []byte {
		name := keywordPattern.FindSubmatch(m)[1]
		return []byte("$" + string(name) + "$")
	})
}

// substitute expands every keyword occurrence with a value computed
// from info. valueOnly drops the leading "Keyword: " prefix (mode "v",
// only ever meaningful for $Id$ alone per RCS convention — callers are
// expected to only invoke it on single-keyword text, as `co -kv` does).
func substitute(text []byte, info Info, withLocker bool, valueOnly bool) []byte {
	return keywordPattern.ReplaceAllFunc(text, func(m []byte) []byte {
		sub := keywordPattern.FindSubmatch(m)
		name := string(sub[1])
		value := valueFor(name, info, withLocker)
		if valueOnly {
			return []byte("$" + value + "$")
		}
		return []byte("$" + name + ": " + value + " $")
	})
}

func valueFor(name string, info Info, withLocker bool) string {
	dateStr := info.Date.UTC().Format("2006/01/02 15:04:05")
	switch name {
	case "Id", "CVSHeader":
		v := fmt.Sprintf("%s %s %s %s %s", basename(info.Path), info.Revision, dateStr, info.Author, info.State)
		if withLocker && info.Locker != "" {
			v += " " + info.Locker
		}
		return v
	case "Header":
		v := fmt.Sprintf("%s %s %s %s %s", info.Path, info.Revision, dateStr, info.Author, info.State)
		if withLocker && info.Locker != "" {
			v += " " + info.Locker
		}
		return v
	case "Author":
		return info.Author
	case "Date":
		return dateStr
	case "Source":
		return info.Path
	case "RCSfile":
		return basename(info.Path) + ",v"
	case "Revision":
		return info.Revision
	case "State":
		return info.State
	case "Locker":
		return info.Locker
	default:
		return ""
	}
}

func basename(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}

// SniffBinary corroborates a file's "-kb" attribute by inspecting the
// actual revision bytes, matching gitp4transfer's use of h2non/filetype
// to classify blobs before choosing a journal filetype (spec.md §4.3:
// "exact behavior ... is underspecified; default to byte-preserving").
// It returns true when the sample looks like a known binary format
// regardless of what the RCS admin "expand" attribute claimed.
func SniffBinary(sample []byte) bool {
	kind, err := filetype.Match(sample)
	if err != nil {
		return false
	}
	return kind != filetype.Unknown
}
