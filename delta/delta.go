// Package delta implements C2: composing an RCS delta chunk with a base
// text to produce a derived text (spec.md §4.2). RCS deltas consist of
// "a<line> <count>" (add after line) and "d<line> <count>" (delete)
// commands; this package also resolves the forward/reverse ambiguity
// materialization requires (trunk walked backward from head, branches
// walked forward from their branch point).
package delta

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// CommandKind is the RCS delta command type.
type CommandKind uint8

const (
	Add CommandKind = iota
	Delete
)

// Command is one parsed "a<line> <count>" or "d<line> <count>" delta
// instruction, plus — for Add — the literal lines to insert.
type Command struct {
	Kind  CommandKind
	Line  int // 1-based anchor line in the base text
	Count int
	Lines []string // populated for Add; len == Count
}

// ParseCommands parses the body of an RCS delta (the deltatext payload)
// into an ordered list of commands. text lines are consumed greedily
// for Add commands immediately following their "a" header, matching
// RCS's own line-oriented diff format.
func ParseCommands(body []byte) ([]Command, error) {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var cmds []Command
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		kindByte := line[0]
		var kind CommandKind
		switch kindByte {
		case 'a':
			kind = Add
		case 'd':
			kind = Delete
		default:
			return nil, fmt.Errorf("malformed delta command %q", line)
		}
		fields := strings.Fields(line[1:])
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed delta command %q", line)
		}
		lineNo, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("malformed delta command %q: %w", line, err)
		}
		count, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("malformed delta command %q: %w", line, err)
		}
		cmd := Command{Kind: kind, Line: lineNo, Count: count}
		if kind == Add {
			cmd.Lines = make([]string, 0, count)
			for i := 0; i < count; i++ {
				if !scanner.Scan() {
					return nil, fmt.Errorf("delta command %q expected %d more line(s)", line, count-i)
				}
				cmd.Lines = append(cmd.Lines, scanner.Text())
			}
		}
		cmds = append(cmds, cmd)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cmds, nil
}

// Apply composes commands with base (an ordered slice of lines, no
// trailing-newline bookkeeping — callers split/join) and returns the
// derived text's lines.
//
// Commands are sorted by anchor line ascending; ties break deletes
// before adds at the same anchor (spec.md §4.2), and application is
// otherwise a single left-to-right pass so it is deterministic and
// runs in O(len(base)+len(commands)).
func Apply(base []string, cmds []Command) ([]string, error) {
	sorted := make([]Command, len(cmds))
	copy(sorted, cmds)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Line != sorted[j].Line {
			return sorted[i].Line < sorted[j].Line
		}
		return sorted[i].Kind == Delete && sorted[j].Kind == Add
	})

	out := make([]string, 0, len(base))
	cursor := 0 // 0-based index into base already copied to out
	for _, cmd := range sorted {
		switch cmd.Kind {
		case Delete:
			// d<line> <count>: delete count lines starting at 1-based line.
			start := cmd.Line - 1
			if start < cursor {
				return nil, fmt.Errorf("delta delete command out of order at line %d", cmd.Line)
			}
			if start > len(base) {
				return nil, fmt.Errorf("delta delete command references line %d past end of base (%d lines)", cmd.Line, len(base))
			}
			out = append(out, base[cursor:start]...)
			end := start + cmd.Count
			if end > len(base) {
				end = len(base)
			}
			cursor = end
		case Add:
			// a<line> <count>: insert count lines after 1-based line.
			end := cmd.Line
			if end < cursor {
				return nil, fmt.Errorf("delta add command out of order at line %d", cmd.Line)
			}
			if end > len(base) {
				end = len(base)
			}
			out = append(out, base[cursor:end]...)
			out = append(out, cmd.Lines...)
			cursor = end
		}
	}
	out = append(out, base[cursor:]...)
	return out, nil
}

// SplitLines splits text on '\n', keeping the trailing empty element
// dropped only when text ends with a newline, matching RCS/diff's
// usual "every line owns its own newline" convention.
func SplitLines(text []byte) []string {
	s := string(text)
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i := range lines {
		lines[i] += "\n"
	}
	// The final line keeps no trailing newline if the source text didn't.
	if !strings.HasSuffix(s, "\n") && len(lines) > 0 {
		lines[len(lines)-1] = strings.TrimSuffix(lines[len(lines)-1], "\n")
	}
	return lines
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string) []byte {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
	}
	return []byte(b.String())
}
