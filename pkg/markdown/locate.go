package markdown

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const (
	// DefaultOpener introduces a graph block.
	DefaultOpener = "```graph"
	// DefaultCloser terminates any fenced block.
	DefaultCloser = "```"
)

// ErrMalformedBlock is returned when a block opener has no closer.
var ErrMalformedBlock = errors.New("malformed graph block")

// MalformedBlockError reports the opener that was never closed.
type MalformedBlockError struct {
	Line int // 0-based index of the opener line
}

func (e *MalformedBlockError) Error() string {
	return fmt.Sprintf("line %d: graph block has no closing fence", e.Line+1)
}

// Unwrap allows errors.Is(err, ErrMalformedBlock).
func (e *MalformedBlockError) Unwrap() error { return ErrMalformedBlock }

// Markers are the tokens delimiting a graph block.
// Both are matched case-insensitively after stripping leading whitespace.
type Markers struct {
	Opener string
	Closer string
}

// DefaultMarkers returns the ```graph / ``` marker pair.
func DefaultMarkers() Markers {
	return Markers{Opener: DefaultOpener, Closer: DefaultCloser}
}

// Validate checks that both markers are non-empty and start with a
// non-space character. Lines are matched after their indentation is
// stripped, so a marker with leading whitespace could never match.
func (m Markers) Validate() error {
	for _, mk := range []struct{ name, value string }{
		{"opener", m.Opener},
		{"closer", m.Closer},
	} {
		if strings.TrimSpace(mk.value) == "" {
			return fmt.Errorf("%s marker is empty", mk.name)
		}
		if trimIndent(mk.value) != mk.value {
			return fmt.Errorf("%s marker %q starts with whitespace", mk.name, mk.value)
		}
	}
	return nil
}

// Position locates one graph block in a line sequence.
type Position struct {
	Start  int // index of the opener line
	Length int // lines after the opener, closer included
	Indent int // leading spaces on the opener line
}

// End returns the index of the closer line.
func (p Position) End() int { return p.Start + p.Length }

// Contains reports whether line n is part of the block, opener and closer included.
func (p Position) Contains(n int) bool {
	return p.Start <= n && n <= p.End()
}

// Locate returns the position of every graph block in lines, in document order.
// An opener without a closer yields a *MalformedBlockError.
func Locate(lines []string, m Markers) ([]Position, error) {
	opener := strings.ToLower(m.Opener)
	closer := strings.ToLower(m.Closer)

	var positions []Position
	for i := 0; i < len(lines); i++ {
		if !hasMarker(lines[i], opener) {
			continue
		}
		length, ok := closerDistance(lines, i, closer)
		if !ok {
			return nil, &MalformedBlockError{Line: i}
		}
		positions = append(positions, Position{
			Start:  i,
			Length: length,
			Indent: indentation(lines[i]),
		})
		i += length
	}
	return positions, nil
}

// closerDistance counts lines from start+1 up to and including the first closer.
func closerDistance(lines []string, start int, closer string) (int, bool) {
	for j := start + 1; j < len(lines); j++ {
		if hasMarker(lines[j], closer) {
			return j - start, true
		}
	}
	return 0, false
}

// hasMarker reports whether line, minus its indentation, starts with the
// lower-case marker.
func hasMarker(line, marker string) bool {
	return strings.HasPrefix(strings.ToLower(trimIndent(line)), marker)
}

func trimIndent(line string) string {
	return strings.TrimLeftFunc(line, unicode.IsSpace)
}

// indentation counts leading space characters. Tabs stop the count.
func indentation(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}
