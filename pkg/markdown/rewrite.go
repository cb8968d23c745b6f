package markdown

import (
	"io"
	"strings"
)

type lineAction int

const (
	actionCopy lineAction = iota
	actionLink
	actionDrop
)

// Rewrite returns lines with every block replaced by its link line.
// Lines outside all blocks are copied verbatim, opener lines become the link
// of their block, and body and closer lines are dropped. Positions are taken
// as given; the lines are never re-scanned for markers.
func Rewrite(lines []string, positions []Position, links Links) []string {
	actions := make([]lineAction, len(lines))
	blockAt := make(map[int]int, len(positions))
	for i, p := range positions {
		if p.Start >= len(lines) {
			continue
		}
		actions[p.Start] = actionLink
		blockAt[p.Start] = i
		for n := p.Start + 1; n <= p.End() && n < len(lines); n++ {
			actions[n] = actionDrop
		}
	}

	out := make([]string, 0, len(lines))
	for n, line := range lines {
		switch actions[n] {
		case actionCopy:
			out = append(out, line)
		case actionLink:
			i := blockAt[n]
			out = append(out, links.Line(i, positions[i].Indent))
		}
	}
	return out
}

// WriteRewritten writes the rewritten document to w.
func WriteRewritten(w io.Writer, lines []string, positions []Position, links Links) error {
	_, err := io.WriteString(w, strings.Join(Rewrite(lines, positions, links), ""))
	return err
}
