package markdown

import "strings"

// Extract returns the body of each block: the lines between opener and
// closer, left-trimmed and concatenated. Line terminators are kept, so a body
// of "  A;\n", "  B;\n" becomes "A;\nB;\n". The text is not validated.
func Extract(lines []string, positions []Position) []string {
	out := make([]string, len(positions))
	for i, p := range positions {
		var b strings.Builder
		for _, line := range lines[p.Start+1 : p.End()] {
			b.WriteString(trimIndent(line))
		}
		out[i] = b.String()
	}
	return out
}
