package markdown

import (
	"fmt"
	"path"
	"strings"
)

// DefaultFormat is the image format used for link names.
const DefaultFormat = "svg"

// GraphName returns the image file name for the block at index,
// e.g. graph_000.svg.
func GraphName(index int, format string) string {
	return fmt.Sprintf("graph_%03d.%s", index, format)
}

// Links builds the image links that replace graph blocks.
type Links struct {
	Format string // image extension, svg if empty
	Prefix string // directory prepended to the link target, relative to the output document
}

// Name returns the image file name for block index.
func (l Links) Name(index int) string {
	format := l.Format
	if format == "" {
		format = DefaultFormat
	}
	return GraphName(index, format)
}

// Target returns the link target for block index.
func (l Links) Target(index int) string {
	if l.Prefix == "" {
		return l.Name(index)
	}
	return path.Join(l.Prefix, l.Name(index))
}

// Line returns the replacement line for block index, followed by a blank line.
func (l Links) Line(index, indent int) string {
	return fmt.Sprintf("%s![%s](%s)\n\n", strings.Repeat(" ", indent), l.Name(index), l.Target(index))
}
