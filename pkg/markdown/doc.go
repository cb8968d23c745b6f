// Package markdown locates graph blocks in a markdown document and rewrites
// the document so each block is replaced by a link to its rendered image.
//
// The package is pure: it never touches the filesystem except through
// [LoadFile], and it never renders anything. A run looks like:
//
//	doc, _ := markdown.LoadFile("README.md")
//	positions, err := markdown.Locate(doc.Lines, markdown.DefaultMarkers())
//	descriptions := markdown.Extract(doc.Lines, positions)
//	// ... render descriptions[i] to links.Name(i) ...
//	out := markdown.Rewrite(doc.Lines, positions, links)
//
// # Blocks
//
// A block starts at a line whose content, with leading whitespace removed and
// lower-cased, begins with the opener marker (```graph by default). It ends
// at the first following line that begins with the closer marker (```).
// Nesting is not supported: a closer always terminates the open block, and
// openers found inside a block body are ignored.
//
// A block is recorded as a [Position]: the opener line index, the number of
// lines up to and including the closer, and the indentation of the opener.
package markdown
