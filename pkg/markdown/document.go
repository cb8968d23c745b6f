package markdown

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Document is a markdown file split into lines.
// Every line keeps its own terminator, so concatenating Lines reproduces the
// original content byte for byte.
type Document struct {
	Path  string
	Lines []string
}

// Load reads r into a Document.
func Load(r io.Reader) (Document, error) {
	br := bufio.NewReader(r)
	var lines []string
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lines = append(lines, line)
		}
		if err == io.EOF {
			return Document{Lines: lines}, nil
		}
		if err != nil {
			return Document{}, err
		}
	}
}

// LoadFile reads the file at path into a Document.
func LoadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()

	doc, err := Load(f)
	if err != nil {
		return Document{}, err
	}
	doc.Path = path
	return doc, nil
}

// String joins the lines back into the document text.
func (d Document) String() string {
	return strings.Join(d.Lines, "")
}
