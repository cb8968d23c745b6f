package pipeline

import (
	"bufio"
	"bytes"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/matzehuels/mdgraph/pkg/errors"
)

// writeAtomic writes path through a temp file in the same directory and
// renames it into place. On failure the temp file is removed and path is
// left untouched.
func writeAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create directory %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".mdgraph-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	return nil
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

var markdownHTML = goldmark.New(goldmark.WithExtensions(extension.GFM))

const htmlPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`

// writeHTML renders the rewritten markdown as a standalone HTML page.
func writeHTML(path, title string, lines []string) error {
	var body bytes.Buffer
	if err := markdownHTML.Convert([]byte(strings.Join(lines, "")), &body); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "convert %s to HTML", title)
	}
	return writeAtomic(path, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, htmlPage, html.EscapeString(title), body.String())
		return err
	})
}
