package render

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/mdgraph/pkg/errors"
)

// Embedded renders in-process with go-graphviz.
type Embedded struct {
	Engine  string
	Format  string
	Timeout time.Duration
}

// Render renders description and writes the image to output.
func (e *Embedded) Render(ctx context.Context, description, output string) error {
	data, err := e.RenderBytes(ctx, description)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", output)
	}
	return nil
}

// RenderBytes renders description and returns the image bytes.
func (e *Embedded) RenderBytes(ctx context.Context, description string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, e.Timeout)
	defer cancel()

	gv, err := graphviz.New(ctx)
	if err != nil {
		if stderrors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	if e.Engine != "" {
		gv.SetLayout(graphviz.Layout(e.Engine))
	}

	g, err := graphviz.ParseBytes([]byte(description))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "parse graph description")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, e.format(), &buf); err != nil {
		if stderrors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "render did not finish within %s", e.Timeout)
		}
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "render")
	}
	return buf.Bytes(), nil
}

func (e *Embedded) format() graphviz.Format {
	if e.Format == FormatPNG {
		return graphviz.PNG
	}
	return graphviz.SVG
}
