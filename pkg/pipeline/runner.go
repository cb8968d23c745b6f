package pipeline

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mdgraph/pkg/errors"
	"github.com/matzehuels/mdgraph/pkg/markdown"
	"github.com/matzehuels/mdgraph/pkg/observability"
	"github.com/matzehuels/mdgraph/pkg/render"
)

// Runner executes runs against a renderer.
//
// The Runner holds no per-run state; multiple goroutines can use the same
// Runner with different options.
type Runner struct {
	Renderer render.Renderer
	Logger   *log.Logger

	// OnBlock, if set, is called after each block renders successfully.
	// It may be called from several goroutines when Jobs > 1.
	OnBlock func(b Block)
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(r render.Renderer, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{Renderer: r, Logger: logger}
}

// cachedRenderer is implemented by renderers that can report cache hits.
type cachedRenderer interface {
	RenderCached(ctx context.Context, description, output string) (bool, error)
}

// Execute runs load → locate → render → rewrite.
func (r *Runner) Execute(ctx context.Context, opts Options) (_ *Result, err error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	start := time.Now()

	result, err := r.load(opts)
	if err != nil {
		return nil, err
	}
	if opts.DryRun {
		return result.Result, nil
	}

	hooks := observability.Pipeline()
	hooks.OnRunStart(ctx, opts.Input, len(result.Blocks))
	defer func() {
		hooks.OnRunComplete(ctx, opts.Input, len(result.Blocks), time.Since(start), err)
	}()

	renderStart := time.Now()
	if err := r.renderAll(ctx, result.Blocks, opts); err != nil {
		return nil, err
	}
	result.Stats.RenderTime = time.Since(renderStart)
	for _, b := range result.Blocks {
		result.Stats.TotalBytes += b.Size
		if b.Cached {
			result.Stats.CacheHits++
		}
	}

	doc, positions := result.doc, result.positions()
	rewritten := markdown.Rewrite(doc.Lines, positions, opts.Links())
	if err := writeAtomic(opts.Output, func(w io.Writer) error {
		return writeLines(w, rewritten)
	}); err != nil {
		return nil, err
	}
	r.Logger.Info("wrote document", "output", opts.Output, "graphs", len(result.Blocks))

	if opts.HTML {
		path := opts.HTMLPath()
		if err := writeHTML(path, filepath.Base(opts.Input), rewritten); err != nil {
			return nil, err
		}
		result.HTML = path
		r.Logger.Info("wrote preview", "output", path)
	}

	result.Stats.TotalTime = time.Since(start)
	return result.Result, nil
}

// loaded carries the document alongside the public result.
type loaded struct {
	*Result
	doc markdown.Document
}

func (p loaded) positions() []markdown.Position {
	out := make([]markdown.Position, len(p.Blocks))
	for i, b := range p.Blocks {
		out[i] = b.Position
	}
	return out
}

// Scan loads the input and locates its graph blocks without rendering or
// writing anything.
func (r *Runner) Scan(opts Options) (*Result, error) {
	l, err := r.load(opts)
	if err != nil {
		return nil, err
	}
	return l.Result, nil
}

func (r *Runner) load(opts Options) (loaded, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return loaded{}, err
	}

	doc, err := markdown.LoadFile(opts.Input)
	if os.IsNotExist(err) {
		return loaded{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "input %s", opts.Input)
	}
	if err != nil {
		return loaded{}, errors.Wrap(errors.ErrCodeIO, err, "read %s", opts.Input)
	}

	positions, err := markdown.Locate(doc.Lines, opts.Markers)
	if err != nil {
		return loaded{}, errors.Wrap(errors.ErrCodeMalformedBlock, err, "%s", opts.Input)
	}
	descriptions := markdown.Extract(doc.Lines, positions)
	links := opts.Links()

	result := &Result{
		Input:  opts.Input,
		Output: opts.Output,
		Blocks: make([]Block, len(positions)),
		Stats:  Stats{Lines: len(doc.Lines)},
	}
	for i, p := range positions {
		name := links.Name(i)
		result.Blocks[i] = Block{
			Index:       i,
			Position:    p,
			Description: descriptions[i],
			Name:        name,
			Path:        filepath.Join(opts.ImageDir, name),
		}
	}
	r.Logger.Debug("located graph blocks", "input", opts.Input, "lines", len(doc.Lines), "graphs", len(positions))
	return loaded{Result: result, doc: doc}, nil
}

// renderAll renders every block, sequentially in index order when Jobs is 1.
// The first failure cancels blocks that have not started yet.
func (r *Runner) renderAll(ctx context.Context, blocks []Block, opts Options) error {
	if len(blocks) == 0 {
		return nil
	}
	if err := os.MkdirAll(opts.ImageDir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create image directory %s", opts.ImageDir)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Jobs)
	for i := range blocks {
		b := &blocks[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return r.renderBlock(ctx, b)
		})
	}
	return g.Wait()
}

func (r *Runner) renderBlock(ctx context.Context, b *Block) (err error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, b.Index, b.Path)
	start := time.Now()
	defer func() {
		b.Duration = time.Since(start)
		hooks.OnRenderComplete(ctx, b.Index, b.Path, int(b.Size), b.Duration, err)
	}()

	r.Logger.Debug("rendering graph", "index", b.Index, "line", b.Position.Start+1, "output", b.Path)

	if cr, ok := r.Renderer.(cachedRenderer); ok {
		b.Cached, err = cr.RenderCached(ctx, b.Description, b.Path)
	} else {
		err = r.Renderer.Render(ctx, b.Description, b.Path)
	}
	if err != nil {
		if stderrors.Is(err, context.Canceled) {
			return err
		}
		r.Logger.Error("render failed", "index", b.Index, "line", b.Position.Start+1, "output", b.Path, "err", err)
		return &errors.RenderError{Index: b.Index, Output: b.Path, Err: err}
	}

	if info, statErr := os.Stat(b.Path); statErr == nil {
		b.Size = info.Size()
	}
	r.Logger.Info("rendered graph",
		"output", b.Path,
		"size", humanize.Bytes(uint64(b.Size)),
		"cached", b.Cached,
		"duration", time.Since(start).Round(time.Millisecond))

	if r.OnBlock != nil {
		r.OnBlock(*b)
	}
	return nil
}
