// Package pipeline converts one markdown document: it locates the graph
// blocks, renders each one to an image and writes the rewritten document.
//
// # Architecture
//
// A run has four stages:
//
//  1. Load: read the input into lines
//  2. Locate: find every graph block (a malformed block aborts here)
//  3. Render: turn each block description into graph_NNN.<format>
//  4. Rewrite: replace each block with a link and write the output
//
// The output document is written only after every image rendered; it is
// created under a temporary name and renamed into place, so a failed run
// never leaves a partial output behind.
//
// # Usage
//
//	r, _ := render.New(render.Options{})
//	runner := pipeline.NewRunner(r, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:  "README.md",
//	    Output: "_index.md",
//	})
package pipeline

import (
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/matzehuels/mdgraph/pkg/errors"
	"github.com/matzehuels/mdgraph/pkg/markdown"
	"github.com/matzehuels/mdgraph/pkg/render"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultOutput is the rewritten document's file name.
	DefaultOutput = "_index.md"

	// DefaultImageDir is where images are written: the working directory.
	DefaultImageDir = "."

	// DefaultJobs renders one block at a time, in document order.
	DefaultJobs = 1
)

// MaxJobs caps parallel renders.
var MaxJobs = 4 * runtime.NumCPU()

// =============================================================================
// Options
// =============================================================================

// Options configures a run.
type Options struct {
	Input      string           // markdown document to convert
	Output     string           // rewritten document, DefaultOutput if empty
	ImageDir   string           // directory for generated images, DefaultImageDir if empty
	LinkPrefix string           // prepended to link targets in the output
	Format     string           // image format, svg if empty
	Markers    markdown.Markers // block delimiters, ```graph / ``` if empty
	Jobs       int              // parallel renders, 1 if zero
	HTML       bool             // also write an HTML preview next to Output
	DryRun     bool             // locate blocks only; render and write nothing

	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := errors.ValidatePath(o.Input); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "input")
	}
	if o.Output == "" {
		o.Output = DefaultOutput
	}
	if err := errors.ValidatePath(o.Output); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "output")
	}
	if o.HTML && strings.EqualFold(filepath.Ext(o.Output), ".html") {
		return errors.New(errors.ErrCodeInvalidInput, "output %s would be overwritten by the HTML preview", o.Output)
	}
	if o.ImageDir == "" {
		o.ImageDir = DefaultImageDir
	}
	if err := errors.ValidateLinkPrefix(o.LinkPrefix); err != nil {
		return err
	}
	if o.Format == "" {
		o.Format = render.DefaultFormat
	}
	if err := errors.ValidateFormat(o.Format, render.ValidFormats); err != nil {
		return err
	}
	if o.Markers == (markdown.Markers{}) {
		o.Markers = markdown.DefaultMarkers()
	}
	if err := o.Markers.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "markers")
	}
	if o.Jobs <= 0 {
		o.Jobs = DefaultJobs
	}
	if o.Jobs > MaxJobs {
		o.Jobs = MaxJobs
	}
	o.validated = true
	return nil
}

// Links returns the link builder for these options.
func (o *Options) Links() markdown.Links {
	return markdown.Links{Format: o.Format, Prefix: o.LinkPrefix}
}

// HTMLPath returns where the HTML preview is written.
func (o *Options) HTMLPath() string {
	return o.Output[:len(o.Output)-len(filepath.Ext(o.Output))] + ".html"
}

// =============================================================================
// Result
// =============================================================================

// Block is one located graph block and its rendered image.
type Block struct {
	Index       int
	Position    markdown.Position
	Description string
	Name        string // graph_NNN.<format>
	Path        string // Name joined with the image directory
	Size        int64  // bytes written; zero until rendered
	Cached      bool   // image came from the render cache
	Duration    time.Duration
}

// Result describes a finished (or dry) run.
type Result struct {
	Input  string
	Output string
	HTML   string // preview path, empty unless requested
	Blocks []Block
	Stats  Stats
}

// Stats contains run statistics.
type Stats struct {
	Lines      int
	CacheHits  int
	TotalBytes int64
	RenderTime time.Duration
	TotalTime  time.Duration
}
