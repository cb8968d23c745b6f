package render

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/mdgraph/pkg/errors"
)

// Renderer produces an image at output from a graph description.
// Implementations must be safe for concurrent use with distinct outputs.
type Renderer interface {
	Render(ctx context.Context, description, output string) error
}

// Func adapts a function to the Renderer interface.
type Func func(ctx context.Context, description, output string) error

// Render calls f.
func (f Func) Render(ctx context.Context, description, output string) error {
	return f(ctx, description, output)
}

// Renderer kinds.
const (
	KindExec     = "exec"
	KindEmbedded = "embedded"
)

// Output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// Defaults.
const (
	DefaultBinary = "dot"
	DefaultEngine = "dot"
	DefaultFormat = FormatSVG
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG: true,
	FormatPNG: true,
}

// ValidKinds is the set of supported renderer kinds.
var ValidKinds = map[string]bool{
	KindExec:     true,
	KindEmbedded: true,
}

// ValidEngines is the set of Graphviz layout engines.
var ValidEngines = map[string]bool{
	"dot":       true,
	"neato":     true,
	"fdp":       true,
	"sfdp":      true,
	"circo":     true,
	"twopi":     true,
	"osage":     true,
	"patchwork": true,
}

// Options selects and configures a Renderer.
type Options struct {
	Kind    string        // exec (default) or embedded
	Binary  string        // Graphviz binary for exec, dot if empty
	Engine  string        // layout engine, dot if empty
	Format  string        // svg (default) or png
	Timeout time.Duration // per-graph limit, none if zero
	TempDir string        // where exec writes descriptions; next to the output if empty
}

// SetDefaults fills empty fields.
func (o *Options) SetDefaults() {
	if o.Kind == "" {
		o.Kind = KindExec
	}
	if o.Binary == "" {
		o.Binary = DefaultBinary
	}
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
}

// Validate checks kind, engine and format.
func (o Options) Validate() error {
	if !ValidKinds[o.Kind] {
		return errors.New(errors.ErrCodeInvalidRenderer, "unknown renderer: %q (must be 'exec' or 'embedded')", o.Kind)
	}
	if !ValidEngines[o.Engine] {
		return errors.New(errors.ErrCodeInvalidEngine, "unknown layout engine: %q", o.Engine)
	}
	if err := errors.ValidateFormat(o.Format, ValidFormats); err != nil {
		return err
	}
	if o.Timeout < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "timeout cannot be negative")
	}
	return nil
}

// New builds the renderer described by opts.
func New(opts Options) (Renderer, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	switch opts.Kind {
	case KindEmbedded:
		return &Embedded{Engine: opts.Engine, Format: opts.Format, Timeout: opts.Timeout}, nil
	case KindExec:
		return &Exec{
			Binary:  opts.Binary,
			Engine:  opts.Engine,
			Format:  opts.Format,
			Timeout: opts.Timeout,
			TempDir: opts.TempDir,
		}, nil
	default:
		return nil, fmt.Errorf("unreachable renderer kind %q", opts.Kind)
	}
}

// withTimeout applies d to ctx when positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}
