// Package render turns graph descriptions into image files.
//
// # Overview
//
// The rest of mdgraph only depends on the [Renderer] interface:
//
//	type Renderer interface {
//	    Render(ctx context.Context, description, output string) error
//	}
//
// Two implementations drive Graphviz:
//
//   - [Exec] runs the Graphviz binary (dot by default). The description is
//     written to a uniquely named temp file which is removed afterwards, and
//     the binary is invoked as `dot -Tsvg <tmp> -o <output>`.
//   - [Embedded] renders in-process with go-graphviz (a WASM build of
//     Graphviz), so no binary has to be installed.
//
// [Cached] wraps either one and serves repeated descriptions from a
// [cache.Cache] without invoking Graphviz again.
//
//	r, err := render.New(render.Options{Kind: render.KindExec, Format: "svg"})
//	err = r.Render(ctx, "digraph { a -> b }", "graph_000.svg")
//
// # Formats
//
// SVG is the default. PNG is supported by both renderers.
//
// # Engines
//
// Graphviz provides several layout engines via [Options.Engine]:
//
//   - dot: Hierarchical (default)
//   - neato: Spring model
//   - fdp, sfdp: Force-directed
//   - circo: Circular
//   - twopi: Radial
//   - osage, patchwork: Clustered and squarified layouts
//
// [cache.Cache]: github.com/matzehuels/mdgraph/pkg/cache.Cache
package render
