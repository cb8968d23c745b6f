// Package pkg provides the libraries behind mdgraph, which renders the
// graph blocks of a markdown document to images and links them in place.
//
// # Overview
//
// The pkg directory is organized by concern:
//
//  1. [markdown] - Block location, extraction and document rewriting (pure)
//  2. [render] - Renderers: the Graphviz binary, embedded Graphviz, caching
//  3. [cache] - Cache backends for rendered images (file, redis, null)
//  4. [pipeline] - Orchestration (load → locate → render → rewrite)
//  5. [errors], [observability], [buildinfo] - Supporting packages
//
// # Architecture
//
// The data flow of one run:
//
//	README.md
//	    ↓
//	[markdown] Load, Locate, Extract
//	    ↓
//	[render] graph_000.svg, graph_001.svg, ...
//	    ↓
//	[markdown] Rewrite
//	    ↓
//	_index.md
//
// # Quick Start
//
//	r, err := render.New(render.Options{Kind: render.KindEmbedded})
//	if err != nil {
//	    return err
//	}
//	result, err := pipeline.NewRunner(r, logger).Execute(ctx, pipeline.Options{
//	    Input: "README.md",
//	})
//
// [markdown]: https://pkg.go.dev/github.com/matzehuels/mdgraph/pkg/markdown
// [render]: https://pkg.go.dev/github.com/matzehuels/mdgraph/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/mdgraph/pkg/cache
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/mdgraph/pkg/pipeline
// [errors]: https://pkg.go.dev/github.com/matzehuels/mdgraph/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/mdgraph/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/mdgraph/pkg/buildinfo
package pkg
