package render

import (
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/mdgraph/pkg/errors"
)

func TestOptionsDefaults(t *testing.T) {
	var o Options
	o.SetDefaults()
	if o.Kind != KindExec || o.Binary != "dot" || o.Engine != "dot" || o.Format != "svg" {
		t.Errorf("SetDefaults() = %+v", o)
	}
	if err := o.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"bad kind", Options{Kind: "cloud", Engine: "dot", Format: "svg"}, errors.ErrCodeInvalidRenderer},
		{"bad engine", Options{Kind: KindExec, Engine: "graphite", Format: "svg"}, errors.ErrCodeInvalidEngine},
		{"bad format", Options{Kind: KindExec, Engine: "dot", Format: "pdf"}, errors.ErrCodeInvalidFormat},
		{"negative timeout", Options{Kind: KindExec, Engine: "dot", Format: "svg", Timeout: -time.Second}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if !errors.Is(err, tt.code) {
				t.Errorf("Validate() = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestNew(t *testing.T) {
	r, err := New(Options{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, ok := r.(*Exec); !ok {
		t.Errorf("New() default = %T, want *Exec", r)
	}

	r, err = New(Options{Kind: KindEmbedded, Engine: "neato", Format: "png"})
	if err != nil {
		t.Fatalf("New(embedded) error: %v", err)
	}
	emb, ok := r.(*Embedded)
	if !ok || emb.Engine != "neato" || emb.Format != "png" {
		t.Errorf("New(embedded) = %#v", r)
	}

	if _, err := New(Options{Format: "gif"}); err == nil {
		t.Error("New() should reject an unknown format")
	}
}

func TestFunc(t *testing.T) {
	var got string
	r := Func(func(ctx context.Context, description, output string) error {
		got = description + "|" + output
		return nil
	})
	if err := r.Render(context.Background(), "a;", "out.svg"); err != nil {
		t.Fatal(err)
	}
	if got != "a;|out.svg" {
		t.Errorf("Func called with %q", got)
	}
}

func TestExecArgs(t *testing.T) {
	tests := []struct {
		name string
		exec Exec
		want string
	}{
		{"defaults", Exec{}, "-Tsvg in.tmp -o out.svg"},
		{"png", Exec{Format: "png"}, "-Tpng in.tmp -o out.svg"},
		{"dot engine adds nothing", Exec{Engine: "dot"}, "-Tsvg in.tmp -o out.svg"},
		{"neato", Exec{Engine: "neato"}, "-Tsvg -Kneato in.tmp -o out.svg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(tt.exec.args("in.tmp", "out.svg"), " ")
			if got != tt.want {
				t.Errorf("args() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecTempPath(t *testing.T) {
	e := &Exec{}
	a := e.tempPath("docs/graph_000.svg")
	b := e.tempPath("docs/graph_000.svg")
	if a == b {
		t.Error("tempPath() should be unique per call")
	}
	if filepath.Dir(a) != "docs" || !strings.HasPrefix(filepath.Base(a), "graph_000.svg.") || !strings.HasSuffix(a, ".tmp") {
		t.Errorf("tempPath() = %q", a)
	}

	e.TempDir = "/var/tmp"
	if got := e.tempPath("docs/graph_001.svg"); filepath.Dir(got) != "/var/tmp" {
		t.Errorf("tempPath() with TempDir = %q", got)
	}
}

func TestExecMissingBinary(t *testing.T) {
	e := &Exec{Binary: "mdgraph-no-such-binary"}
	err := e.Render(context.Background(), "digraph { a }", filepath.Join(t.TempDir(), "g.svg"))
	if !errors.Is(err, errors.ErrCodeRenderFailed) {
		t.Errorf("Render() = %v, want RENDER_FAILED", err)
	}
}

// fakeBinary writes a shell script standing in for dot.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "fakedot")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecInvokesBinary(t *testing.T) {
	// args: -Tsvg <tmp> -o <output>; copy the description into the output.
	bin := fakeBinary(t, `cp "$2" "$4"`+"\n")
	dir := t.TempDir()
	out := filepath.Join(dir, "graph_000.svg")

	e := &Exec{Binary: bin}
	if err := e.Render(context.Background(), "A -> B;\n", out); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil || string(data) != "A -> B;\n" {
		t.Errorf("output = %q, %v", data, err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp file left behind: %d entries in %s", len(entries), dir)
	}
}

func TestExecFailure(t *testing.T) {
	bin := fakeBinary(t, "echo 'syntax error in line 1' >&2\nexit 1\n")
	dir := t.TempDir()

	e := &Exec{Binary: bin}
	err := e.Render(context.Background(), "not a graph", filepath.Join(dir, "graph_000.svg"))
	if !errors.Is(err, errors.ErrCodeRenderFailed) {
		t.Fatalf("Render() = %v, want RENDER_FAILED", err)
	}
	if !strings.Contains(err.Error(), "syntax error in line 1") {
		t.Errorf("error should carry stderr: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("temp file left behind after failure: %d entries", len(entries))
	}
}

func TestExecTimeout(t *testing.T) {
	bin := fakeBinary(t, "exec sleep 5\n")
	e := &Exec{Binary: bin, Timeout: 50 * time.Millisecond}
	err := e.Render(context.Background(), "a", filepath.Join(t.TempDir(), "g.svg"))
	if !errors.Is(err, errors.ErrCodeTimeout) {
		t.Errorf("Render() = %v, want TIMEOUT", err)
	}
}

func TestExecCanceled(t *testing.T) {
	bin := fakeBinary(t, "exec sleep 5\n")
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	err := (&Exec{Binary: bin}).Render(ctx, "a", filepath.Join(dir, "g.svg"))
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("Render() = %v, want context.Canceled", err)
	}
	if errors.Is(err, errors.ErrCodeRenderFailed) {
		t.Error("an interrupted render is not a render failure")
	}
	if time.Since(start) > 4*time.Second {
		t.Error("Render() should return as soon as the context is canceled")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("temp file left behind after cancel: %d entries", len(entries))
	}
}

func TestExecRealDot(t *testing.T) {
	if _, err := exec.LookPath("dot"); err != nil {
		t.Skip("graphviz not installed")
	}
	out := filepath.Join(t.TempDir(), "graph_000.svg")
	if err := (&Exec{}).Render(context.Background(), "digraph { a -> b; }\n", out); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	data, _ := os.ReadFile(out)
	if !strings.Contains(string(data), "<svg") {
		t.Error("output missing <svg> tag")
	}
}

func TestEmbeddedRenderSVG(t *testing.T) {
	e := &Embedded{Format: FormatSVG}
	out := filepath.Join(t.TempDir(), "graph_000.svg")
	if err := e.Render(context.Background(), "digraph G { a -> b; }", out); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	data, _ := os.ReadFile(out)
	if !strings.Contains(string(data), "<svg") {
		t.Error("output missing <svg> tag")
	}
}

func TestEmbeddedInvalidDescription(t *testing.T) {
	e := &Embedded{}
	_, err := e.RenderBytes(context.Background(), "not valid DOT {{{")
	if err == nil {
		t.Error("RenderBytes() should fail for invalid DOT")
	}
}

func TestEmbeddedCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := filepath.Join(t.TempDir(), "graph_000.svg")
	err := (&Embedded{}).Render(ctx, "digraph G { a -> b; }", out)
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("Render() = %v, want context.Canceled", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("no image should be written for a canceled render")
	}
}
