package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/matzehuels/mdgraph/internal/config"
	"github.com/matzehuels/mdgraph/pkg/buildinfo"
	"github.com/matzehuels/mdgraph/pkg/cache"
	"github.com/matzehuels/mdgraph/pkg/errors"
	"github.com/matzehuels/mdgraph/pkg/markdown"
)

const twoGraphs = "# Doc\n```graph\ndigraph { A -> B }\n```\ntext\n  ```graph\n  digraph { C }\n  ```\n"

// sandbox isolates a test from the user's config and cache and returns the
// working directory.
func sandbox(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeDoc(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "README.md")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootRequiresInput(t *testing.T) {
	sandbox(t)
	if _, err := execute(t); err == nil {
		t.Error("root command without input should fail")
	}
}

func TestVersion(t *testing.T) {
	sandbox(t)
	out, err := execute(t, "--version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, buildinfo.Version) {
		t.Errorf("--version output = %q", out)
	}
}

func TestConvertEmbedded(t *testing.T) {
	dir := sandbox(t)
	input := writeDoc(t, dir, twoGraphs)
	output := filepath.Join(dir, "out.md")

	_, err := execute(t, input, "-o", output, "--renderer", "embedded", "--no-cache", "--image-dir", dir)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	got, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	want := "# Doc\n![graph_000.svg](graph_000.svg)\n\ntext\n  ![graph_001.svg](graph_001.svg)\n\n"
	if string(got) != want {
		t.Errorf("output =\n%q\nwant\n%q", got, want)
	}
	for _, name := range []string{"graph_000.svg", "graph_001.svg"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("missing image %s: %v", name, err)
		}
		if !bytes.Contains(data, []byte("<svg")) {
			t.Errorf("%s is not an SVG", name)
		}
	}
}

func TestConvertMalformed(t *testing.T) {
	dir := sandbox(t)
	input := writeDoc(t, dir, "```graph\ndigraph { A }\n")

	_, err := execute(t, input, "--renderer", "embedded")
	if !errors.Is(err, errors.ErrCodeMalformedBlock) {
		t.Fatalf("err = %v, want MALFORMED_BLOCK", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "_index.md")); !os.IsNotExist(err) {
		t.Error("no output should be written for a malformed document")
	}
}

func TestConvertInvalidFlag(t *testing.T) {
	dir := sandbox(t)
	input := writeDoc(t, dir, twoGraphs)

	tests := []struct {
		args []string
		code errors.Code
	}{
		{[]string{"--format", "pdf"}, errors.ErrCodeInvalidFormat},
		{[]string{"--renderer", "remote"}, errors.ErrCodeInvalidRenderer},
		{[]string{"--engine", "spring"}, errors.ErrCodeInvalidEngine},
		{[]string{"--link-prefix", "http://cdn"}, errors.ErrCodeInvalidPath},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			_, err := execute(t, append([]string{input, "--dry-run"}, tt.args...)...)
			if errors.GetCode(err) != tt.code {
				t.Errorf("err = %v (code %s), want %s", err, errors.GetCode(err), tt.code)
			}
		})
	}
}

func TestDryRun(t *testing.T) {
	dir := sandbox(t)
	input := writeDoc(t, dir, twoGraphs)

	out, err := execute(t, input, "--dry-run", "--format", "png")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "graph_000.png") || !strings.Contains(out, "graph_001.png") {
		t.Errorf("dry run output missing image names:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "_index.md")); !os.IsNotExist(err) {
		t.Error("dry run should not write output")
	}
	if _, err := os.Stat(filepath.Join(dir, "graph_000.png")); !os.IsNotExist(err) {
		t.Error("dry run should not render")
	}
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	dir := sandbox(t)
	input := writeDoc(t, dir, twoGraphs)
	cfg := "[render]\nformat = \"png\"\nimage_dir = \"img\"\n"
	if err := os.WriteFile(filepath.Join(dir, ".mdgraph.toml"), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "list", input)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, filepath.Join("img", "graph_000.png")) {
		t.Errorf("config file not applied:\n%s", out)
	}

	out, err = execute(t, "list", input, "--format", "svg")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, filepath.Join("img", "graph_000.svg")) {
		t.Errorf("flag should override config file:\n%s", out)
	}
}

func TestExplicitConfigFlag(t *testing.T) {
	dir := sandbox(t)
	input := writeDoc(t, dir, "~~~dot\ndigraph { A }\n~~~\n")
	path := filepath.Join(dir, "custom.toml")
	os.WriteFile(path, []byte("[markers]\nopener = \"~~~dot\"\ncloser = \"~~~\"\n"), 0644)

	out, err := execute(t, "list", input, "--config", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "graph_000.svg") {
		t.Errorf("custom markers not applied:\n%s", out)
	}

	if _, err := execute(t, "list", input, "--config", filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("missing explicit config should fail")
	}
}

func TestListNoBlocks(t *testing.T) {
	dir := sandbox(t)
	input := writeDoc(t, dir, "# nothing here\n")

	out, err := execute(t, "list", input)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "no graph blocks") {
		t.Errorf("list output = %q", out)
	}
}

func TestCachePath(t *testing.T) {
	dir := sandbox(t)
	out, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "cache", appName)
	if strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}
}

func TestCacheClear(t *testing.T) {
	dir := sandbox(t)
	store, err := cache.NewFileCache(filepath.Join(dir, "cache", appName))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	store.Set(ctx, "a", []byte("1"), time.Hour)
	store.Set(ctx, "b", []byte("2"), time.Hour)

	if _, err := execute(t, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Get(ctx, "a"); ok {
		t.Error("cache clear should remove entries")
	}
}

func TestCompletion(t *testing.T) {
	sandbox(t)
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := execute(t, "completion", shell)
		if err != nil {
			t.Fatalf("completion %s: %v", shell, err)
		}
		if !strings.Contains(out, appName) {
			t.Errorf("completion %s output does not mention %s", shell, appName)
		}
	}
	if _, err := execute(t, "completion", "tcsh"); err == nil {
		t.Error("unsupported shell should fail")
	}
}

func TestCompleteFlagValues(t *testing.T) {
	sandbox(t)
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"__complete", "--format", ""}, []string{"png", "svg"}},
		{[]string{"__complete", "--renderer", ""}, []string{"embedded", "exec"}},
		{[]string{"__complete", "--engine", "ne"}, []string{"neato"}},
		{[]string{"__complete", "list", "--format", ""}, []string{"png", "svg"}},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args[1:], " "), func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w+"\n") {
					t.Errorf("completions %q missing %q", out, w)
				}
			}
		})
	}
}

func TestCompleteInputFiltersMarkdown(t *testing.T) {
	sandbox(t)
	out, err := execute(t, "__complete", "")
	if err != nil {
		t.Fatal(err)
	}
	for _, ext := range []string{"\nmd\n", "\nmarkdown\n"} {
		if !strings.Contains("\n"+out, ext) {
			t.Errorf("input completion missing extension %q:\n%s", strings.TrimSpace(ext), out)
		}
	}
}

func TestErrorLine(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "malformed block",
			err:  errors.Wrap(errors.ErrCodeMalformedBlock, &markdown.MalformedBlockError{Line: 2}, "README.md"),
			want: "README.md: line 3: graph block has no closing fence [MALFORMED_BLOCK]",
		},
		{
			name: "render failure",
			err:  &errors.RenderError{Index: 1, Output: "graph_001.svg", Err: errors.New(errors.ErrCodeRenderFailed, "dot: syntax error")},
			want: "graph 1 (graph_001.svg): dot: syntax error [RENDER_FAILED]",
		},
		{
			name: "uncoded",
			err:  fmt.Errorf("accepts 1 arg(s), received 0"),
			want: "accepts 1 arg(s), received 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorLine(tt.err); got != tt.want {
				t.Errorf("ErrorLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorLineFromRun(t *testing.T) {
	dir := sandbox(t)
	input := writeDoc(t, dir, "text\n```graph\ndigraph { A }\n")

	_, err := execute(t, input, "--dry-run")
	if err == nil {
		t.Fatal("malformed document should fail")
	}
	line := ErrorLine(err)
	if !strings.Contains(line, "line 2") || !strings.HasSuffix(line, "[MALFORMED_BLOCK]") {
		t.Errorf("ErrorLine() = %q", line)
	}
	if strings.Contains(line, "MALFORMED_BLOCK:") {
		t.Errorf("code prefix should be stripped from the message: %q", line)
	}
}

func TestNewCacheRedisUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Backend = config.BackendRedis
	cfg.Cache.RedisURL = "redis://127.0.0.1:1/0"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := newCache(withLogger(ctx, newLogger(io.Discard, LogInfo)), cfg)
	if err != nil {
		t.Fatalf("unreachable redis should not fail the run: %v", err)
	}
	defer store.Close()
	if _, ok := store.(cache.NullCache); !ok {
		t.Errorf("newCache = %T, want cache.NullCache", store)
	}
}

func TestNewCacheRedis(t *testing.T) {
	s := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Cache.Backend = config.BackendRedis
	cfg.Cache.RedisURL = "redis://" + s.Addr()

	store, err := newCache(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if _, ok := store.(*cache.RedisCache); !ok {
		t.Errorf("newCache = %T, want *cache.RedisCache", store)
	}
}

func writeRedisConfig(t *testing.T, dir, url string) {
	t.Helper()
	cfg := "[cache]\nbackend = \"redis\"\nredis_url = \"" + url + "\"\n"
	if err := os.WriteFile(filepath.Join(dir, ".mdgraph.toml"), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestConvertRedisUnreachable(t *testing.T) {
	dir := sandbox(t)
	input := writeDoc(t, dir, twoGraphs)
	writeRedisConfig(t, dir, "redis://127.0.0.1:1/0")

	if _, err := execute(t, input, "--renderer", "embedded"); err != nil {
		t.Fatalf("convert with unreachable redis: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "_index.md")); err != nil {
		t.Errorf("output not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "graph_001.svg")); err != nil {
		t.Errorf("image not written: %v", err)
	}
}

func TestConvertRedisCache(t *testing.T) {
	s := miniredis.RunT(t)
	dir := sandbox(t)
	input := writeDoc(t, dir, twoGraphs)
	writeRedisConfig(t, dir, "redis://"+s.Addr())

	if _, err := execute(t, input, "--renderer", "embedded"); err != nil {
		t.Fatalf("first convert: %v", err)
	}
	if got := len(s.Keys()); got != 2 {
		t.Fatalf("redis holds %d keys after first run, want 2", got)
	}

	os.Remove(filepath.Join(dir, "graph_000.svg"))
	if _, err := execute(t, input, "--renderer", "embedded"); err != nil {
		t.Fatalf("second convert: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "graph_000.svg"))
	if err != nil {
		t.Fatalf("image not restored from cache: %v", err)
	}
	if !bytes.Contains(data, []byte("<svg")) {
		t.Error("cached image is not an SVG")
	}
	if got := len(s.Keys()); got != 2 {
		t.Errorf("redis holds %d keys after second run, want 2", got)
	}
}
