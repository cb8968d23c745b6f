package render

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/mdgraph/pkg/errors"
)

// Exec renders by running the Graphviz binary.
type Exec struct {
	Binary  string
	Engine  string
	Format  string
	Timeout time.Duration
	TempDir string
}

// Render writes description to a temp file, runs
// `<binary> -T<format> [-K<engine>] <tmp> -o <output>` and removes the
// temp file whatever the outcome.
func (e *Exec) Render(ctx context.Context, description, output string) error {
	bin := e.Binary
	if bin == "" {
		bin = DefaultBinary
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRenderFailed, err,
			"graphviz binary %q not found. Install with:\n  macOS:  brew install graphviz\n  Linux:  apt install graphviz", bin)
	}

	tmp := e.tempPath(output)
	if err := os.WriteFile(tmp, []byte(description), 0600); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", tmp)
	}
	defer os.Remove(tmp)

	ctx, cancel := withTimeout(ctx, e.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, e.args(tmp, output)...)
	var errBuf bytes.Buffer
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		if stderrors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "%s did not finish within %s", bin, e.Timeout)
		}
		if msg := strings.TrimSpace(errBuf.String()); msg != "" {
			return errors.Wrap(errors.ErrCodeRenderFailed, err, "%s: %s", bin, msg)
		}
		return errors.Wrap(errors.ErrCodeRenderFailed, err, "%s", bin)
	}
	return nil
}

func (e *Exec) args(input, output string) []string {
	format := e.Format
	if format == "" {
		format = DefaultFormat
	}
	args := []string{"-T" + format}
	if e.Engine != "" && e.Engine != DefaultEngine {
		args = append(args, "-K"+e.Engine)
	}
	return append(args, input, "-o", output)
}

// tempPath names the description file after the output plus a uuid, so
// concurrent renders never collide.
func (e *Exec) tempPath(output string) string {
	name := filepath.Base(output) + "." + uuid.NewString() + ".tmp"
	if e.TempDir != "" {
		return filepath.Join(e.TempDir, name)
	}
	return filepath.Join(filepath.Dir(output), name)
}
