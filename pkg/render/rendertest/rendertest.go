// Package rendertest provides a fake Renderer for tests.
package rendertest

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
)

// Call records one Render invocation.
type Call struct {
	Description string
	Output      string
}

// Fake writes "<svg><!-- description --></svg>" to the output path and
// records every call. It is safe for concurrent use.
type Fake struct {
	// Fail maps an output path to the error returned for it.
	Fail map[string]error

	mu    sync.Mutex
	calls []Call
}

// Render implements render.Renderer.
func (f *Fake) Render(ctx context.Context, description, output string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.calls = append(f.calls, Call{Description: description, Output: output})
	f.mu.Unlock()

	if err, ok := f.Fail[output]; ok {
		return err
	}
	return os.WriteFile(output, []byte(Image(description)), 0644)
}

// Calls returns the recorded calls in invocation order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// SortedCalls returns the recorded calls ordered by output path.
func (f *Fake) SortedCalls() []Call {
	calls := f.Calls()
	sort.Slice(calls, func(i, j int) bool { return calls[i].Output < calls[j].Output })
	return calls
}

// Image returns the bytes Fake writes for description.
func Image(description string) string {
	return fmt.Sprintf("<svg><!-- %s --></svg>", description)
}
