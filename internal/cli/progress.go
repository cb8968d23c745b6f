package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/matzehuels/mdgraph/pkg/pipeline"
)

const progressWidth = 30

// blockDoneMsg reports one rendered block.
type blockDoneMsg pipeline.Block

// runDoneMsg reports the end of the run.
type runDoneMsg struct{ err error }

// progressModel is the bubbletea model behind --progress.
type progressModel struct {
	total  int
	done   int
	cached int
	bytes  int64
	last   string
	err    error
	quit   bool
}

func newProgressModel(total int) progressModel {
	return progressModel{total: total}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case blockDoneMsg:
		m.done++
		m.bytes += msg.Size
		m.last = msg.Name
		if msg.Cached {
			m.cached++
		}
	case runDoneMsg:
		m.err = msg.err
		m.quit = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quit = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.quit {
		return ""
	}

	filled := 0
	if m.total > 0 {
		filled = m.done * progressWidth / m.total
	}
	bar := StyleSuccess.Render(strings.Repeat("█", filled)) +
		StyleDim.Render(strings.Repeat("░", progressWidth-filled))

	line := fmt.Sprintf("%s %s %s",
		styleIconSpinner.Render(iconInfo),
		bar,
		StyleNumber.Render(fmt.Sprintf("%d/%d", m.done, m.total)))
	if m.last != "" {
		line += " " + StyleDim.Render(m.last)
	}
	if m.bytes > 0 {
		line += StyleDim.Render(" · " + humanize.Bytes(uint64(m.bytes)))
	}
	return line + "\n"
}

// trackProgress executes the run behind a bubbletea progress bar.
func trackProgress(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, total int) (*pipeline.Result, error) {
	p := tea.NewProgram(newProgressModel(total),
		tea.WithContext(ctx),
		tea.WithOutput(os.Stderr),
		tea.WithInput(nil),
	)

	runner.OnBlock = func(b pipeline.Block) {
		p.Send(blockDoneMsg(b))
	}

	var (
		result *pipeline.Result
		runErr error
	)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		result, runErr = runner.Execute(ctx, opts)
		p.Send(runDoneMsg{err: runErr})
	}()

	_, err := p.Run()
	<-finished
	if err != nil && !stderrors.Is(err, tea.ErrProgramKilled) {
		return nil, err
	}
	return result, runErr
}
