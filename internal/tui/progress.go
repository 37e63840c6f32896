package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gerunddev/nbimport/internal/batch"
	"github.com/gerunddev/nbimport/internal/styles"
)

// ErrInterrupted is returned when the progress view is closed before the
// batch finishes
var ErrInterrupted = errors.New("batch interrupted")

// FileDoneMsg is sent after each notebook is handled
type FileDoneMsg struct {
	File batch.FileResult
}

// BatchDoneMsg is sent when the batch completes
type BatchDoneMsg struct {
	Result *batch.Result
	Err    error
}

// progressModel is the Bubble Tea model for the batch progress display
type progressModel struct {
	spinner   spinner.Model
	status    string
	converted int
	unchanged int
	failed    int
	complete  bool
	result    *batch.Result
	err       error
}

// NewProgress creates a new batch progress model
func NewProgress() progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SpinnerStyle

	return progressModel{
		spinner: s,
		status:  "Scanning notebooks...",
	}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case FileDoneMsg:
		switch msg.File.Status {
		case batch.StatusConverted:
			m.converted++
		case batch.StatusUnchanged:
			m.unchanged++
		case batch.StatusFailed:
			m.failed++
		}
		m.status = fmt.Sprintf("%s %s", msg.File.Status, filepath.Base(msg.File.Source))
		return m, nil

	case BatchDoneMsg:
		m.complete = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m progressModel) View() string {
	if m.complete {
		if m.err != nil {
			return styles.ErrorStyle.Render("✗ Batch failed: "+m.err.Error()) + "\n"
		}
		return Summary(m.result)
	}

	counts := styles.DimStyle.Render(fmt.Sprintf("%d converted, %d unchanged, %d failed", m.converted, m.unchanged, m.failed))
	return fmt.Sprintf("\n%s %s\n  %s\n\n", m.spinner.View(), m.status, counts)
}

// Summary renders a finished batch result
func Summary(r *batch.Result) string {
	if r == nil {
		return ""
	}
	duration := r.EndTime.Sub(r.StartTime).Round(time.Millisecond)

	if r.Converted == 0 && len(r.Errors) == 0 {
		return styles.SuccessStyle.Render("✓ Nothing to convert") + "\n" +
			styles.HelpStyle.Render(fmt.Sprintf("%d unchanged, completed in %v", r.Unchanged, duration)) + "\n"
	}

	msg := styles.SuccessStyle.Render(fmt.Sprintf("✓ Converted %d notebook(s)", r.Converted))
	if len(r.Errors) > 0 {
		msg += ", " + styles.ErrorStyle.Render(fmt.Sprintf("%d error(s)", len(r.Errors)))
	}
	msg += "\n"
	for _, err := range r.Errors {
		msg += styles.ErrorStyle.Render("  ✗ "+err.Error()) + "\n"
	}
	msg += styles.HelpStyle.Render(fmt.Sprintf("%d unchanged, completed in %v", r.Unchanged, duration)) + "\n"
	return msg
}

// RunProgress runs fn while showing a spinner. fn reports each handled
// notebook through onFile and must return once its ctx is cancelled.
// RunProgress does not return before fn does, so a batch interrupted from
// the keyboard has saved its state by then.
func RunProgress(ctx context.Context, fn func(ctx context.Context, onFile func(batch.FileResult)) (*batch.Result, error), opts ...tea.ProgramOption) (*batch.Result, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewProgress(), append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)

	var (
		result *batch.Result
		runErr error
		done   = make(chan struct{})
	)
	go func() {
		defer close(done)
		result, runErr = fn(runCtx, func(fr batch.FileResult) {
			p.Send(FileDoneMsg{File: fr})
		})
		p.Send(BatchDoneMsg{Result: result, Err: runErr})
	}()

	final, err := p.Run()
	cancel()
	<-done
	if err != nil {
		return result, err
	}

	m, ok := final.(progressModel)
	if !ok || !m.complete {
		return result, ErrInterrupted
	}
	return m.result, m.err
}
