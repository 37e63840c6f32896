package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/nbimport/internal/batch"
	"github.com/gerunddev/nbimport/internal/plugin"
	"github.com/gerunddev/nbimport/internal/styles"
)

// Candidate is a notebook offered by the file chooser
type Candidate struct {
	Path    string
	Rel     string
	Size    int64
	ModTime time.Time
}

// PreviewFunc renders a notebook for the preview pane
type PreviewFunc func(path string, width int) (string, error)

// ListCandidates finds every file with the extension under dir, newest first
func ListCandidates(dir, ext string) ([]Candidate, error) {
	paths, err := batch.ScanDirectory(dir, ext)
	if err != nil {
		return nil, err
	}

	var files []Candidate
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			rel = p
		}
		files = append(files, Candidate{
			Path:    p,
			Rel:     rel,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

type chooserModel struct {
	table          table.Model
	viewport       viewport.Model
	dir            string
	files          []Candidate
	preview        PreviewFunc
	showingPreview bool
	previewErr     error
	chosen         string
	cancelled      bool
	width          int
	height         int
}

// NewChooser creates a file chooser over files found in dir
func NewChooser(dir string, files []Candidate, preview PreviewFunc) chooserModel {
	columns := []table.Column{
		{Title: "Notebook", Width: 50},
		{Title: "Size", Width: 10},
		{Title: "Modified", Width: 20},
	}

	rows := make([]table.Row, 0, len(files))
	for _, f := range files {
		rows = append(rows, table.Row{
			f.Rel,
			humanSize(f.Size),
			f.ModTime.Format(time.DateTime),
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(20),
	)

	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(styles.Border)).
		BorderBottom(true).
		Bold(false)
	ts.Selected = ts.Selected.
		Foreground(lipgloss.Color(styles.Background)).
		Background(lipgloss.Color(styles.Yellow)).
		Bold(false)
	t.SetStyles(ts)

	vp := viewport.New(100, 20)
	vp.Style = styles.PreviewStyle

	return chooserModel{
		table:    t,
		viewport: vp,
		dir:      dir,
		files:    files,
		preview:  preview,
	}
}

func (m chooserModel) Init() tea.Cmd {
	return nil
}

func (m chooserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(msg.Height-8, 3))
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = max(msg.Height-6, 3)

	case tea.KeyMsg:
		if m.showingPreview {
			switch msg.String() {
			case "ctrl+c":
				m.cancelled = true
				return m, tea.Quit
			case "q", "esc", "p":
				m.showingPreview = false
				return m, nil
			case "enter":
				return m.choose()
			default:
				m.viewport, cmd = m.viewport.Update(msg)
				return m, cmd
			}
		}

		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			return m.choose()
		case "p", "tab":
			m.openPreview()
			return m, nil
		default:
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m chooserModel) choose() (tea.Model, tea.Cmd) {
	f, ok := m.selected()
	if !ok {
		return m, nil
	}
	m.chosen = f.Path
	return m, tea.Quit
}

func (m *chooserModel) openPreview() {
	f, ok := m.selected()
	if !ok || m.preview == nil {
		return
	}

	width := m.viewport.Width - 4
	if width <= 0 {
		width = 80
	}
	content, err := m.preview(f.Path, width)
	m.previewErr = err
	if err != nil {
		content = styles.ErrorStyle.Render("✗ " + err.Error())
	}
	m.viewport.SetContent(content)
	m.viewport.GotoTop()
	m.showingPreview = true
}

func (m chooserModel) selected() (Candidate, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.files) {
		return Candidate{}, false
	}
	return m.files[idx], true
}

func (m chooserModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("Open IPython Notebook"))
	b.WriteString("\n\n")

	if m.showingPreview {
		if f, ok := m.selected(); ok {
			b.WriteString(styles.LabelStyle.Render("Preview: " + f.Rel))
			b.WriteString("\n\n")
		}
		b.WriteString(m.viewport.View())
		b.WriteString("\n\n")
		b.WriteString(styles.HelpStyle.Render("↑/k up • ↓/j down • enter open • esc/q back"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(styles.LabelStyle.Render(fmt.Sprintf("%s (%d notebooks)", m.dir, len(m.files))))
	b.WriteString("\n\n")
	b.WriteString(styles.TableStyle.Render(m.table.View()))
	b.WriteString("\n\n")
	b.WriteString(styles.HelpStyle.Render("↑/k up • ↓/j down • enter open • p preview • q cancel"))
	b.WriteString("\n")
	return b.String()
}

// Chosen returns the selected path, or plugin.ErrCancelled
func (m chooserModel) Chosen() (string, error) {
	if m.cancelled || m.chosen == "" {
		return "", plugin.ErrCancelled
	}
	return m.chosen, nil
}

// ChooseFile runs the interactive chooser over notebooks under dir
func ChooseFile(ctx context.Context, dir, ext string, preview PreviewFunc) (string, error) {
	files, err := ListCandidates(dir, ext)
	if err != nil {
		return "", fmt.Errorf("failed to list %s: %w", dir, err)
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no %s files under %s", ext, dir)
	}

	p := tea.NewProgram(NewChooser(dir, files, preview), tea.WithContext(ctx), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return "", err
	}

	m, ok := final.(chooserModel)
	if !ok {
		return "", plugin.ErrCancelled
	}
	return m.Chosen()
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
