package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/nbimport/internal/styles"
)

// StatusData holds all the information for the status display
type StatusData struct {
	NotebookDir string
	OutputDir   string
	StatePath   string
	Interval    time.Duration
	Rows        []StatusRow
	LastBatch   time.Time
	Converted   int
	LogLines    []string
}

// StatusRow is one tracked notebook
type StatusRow struct {
	Source      string
	Output      string
	Cells       int
	Skipped     int
	ConvertedAt time.Time
	Pending     bool
}

// RenderStatus renders the status report
func RenderStatus(data *StatusData) string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("nbimport status"))
	b.WriteString("\n\n")

	outDir := data.OutputDir
	if outDir == "" {
		outDir = "(next to each notebook)"
	}
	field := func(label, value string) {
		b.WriteString(styles.LabelStyle.Render(fmt.Sprintf("%-14s", label)))
		b.WriteString(styles.ValueStyle.Render(value))
		b.WriteString("\n")
	}
	field("Notebooks:", data.NotebookDir)
	field("Output:", outDir)
	field("State:", data.StatePath)
	if data.Interval > 0 {
		field("Interval:", data.Interval.String())
	}
	if !data.LastBatch.IsZero() {
		field("Last batch:", fmt.Sprintf("%s (%d converted)", data.LastBatch.Format(time.DateTime), data.Converted))
	}
	b.WriteString("\n")

	if len(data.Rows) == 0 {
		b.WriteString(styles.DimStyle.Render("No notebooks converted yet"))
		b.WriteString("\n")
		return b.String()
	}

	pending := 0
	rows := make([]table.Row, 0, len(data.Rows))
	for _, r := range data.Rows {
		status := "✓ current"
		if r.Pending {
			pending++
			status = "→ pending"
		}
		cells := fmt.Sprintf("%d", r.Cells)
		if r.Skipped > 0 {
			cells += fmt.Sprintf(" (+%d)", r.Skipped)
		}
		rows = append(rows, table.Row{
			filepath.Base(r.Source),
			cells,
			r.ConvertedAt.Format(time.DateTime),
			status,
		})
	}

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Notebook", Width: 40},
			{Title: "Cells", Width: 10},
			{Title: "Converted", Width: 20},
			{Title: "Status", Width: 12},
		}),
		table.WithRows(rows),
		table.WithHeight(len(rows)+2),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(styles.Border)).
		BorderBottom(true).
		Bold(false)
	ts.Selected = lipgloss.NewStyle()
	t.SetStyles(ts)

	b.WriteString(styles.LabelStyle.Render(fmt.Sprintf("Tracked: %d, pending: %d", len(data.Rows), pending)))
	b.WriteString("\n")
	b.WriteString(styles.TableStyle.Render(t.View()))
	b.WriteString("\n")

	if len(data.LogLines) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.LabelStyle.Render("Recent log:"))
		b.WriteString("\n")
		for _, line := range data.LogLines {
			if strings.TrimSpace(line) == "" {
				continue
			}
			b.WriteString(styles.DimStyle.Render("  " + line))
			b.WriteString("\n")
		}
	}

	return b.String()
}
