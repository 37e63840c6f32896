// Package styles holds the terminal palette shared by the commands and
// the interactive views.
package styles

import "github.com/charmbracelet/lipgloss"

// Monokai Pro color palette
const (
	Background = "#2D2A2E"
	Foreground = "#FCFCFA"

	Red     = "#FF6188"
	Orange  = "#FC9867"
	Yellow  = "#FFD866"
	Green   = "#A9DC76"
	Cyan    = "#78DCE8"
	Purple  = "#AB9DF2"
	Comment = "#727072"
	Border  = "#5B595C"
)

// Common styles
var (
	SuccessStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(Green))
	ErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(Red))
	WarningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(Orange))
	DimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color(Comment))
	TitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(Red))
	HighlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(Yellow)).Bold(true)
	LabelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(Comment))
	ValueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(Foreground))
	SpinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(Purple))
	HelpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(Comment))

	TableStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(Border))

	PreviewStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(Border)).
			Padding(0, 1)
)

// Cell kind badges used in notebook previews
var (
	CodeBadge     = lipgloss.NewStyle().Foreground(lipgloss.Color(Cyan)).Bold(true)
	MarkdownBadge = lipgloss.NewStyle().Foreground(lipgloss.Color(Green)).Bold(true)
	TextBadge     = lipgloss.NewStyle().Foreground(lipgloss.Color(Comment)).Bold(true)
	SectionBadge  = lipgloss.NewStyle().Foreground(lipgloss.Color(Yellow)).Bold(true)
	SkippedBadge  = lipgloss.NewStyle().Foreground(lipgloss.Color(Orange)).Bold(true)
)

// Badge returns the badge style for a Beaker cell type
func Badge(cellType string) lipgloss.Style {
	switch cellType {
	case "code":
		return CodeBadge
	case "markdown":
		return MarkdownBadge
	case "text":
		return TextBadge
	case "section":
		return SectionBadge
	default:
		return SkippedBadge
	}
}
