package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/gerunddev/nbimport/internal/beaker"
	"github.com/gerunddev/nbimport/internal/importer"
)

// NotebookMarkdown renders a converted notebook as markdown, one block
// per cell in document order
func NotebookMarkdown(nb *beaker.Notebook) string {
	var b strings.Builder

	for i, c := range nb.Cells {
		if i > 0 {
			b.WriteString("\n")
		}
		switch cell := c.(type) {
		case *beaker.SectionCell:
			level := 1
			if cell.Level != nil && *cell.Level > 0 {
				level = min(*cell.Level, 6)
			}
			title := ""
			if cell.Title != nil {
				title = *cell.Title
			}
			fmt.Fprintf(&b, "%s %s\n", strings.Repeat("#", level), title)

		case *beaker.MarkdownCell:
			b.WriteString(cell.Body)
			b.WriteString("\n")

		case *beaker.TextCell:
			for _, line := range strings.Split(cell.Body, "\n") {
				fmt.Fprintf(&b, "> %s\n", line)
			}

		case *beaker.CodeCell:
			fmt.Fprintf(&b, "```python\n%s\n```\n", cell.Input.Body)
			switch result := cell.Output.Result.(type) {
			case string:
				if result != "" {
					fmt.Fprintf(&b, "\n```\n%s\n```\n", result)
				}
			case *beaker.ImageIcon:
				fmt.Fprintf(&b, "\n*[image, %d bytes base64]*\n", len(result.ImageData))
			}
		}
	}

	return b.String()
}

// Previewer returns a PreviewFunc that converts notebooks with imp and
// renders them through glamour
func Previewer(imp importer.Importer) PreviewFunc {
	return func(path string, width int) (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read notebook: %w", err)
		}

		nb, err := imp.Import(data)
		if err != nil {
			return "", err
		}

		md := NotebookMarkdown(nb)
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md, nil
		}

		rendered, err := renderer.Render(md)
		if err != nil {
			return md, nil
		}
		return rendered, nil
	}
}
