// Package convert turns legacy IPython notebooks into Beaker notebooks.
//
// Conversion is a pure mapping apart from identifier generation: each
// recognized source cell becomes exactly one target cell, in source order,
// and cells with an unrecognized cell_type are logged and dropped.
package convert

import (
	"errors"
	"fmt"

	"github.com/gerunddev/nbimport/internal/beaker"
	"github.com/gerunddev/nbimport/internal/idgen"
	"github.com/gerunddev/nbimport/internal/ipynb"
	"github.com/gerunddev/nbimport/internal/logger"
)

// ErrNoWorksheet is returned for a notebook without a first worksheet
var ErrNoWorksheet = errors.New("notebook has no worksheet")

// Converter converts notebooks. It holds no per-document state, so one
// Converter may serve concurrent Convert calls as long as its id generator
// is safe for concurrent use.
type Converter struct {
	ids idgen.Generator
	log *logger.Logger
}

// Option configures a Converter
type Option func(*Converter)

// WithIDGenerator sets the source of cell identifiers
func WithIDGenerator(g idgen.Generator) Option {
	return func(c *Converter) {
		c.ids = g
	}
}

// WithLogger sets the logger used for skipped cells and ignored outputs
func WithLogger(l *logger.Logger) Option {
	return func(c *Converter) {
		c.log = l
	}
}

// New creates a converter. By default ids get a random six character
// suffix and diagnostics are discarded.
func New(opts ...Option) *Converter {
	c := &Converter{
		ids: idgen.NewRandom(idgen.DefaultLength),
		log: logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stats counts what a conversion produced
type Stats struct {
	Code     int
	Markdown int
	Text     int
	Section  int
	Skipped  int
}

// Cells returns the number of cells produced
func (s Stats) Cells() int {
	return s.Code + s.Markdown + s.Text + s.Section
}

// Convert converts src into a new Beaker notebook
func (c *Converter) Convert(src *ipynb.Notebook) (*beaker.Notebook, error) {
	nb, _, err := c.ConvertWithStats(src)
	return nb, err
}

// ConvertWithStats converts src and reports how many cells of each kind
// were produced and how many were skipped.
func (c *Converter) ConvertWithStats(src *ipynb.Notebook) (*beaker.Notebook, Stats, error) {
	var stats Stats
	if src == nil || len(src.Worksheets) == 0 {
		return nil, stats, ErrNoWorksheet
	}

	r := &run{
		ids: idgen.Unique(c.ids),
		log: c.log,
	}

	nb := beaker.New()
	for i, cell := range src.Worksheets[0].Cells {
		r.index = i

		var out beaker.Cell
		switch cell := cell.(type) {
		case ipynb.CodeCell:
			out = r.convertCode(cell)
			stats.Code++
		case ipynb.MarkdownCell:
			out = r.convertMarkdown(cell)
			stats.Markdown++
		case ipynb.RawCell:
			out = r.convertRaw(cell)
			stats.Text++
		case ipynb.HeadingCell:
			out = r.convertHeading(cell)
			stats.Section++
		case ipynb.UnknownCell:
			c.log.CellSkipped(i, cell.Type)
			stats.Skipped++
			continue
		default:
			return nil, stats, fmt.Errorf("cell %d: unhandled cell variant %T", i, cell)
		}

		nb.Append(out)
	}

	return nb, stats, nil
}

// run carries the state of a single conversion
type run struct {
	ids   idgen.Generator
	log   *logger.Logger
	index int
}

// convertCode keeps the input and only the first recorded output
func (r *run) convertCode(cell ipynb.CodeCell) *beaker.CodeCell {
	out := beaker.NewCodeCell(r.ids.NewID(beaker.TypeCode), beaker.EvaluatorIPython)

	if cell.Language != "" && cell.Language != "python" {
		r.log.LanguageOverridden(r.index, cell.Language, beaker.EvaluatorIPython)
	}

	if len(cell.Input) > 0 {
		out.Input.Body = cell.Input.Join("")
	}
	if len(cell.Outputs) == 0 {
		return out
	}

	first := cell.Outputs[0]
	switch {
	case first.OutputType == ipynb.OutputPyout && len(first.Text) > 0:
		out.Output.SelectedType = beaker.SelectedText
		out.Output.Result = first.Text[0]
	case first.OutputType == ipynb.OutputDisplayData && first.PNG != "":
		out.Output.SelectedType = beaker.SelectedImage
		out.Output.Result = beaker.NewImageIcon(first.PNG)
	default:
		r.log.OutputIgnored(r.index, first.OutputType)
	}

	return out
}

func (r *run) convertMarkdown(cell ipynb.MarkdownCell) *beaker.MarkdownCell {
	return &beaker.MarkdownCell{
		ID:   r.ids.NewID(beaker.TypeMarkdown),
		Type: beaker.TypeMarkdown,
		Body: cell.Source.Join(""),
		Mode: beaker.ModePreview,
	}
}

// convertRaw joins with a space since raw fragments carry no newlines
func (r *run) convertRaw(cell ipynb.RawCell) *beaker.TextCell {
	return &beaker.TextCell{
		ID:   r.ids.NewID(beaker.TypeText),
		Type: beaker.TypeText,
		Body: cell.Source.Join(" "),
	}
}

// convertHeading puts the heading text in Title and leaves Body empty.
// Level is passed through without range checks.
func (r *run) convertHeading(cell ipynb.HeadingCell) *beaker.SectionCell {
	out := &beaker.SectionCell{
		ID:   r.ids.NewID(beaker.TypeSection),
		Type: beaker.TypeSection,
	}
	if cell.Level != nil {
		level := *cell.Level
		out.Level = &level
	}
	if len(cell.Source) > 0 {
		title := cell.Source.Join("\n")
		out.Title = &title
	}
	return out
}
