package convert

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gerunddev/nbimport/internal/beaker"
	"github.com/gerunddev/nbimport/internal/idgen"
	"github.com/gerunddev/nbimport/internal/ipynb"
	"github.com/gerunddev/nbimport/internal/logger"
)

// sequential returns a converter with reproducible ids
func sequential(opts ...Option) *Converter {
	return New(append([]Option{WithIDGenerator(&idgen.Sequential{})}, opts...)...)
}

// parse decodes an inline notebook with the given cells
func parse(t *testing.T, cells string) *ipynb.Notebook {
	t.Helper()
	nb, err := ipynb.Parse([]byte(`{"nbformat": 3, "nbformat_minor": 0, "worksheets": [{"cells": ` + cells + `}]}`))
	require.NoError(t, err)
	return nb
}

func convertOne(t *testing.T, cell string) beaker.Cell {
	t.Helper()
	nb, err := sequential().Convert(parse(t, "["+cell+"]"))
	require.NoError(t, err)
	require.Len(t, nb.Cells, 1)
	return nb.Cells[0]
}

func TestConvertSample(t *testing.T) {
	data, err := os.ReadFile("testdata/sample.ipynb")
	require.NoError(t, err)
	expected, err := os.ReadFile("testdata/sample.bkr")
	require.NoError(t, err)

	src, err := ipynb.Parse(data)
	require.NoError(t, err)

	nb, stats, err := sequential().ConvertWithStats(src)
	require.NoError(t, err)
	assert.Equal(t, Stats{Code: 3, Markdown: 1, Text: 1, Section: 1, Skipped: 1}, stats)
	assert.Equal(t, 6, stats.Cells())

	actual, err := json.Marshal(nb)
	require.NoError(t, err)
	assert.JSONEq(t, string(expected), string(actual))
}

func TestConvertCodeCell(t *testing.T) {
	tests := []struct {
		name         string
		cell         string
		wantBody     string
		wantSelected string
		wantResult   any
	}{
		{
			name:       "input fragments joined without separator",
			cell:       `{"cell_type": "code", "input": ["print(1)", "\n", "print(2)"]}`,
			wantBody:   "print(1)\nprint(2)",
			wantResult: "",
		},
		{
			name:         "pyout text",
			cell:         `{"cell_type": "code", "input": ["6*7"], "outputs": [{"output_type": "pyout", "text": ["42"]}]}`,
			wantBody:     "6*7",
			wantSelected: beaker.SelectedText,
			wantResult:   "42",
		},
		{
			name:         "pyout uses first text fragment only",
			cell:         `{"cell_type": "code", "outputs": [{"output_type": "pyout", "text": ["a\n", "b"]}]}`,
			wantSelected: beaker.SelectedText,
			wantResult:   "a\n",
		},
		{
			name:         "display_data png",
			cell:         `{"cell_type": "code", "outputs": [{"output_type": "display_data", "png": "AAAA"}]}`,
			wantSelected: beaker.SelectedImage,
			wantResult:   &beaker.ImageIcon{Type: "ImageIcon", ImageData: "AAAA"},
		},
		{
			name:       "no outputs",
			cell:       `{"cell_type": "code", "input": ["x"]}`,
			wantBody:   "x",
			wantResult: "",
		},
		{
			name:       "pyout without text",
			cell:       `{"cell_type": "code", "outputs": [{"output_type": "pyout"}]}`,
			wantResult: "",
		},
		{
			name:       "display_data without png",
			cell:       `{"cell_type": "code", "outputs": [{"output_type": "display_data", "text": ["<Figure>"]}]}`,
			wantResult: "",
		},
		{
			name:       "unsupported output type",
			cell:       `{"cell_type": "code", "outputs": [{"output_type": "stream", "text": ["hi"]}]}`,
			wantResult: "",
		},
		{
			name: "only first output consulted",
			cell: `{"cell_type": "code", "outputs": [
				{"output_type": "stream", "text": ["log"]},
				{"output_type": "pyout", "text": ["42"]}
			]}`,
			wantResult: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell, ok := convertOne(t, tt.cell).(*beaker.CodeCell)
			require.True(t, ok)

			assert.Equal(t, beaker.TypeCode, cell.Type)
			assert.Equal(t, "IPython", cell.Evaluator)
			assert.Equal(t, tt.wantBody, cell.Input.Body)
			assert.Equal(t, tt.wantSelected, cell.Output.SelectedType)
			assert.Equal(t, tt.wantResult, cell.Output.Result)
		})
	}
}

func TestConvertCodeCellWithoutOutputMarshalling(t *testing.T) {
	cell := convertOne(t, `{"cell_type": "code"}`)
	data, err := json.Marshal(cell)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	output := decoded["output"].(map[string]any)
	assert.Equal(t, "", output["result"])
	assert.NotContains(t, output, "selectedType")
}

func TestConvertMarkdownCell(t *testing.T) {
	tests := []struct {
		name     string
		cell     string
		wantBody string
	}{
		{name: "single fragment", cell: `{"cell_type": "markdown", "source": ["# Title"]}`, wantBody: "# Title"},
		{name: "joined without separator", cell: `{"cell_type": "markdown", "source": ["a\n", "b"]}`, wantBody: "a\nb"},
		{name: "missing source", cell: `{"cell_type": "markdown"}`, wantBody: ""},
		{name: "empty source", cell: `{"cell_type": "markdown", "source": []}`, wantBody: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell, ok := convertOne(t, tt.cell).(*beaker.MarkdownCell)
			require.True(t, ok)
			assert.Equal(t, tt.wantBody, cell.Body)
			assert.Equal(t, "preview", cell.Mode)
			assert.Equal(t, beaker.TypeMarkdown, cell.Type)
		})
	}
}

func TestConvertRawCell(t *testing.T) {
	tests := []struct {
		name     string
		cell     string
		wantBody string
	}{
		{name: "space joined", cell: `{"cell_type": "raw", "source": ["a", "b"]}`, wantBody: "a b"},
		{name: "single fragment", cell: `{"cell_type": "raw", "source": ["only"]}`, wantBody: "only"},
		{name: "missing source", cell: `{"cell_type": "raw"}`, wantBody: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell, ok := convertOne(t, tt.cell).(*beaker.TextCell)
			require.True(t, ok)
			assert.Equal(t, tt.wantBody, cell.Body)
			assert.Equal(t, beaker.TypeText, cell.Type)
		})
	}
}

func TestConvertHeadingCell(t *testing.T) {
	tests := []struct {
		name      string
		cell      string
		wantLevel *int
		wantTitle *string
	}{
		{
			name:      "level and title",
			cell:      `{"cell_type": "heading", "level": 2, "source": ["Intro"]}`,
			wantLevel: ptr(2),
			wantTitle: ptr("Intro"),
		},
		{
			name:      "title joined with newline",
			cell:      `{"cell_type": "heading", "level": 1, "source": ["Part", "One"]}`,
			wantLevel: ptr(1),
			wantTitle: ptr("Part\nOne"),
		},
		{
			name:      "out of range level passes through",
			cell:      `{"cell_type": "heading", "level": 17, "source": ["Deep"]}`,
			wantLevel: ptr(17),
			wantTitle: ptr("Deep"),
		},
		{
			name:      "no source leaves title unset",
			cell:      `{"cell_type": "heading", "level": 3}`,
			wantLevel: ptr(3),
		},
		{
			name: "no level",
			cell: `{"cell_type": "heading", "source": []}`,
		},
		{
			name:      "float level",
			cell:      `{"cell_type": "heading", "level": 2.0, "source": ["F"]}`,
			wantLevel: ptr(2),
			wantTitle: ptr("F"),
		},
		{
			name:      "string level",
			cell:      `{"cell_type": "heading", "level": "4", "source": ["S"]}`,
			wantLevel: ptr(4),
			wantTitle: ptr("S"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell, ok := convertOne(t, tt.cell).(*beaker.SectionCell)
			require.True(t, ok)
			assert.Equal(t, tt.wantLevel, cell.Level)
			assert.Equal(t, tt.wantTitle, cell.Title)
			assert.Equal(t, "", cell.Body)
			assert.Equal(t, beaker.TypeSection, cell.Type)
		})
	}
}

func TestConvertMistypedOutputIsEmptyResult(t *testing.T) {
	var buf bytes.Buffer
	conv := sequential(WithLogger(logger.NewWithLevel(&buf, log.DebugLevel)))

	nb, err := conv.Convert(parse(t, `[
		{"cell_type": "code", "input": ["show()"], "outputs": [{"output_type": "display_data", "png": {"b64": "x"}}]},
		{"cell_type": "code", "input": ["1"], "outputs": [{"output_type": "pyout", "text": {"plain": "1"}}]}
	]`))
	require.NoError(t, err)
	require.Len(t, nb.Cells, 2)

	for _, c := range nb.Cells {
		code := c.(*beaker.CodeCell)
		assert.Equal(t, "", code.Output.Result)
		assert.Empty(t, code.Output.SelectedType)
	}
	assert.Contains(t, buf.String(), "output ignored")
}

func TestConvertSkipsUnknownCells(t *testing.T) {
	var buf bytes.Buffer
	conv := sequential(WithLogger(logger.NewWithLevel(&buf, log.DebugLevel)))

	nb, stats, err := conv.ConvertWithStats(parse(t, `[
		{"cell_type": "markdown", "source": ["before"]},
		{"cell_type": "unknown"},
		{"cell_type": "raw", "source": ["after"]},
		{"cell_type": "code", "input": ["x"]}
	]`))
	require.NoError(t, err)

	require.Len(t, nb.Cells, 3)
	assert.Equal(t, beaker.TypeMarkdown, nb.Cells[0].CellType())
	assert.Equal(t, beaker.TypeText, nb.Cells[1].CellType())
	assert.Equal(t, beaker.TypeCode, nb.Cells[2].CellType())
	assert.Equal(t, []string{"markdown1", "text2", "code3"}, nb.TagMap.Root)
	assert.Equal(t, nb.TagMap.Root, nb.TagMap2.IPython)
	assert.Equal(t, 1, stats.Skipped)

	assert.Contains(t, buf.String(), "unrecognized cell type")
	assert.Contains(t, buf.String(), "cell_type=unknown")
}

func TestConvertTagMapsMatchCells(t *testing.T) {
	nb, err := New().Convert(parse(t, `[
		{"cell_type": "heading", "level": 1, "source": ["T"]},
		{"cell_type": "markdown", "source": ["m"]},
		{"cell_type": "code", "input": ["c"]},
		{"cell_type": "raw", "source": ["r"]},
		{"cell_type": "code", "input": ["d"]},
		{"cell_type": "markdown", "source": ["n"]}
	]`))
	require.NoError(t, err)

	ids := nb.IDs()
	require.Len(t, ids, 6)
	assert.Equal(t, ids, nb.TagMap.Root)
	assert.Equal(t, ids, nb.TagMap2.IPython)
	assert.Empty(t, nb.TagMap2.Initialization)

	seen := make(map[string]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}

	assert.Regexp(t, `^section[0-9a-f]{6}$`, ids[0])
	assert.Regexp(t, `^markdown[0-9a-f]{6}$`, ids[1])
	assert.Regexp(t, `^code[0-9a-f]{6}$`, ids[2])
	assert.Regexp(t, `^text[0-9a-f]{6}$`, ids[3])
}

func TestConvertIDsUniqueWithCollidingGenerator(t *testing.T) {
	constant := idgen.Func(func(prefix string) string { return prefix + "same" })
	nb, err := New(WithIDGenerator(constant)).Convert(parse(t, `[
		{"cell_type": "code"}, {"cell_type": "code"}, {"cell_type": "code"}
	]`))
	require.NoError(t, err)

	ids := nb.IDs()
	assert.Len(t, ids, 3)
	assert.NotEqual(t, ids[0], ids[1])
	assert.NotEqual(t, ids[1], ids[2])
	assert.NotEqual(t, ids[0], ids[2])
}

func TestConvertShapeIsStable(t *testing.T) {
	src := parse(t, `[
		{"cell_type": "heading", "level": 2, "source": ["Intro"]},
		{"cell_type": "code", "input": ["1"], "outputs": [{"output_type": "pyout", "text": ["1"]}]}
	]`)

	first, err := sequential().Convert(src)
	require.NoError(t, err)
	second, err := sequential().Convert(src)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestConvertEmptyNotebook(t *testing.T) {
	nb, err := New().Convert(parse(t, `[]`))
	require.NoError(t, err)
	assert.Empty(t, nb.Cells)
	assert.NotNil(t, nb.Cells)
	assert.Equal(t, beaker.Version, nb.Beaker)
	assert.Len(t, nb.Evaluators, 3)
}

func TestConvertWithoutWorksheet(t *testing.T) {
	tests := []struct {
		name string
		src  *ipynb.Notebook
	}{
		{name: "nil notebook", src: nil},
		{name: "no worksheets", src: &ipynb.Notebook{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nb, err := New().Convert(tt.src)
			assert.Nil(t, nb)
			assert.ErrorIs(t, err, ErrNoWorksheet)
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}
