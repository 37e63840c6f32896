package ipynb

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Cell types as they appear in the cell_type field
const (
	TypeCode     = "code"
	TypeMarkdown = "markdown"
	TypeRaw      = "raw"
	TypeHeading  = "heading"
)

// Output types consulted by the converter
const (
	OutputPyout       = "pyout"
	OutputDisplayData = "display_data"
)

// Cell is one of CodeCell, MarkdownCell, RawCell, HeadingCell or UnknownCell
type Cell interface {
	// CellType returns the cell_type tag the cell was decoded from
	CellType() string
	isCell()
}

// CodeCell is an executable cell with its recorded outputs
type CodeCell struct {
	Language string   `json:"language,omitempty"`
	Input    Lines    `json:"input"`
	Outputs  []Output `json:"outputs"`
}

// Output is a single recorded output of a code cell. Only the fields the
// converter reads are decoded.
type Output struct {
	OutputType string `json:"output_type"`
	Text       Lines  `json:"text,omitempty"`
	PNG        string `json:"png,omitempty"`
}

// MarkdownCell holds markdown source
type MarkdownCell struct {
	Source Lines `json:"source"`
}

// RawCell holds raw text, one fragment per line
type RawCell struct {
	Source Lines `json:"source"`
}

// HeadingCell is a section heading. Level is nil when the field is absent.
type HeadingCell struct {
	Level  *int  `json:"level,omitempty"`
	Source Lines `json:"source"`
}

// UnknownCell is any cell whose cell_type is not recognized
type UnknownCell struct {
	Type string
	Raw  json.RawMessage
}

func (CodeCell) CellType() string     { return TypeCode }
func (MarkdownCell) CellType() string { return TypeMarkdown }
func (RawCell) CellType() string      { return TypeRaw }
func (HeadingCell) CellType() string  { return TypeHeading }
func (c UnknownCell) CellType() string {
	return c.Type
}

func (CodeCell) isCell()     {}
func (MarkdownCell) isCell() {}
func (RawCell) isCell()      {}
func (HeadingCell) isCell()  {}
func (UnknownCell) isCell()  {}

func decodeCell(data []byte) (Cell, error) {
	var head struct {
		CellType string `json:"cell_type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	switch head.CellType {
	case TypeCode:
		var c CodeCell
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("code cell: %w", err)
		}
		return c, nil
	case TypeMarkdown:
		var c MarkdownCell
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("markdown cell: %w", err)
		}
		return c, nil
	case TypeRaw:
		var c RawCell
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("raw cell: %w", err)
		}
		return c, nil
	case TypeHeading:
		var c HeadingCell
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("heading cell: %w", err)
		}
		return c, nil
	default:
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		return UnknownCell{Type: head.CellType, Raw: raw}, nil
	}
}

// UnmarshalJSON decodes an output leniently: a text or png field of the
// wrong JSON type is treated as absent instead of failing the notebook
func (o *Output) UnmarshalJSON(data []byte) error {
	var raw struct {
		OutputType json.RawMessage `json:"output_type"`
		Text       json.RawMessage `json:"text"`
		PNG        json.RawMessage `json:"png"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*o = Output{}
	if len(raw.OutputType) > 0 {
		_ = json.Unmarshal(raw.OutputType, &o.OutputType) //nolint:errcheck // wrong type means no type
	}
	if len(raw.Text) > 0 {
		var text Lines
		if err := json.Unmarshal(raw.Text, &text); err == nil {
			o.Text = text
		}
	}
	if len(raw.PNG) > 0 {
		var png string
		if err := json.Unmarshal(raw.PNG, &png); err == nil {
			o.PNG = png
		}
	}
	return nil
}

// UnmarshalJSON accepts the level as an integer, an integral float or a
// numeric string. Any other value leaves Level nil.
func (h *HeadingCell) UnmarshalJSON(data []byte) error {
	var raw struct {
		Level  json.RawMessage `json:"level"`
		Source Lines           `json:"source"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	h.Source = raw.Source
	h.Level = parseLevel(raw.Level)
	return nil
}

func parseLevel(data json.RawMessage) *int {
	if len(data) == 0 {
		return nil
	}

	var text string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return nil
		}
		text = strings.TrimSpace(text)
	} else {
		text = string(data)
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	level := int(f)
	return &level
}
