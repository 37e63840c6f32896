// Package ipynb decodes legacy IPython notebooks (nbformat 3).
//
// Cells are decoded into a closed set of variants keyed on cell_type.
// Anything with an unrecognized tag decodes to UnknownCell so callers can
// report and skip it.
package ipynb

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Supported nbformat version. Only checked in strict mode.
const (
	NBFormat      = 3
	NBFormatMinor = 0
)

var (
	// ErrMalformed is returned when the payload is not a notebook
	ErrMalformed = errors.New("malformed ipython notebook")
	// ErrUnsupportedVersion is returned by CheckVersion
	ErrUnsupportedVersion = errors.New("unrecognized ipython notebook format version")
)

// Notebook is the top level of a legacy notebook file
type Notebook struct {
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Worksheets    []Worksheet    `json:"worksheets"`
}

// Worksheet holds the ordered cells of a notebook. Only the first
// worksheet of a notebook is ever read.
type Worksheet struct {
	Cells []Cell
}

// UnmarshalJSON decodes each cell into its variant. A missing or null
// cells field leaves Cells nil, an empty array leaves it empty.
func (w *Worksheet) UnmarshalJSON(data []byte) error {
	var raw struct {
		Cells []json.RawMessage `json:"cells"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Cells == nil {
		w.Cells = nil
		return nil
	}

	w.Cells = make([]Cell, 0, len(raw.Cells))
	for i, rc := range raw.Cells {
		c, err := decodeCell(rc)
		if err != nil {
			return fmt.Errorf("cell %d: %w", i, err)
		}
		w.Cells = append(w.Cells, c)
	}
	return nil
}

// Cells returns the cells of the first worksheet, or nil if there is none
func (nb *Notebook) Cells() []Cell {
	if nb == nil || len(nb.Worksheets) == 0 {
		return nil
	}
	return nb.Worksheets[0].Cells
}

// Parse decodes a notebook payload. The payload must decode and must
// carry worksheets[0].cells; anything else is ErrMalformed.
func Parse(data []byte) (*Notebook, error) {
	var nb Notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(nb.Worksheets) == 0 {
		return nil, fmt.Errorf("%w: no worksheets", ErrMalformed)
	}
	if nb.Worksheets[0].Cells == nil {
		return nil, fmt.Errorf("%w: worksheet 0 has no cells", ErrMalformed)
	}
	return &nb, nil
}

// CheckVersion rejects notebooks that are not nbformat 3.0
func CheckVersion(nb *Notebook) error {
	if nb.NBFormat != NBFormat || nb.NBFormatMinor != NBFormatMinor {
		return fmt.Errorf("%w: %d.%d", ErrUnsupportedVersion, nb.NBFormat, nb.NBFormatMinor)
	}
	return nil
}
