package ipynb

import (
	"encoding/json"
	"strings"
)

// Lines is a multiline text field. nbformat stores these either as an
// array of fragments or as one string; both decode to fragments.
type Lines []string

// UnmarshalJSON accepts an array of strings, a single string, or null
func (l *Lines) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Lines{s}
		return nil
	}

	var fragments []string
	if err := json.Unmarshal(data, &fragments); err != nil {
		return err
	}
	*l = fragments
	return nil
}

// Join concatenates the fragments with sep
func (l Lines) Join(sep string) string {
	return strings.Join(l, sep)
}
