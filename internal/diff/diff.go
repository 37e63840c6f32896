// Package diff compares a fresh conversion of an IPython notebook with an
// existing Beaker notebook. Cell ids are random, so both sides are
// renumbered before comparing; what remains is the shape of the document.
package diff

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/glamour"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/gerunddev/nbimport/internal/beaker"
	"github.com/gerunddev/nbimport/internal/importer"
)

// Format represents the output format for diffs
type Format int

const (
	// FormatPlain returns the unified diff as is
	FormatPlain Format = iota
	// FormatRendered renders the diff through glamour for terminals
	FormatRendered
)

// Report is the outcome of a comparison
type Report struct {
	// Equal is true when both notebooks have the same shape
	Equal bool
	// Unified is the unified diff, empty when Equal
	Unified string
}

// Generate converts sourcePath with imp and diffs it against the Beaker
// notebook at targetPath
func Generate(imp importer.Importer, sourcePath, targetPath string) (*Report, error) {
	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read source notebook: %w", err)
	}

	target, err := os.ReadFile(targetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read target notebook: %w", err)
	}

	nb, err := imp.Import(source)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s: %w", filepath.Base(sourcePath), err)
	}

	converted, err := beaker.Marshal(nb, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal converted notebook: %w", err)
	}

	return Compare(filepath.Base(targetPath), filepath.Base(sourcePath), target, converted)
}

// Compare diffs two Beaker notebook documents after normalizing their ids.
// from is treated as the old side.
func Compare(fromName, toName string, from, to []byte) (*Report, error) {
	fromNorm, err := NormalizeIDs(from)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize %s: %w", fromName, err)
	}
	toNorm, err := NormalizeIDs(to)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize %s: %w", toName, err)
	}

	if string(fromNorm) == string(toNorm) {
		return &Report{Equal: true}, nil
	}

	edits := myers.ComputeEdits(span.URIFromPath(fromName), string(fromNorm), string(toNorm))
	unified := fmt.Sprint(gotextdiff.ToUnified(fromName, toName, string(fromNorm), edits))
	return &Report{Unified: unified}, nil
}

// NormalizeIDs renumbers cell ids as <type><position> and rewrites every
// tag map list to match, then re-encodes with sorted keys
func NormalizeIDs(data []byte) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	renamed := make(map[string]string)
	cells, _ := doc["cells"].([]any)
	for i, c := range cells {
		cell, ok := c.(map[string]any)
		if !ok {
			continue
		}
		kind, _ := cell["type"].(string)
		newID := kind + strconv.Itoa(i+1)
		if oldID, ok := cell["id"].(string); ok {
			renamed[oldID] = newID
		}
		cell["id"] = newID
	}

	for _, key := range []string{"tagMap", "tagMap2"} {
		groups, ok := doc[key].(map[string]any)
		if !ok {
			continue
		}
		for name, list := range groups {
			ids, ok := list.([]any)
			if !ok {
				continue
			}
			for i, id := range ids {
				if s, ok := id.(string); ok {
					if newID, found := renamed[s]; found {
						ids[i] = newID
					}
				}
			}
			groups[name] = ids
		}
	}

	return json.MarshalIndent(doc, "", "  ")
}

// Render formats a report for output. Rendering falls back to the plain
// diff if glamour fails.
func Render(r *Report, format Format) string {
	if r.Equal {
		return ""
	}
	if format == FormatPlain {
		return r.Unified
	}

	// Wrap in diff code fence for proper syntax highlighting (+ in green, - in red)
	diffMarkdown := fmt.Sprintf("```diff\n%s```\n", r.Unified)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		return diffMarkdown
	}

	rendered, err := renderer.Render(diffMarkdown)
	if err != nil {
		return diffMarkdown
	}

	return rendered
}
