package beaker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Marshal encodes nb as JSON, indented by indent spaces when indent > 0
func Marshal(nb *Notebook, indent int) ([]byte, error) {
	if indent <= 0 {
		return json.Marshal(nb)
	}
	return json.MarshalIndent(nb, "", strings.Repeat(" ", indent))
}

// WriteFile writes nb to path, creating parent directories
func WriteFile(path string, nb *Notebook, indent int) error {
	data, err := Marshal(nb, indent)
	if err != nil {
		return fmt.Errorf("failed to marshal notebook: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write notebook: %w", err)
	}
	return nil
}
