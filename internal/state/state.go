package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Record is what is remembered about one converted notebook
type Record struct {
	MTime       int64     `json:"mtime"`
	Hash        string    `json:"hash"`
	Output      string    `json:"output"`
	Cells       int       `json:"cells"`
	Skipped     int       `json:"skipped,omitempty"`
	ConvertedAt time.Time `json:"converted_at"`
}

// State holds conversion records keyed by source notebook path
type State struct {
	Records map[string]*Record `json:"records"`
}

// NewState creates a new empty state
func NewState() *State {
	return &State{
		Records: make(map[string]*Record),
	}
}

// Load reads state from the state file
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	if state.Records == nil {
		state.Records = make(map[string]*Record)
	}

	return &state, nil
}

// Save writes state to the state file
func (s *State) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// ComputeHash computes SHA256 hash of a file
func ComputeHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", h.Sum(nil)), nil
}

// HasChanged reports whether a notebook needs converting again: it was
// never converted, its output is gone, or its content changed.
// Uses hybrid mtime + hash approach
func (s *State) HasChanged(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	rec, exists := s.Records[path]
	if !exists {
		return true, nil
	}

	if rec.Output != "" {
		if _, err := os.Stat(rec.Output); os.IsNotExist(err) {
			return true, nil
		}
	}

	// Fast path: check mtime first
	if info.ModTime().Unix() == rec.MTime {
		return false, nil
	}

	// mtime changed, compute hash to check for actual content changes
	hash, err := ComputeHash(path)
	if err != nil {
		return false, err
	}
	if hash != rec.Hash {
		return true, nil
	}

	// Touched but identical: refresh mtime so the next check is fast
	rec.MTime = info.ModTime().Unix()
	return false, nil
}

// Update records a successful conversion of path into output
func (s *State) Update(path, output string, cells, skipped int) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	hash, err := ComputeHash(path)
	if err != nil {
		return err
	}

	s.Records[path] = &Record{
		MTime:       info.ModTime().Unix(),
		Hash:        hash,
		Output:      output,
		Cells:       cells,
		Skipped:     skipped,
		ConvertedAt: time.Now(),
	}

	return nil
}

// Prune drops records whose source notebook no longer exists and returns
// how many were removed
func (s *State) Prune() int {
	removed := 0
	for path := range s.Records {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			delete(s.Records, path)
			removed++
		}
	}
	return removed
}

// LastConverted returns when path was last converted
func (s *State) LastConverted(path string) time.Time {
	if rec, exists := s.Records[path]; exists {
		return rec.ConvertedAt
	}
	return time.Time{}
}

// Paths returns the recorded source paths in sorted order
func (s *State) Paths() []string {
	paths := make([]string, 0, len(s.Records))
	for path := range s.Records {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
