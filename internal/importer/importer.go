// Package importer exposes notebook converters as importers keyed by a
// path prefix token, the way the host application looks them up.
package importer

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gerunddev/nbimport/internal/beaker"
	"github.com/gerunddev/nbimport/internal/convert"
	"github.com/gerunddev/nbimport/internal/ipynb"
)

// TokenIPynb is the token IPython notebooks are registered under
const TokenIPynb = "ipynb"

var (
	// ErrUnknownToken is returned by Lookup for unregistered tokens
	ErrUnknownToken = errors.New("no importer registered for token")
	// ErrDuplicateToken is returned when a token is registered twice
	ErrDuplicateToken = errors.New("importer already registered for token")
)

// Importer turns raw file content into a Beaker notebook
type Importer interface {
	Import(data []byte) (*beaker.Notebook, error)
}

// StatsImporter is an Importer that also reports conversion counts
type StatsImporter interface {
	Importer
	ImportWithStats(data []byte) (*beaker.Notebook, convert.Stats, error)
}

var _ StatsImporter = (*IPynb)(nil)

// IPynb imports legacy IPython notebooks
type IPynb struct {
	Converter *convert.Converter
	// StrictVersion rejects anything other than nbformat 3.0
	StrictVersion bool
}

// NewIPynb returns an importer backed by conv
func NewIPynb(conv *convert.Converter, strict bool) *IPynb {
	return &IPynb{Converter: conv, StrictVersion: strict}
}

// Import decodes and converts a notebook. Decoding failures fail the whole
// import; no partial notebook is returned.
func (i *IPynb) Import(data []byte) (*beaker.Notebook, error) {
	nb, _, err := i.ImportWithStats(data)
	return nb, err
}

// ImportWithStats is Import plus conversion counts
func (i *IPynb) ImportWithStats(data []byte) (*beaker.Notebook, convert.Stats, error) {
	src, err := ipynb.Parse(data)
	if err != nil {
		return nil, convert.Stats{}, err
	}
	if i.StrictVersion {
		if err := ipynb.CheckVersion(src); err != nil {
			return nil, convert.Stats{}, err
		}
	}

	conv := i.Converter
	if conv == nil {
		conv = convert.New()
	}

	nb, stats, err := conv.ConvertWithStats(src)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to convert notebook: %w", err)
	}
	return nb, stats, nil
}

// Registry maps tokens to importers. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	importers map[string]Importer
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{importers: make(map[string]Importer)}
}

// Register adds an importer under token
func (r *Registry) Register(token string, imp Importer) error {
	if token == "" {
		return fmt.Errorf("importer token cannot be empty")
	}
	if imp == nil {
		return fmt.Errorf("importer for %q cannot be nil", token)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.importers[token]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateToken, token)
	}
	r.importers[token] = imp
	return nil
}

// Lookup returns the importer registered under token
func (r *Registry) Lookup(token string) (Importer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	imp, ok := r.importers[token]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	return imp, nil
}

// Import runs the importer registered under token
func (r *Registry) Import(token string, data []byte) (*beaker.Notebook, error) {
	imp, err := r.Lookup(token)
	if err != nil {
		return nil, err
	}
	return imp.Import(data)
}

// ImportWithStats runs the importer registered under token and returns its
// counts. Importers that do not report counts yield zero Stats.
func (r *Registry) ImportWithStats(token string, data []byte) (*beaker.Notebook, convert.Stats, error) {
	imp, err := r.Lookup(token)
	if err != nil {
		return nil, convert.Stats{}, err
	}
	if si, ok := imp.(StatsImporter); ok {
		return si.ImportWithStats(data)
	}
	nb, err := imp.Import(data)
	return nb, convert.Stats{}, err
}

// Tokens returns the registered tokens in sorted order
func (r *Registry) Tokens() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokens := make([]string, 0, len(r.importers))
	for token := range r.importers {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}
