// Package idgen generates cell identifiers: a kind prefix such as "code"
// followed by a short suffix.
package idgen

import (
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DefaultLength is the suffix length used by Random when none is set
const DefaultLength = 6

// maxLength is the number of hex digits in a UUID
const maxLength = 32

// Generator returns a fresh identifier for the given prefix
type Generator interface {
	NewID(prefix string) string
}

// Func adapts a plain function to Generator
type Func func(prefix string) string

// NewID calls f
func (f Func) NewID(prefix string) string {
	return f(prefix)
}

// Random appends Length random hex digits taken from a v4 UUID. It is safe
// for concurrent use.
type Random struct {
	Length int
}

// NewRandom returns a Random generator with the given suffix length.
// Lengths outside 1..32 fall back to DefaultLength.
func NewRandom(length int) Random {
	if length <= 0 || length > maxLength {
		length = DefaultLength
	}
	return Random{Length: length}
}

// NewID returns prefix plus a random suffix
func (r Random) NewID(prefix string) string {
	n := r.Length
	if n <= 0 || n > maxLength {
		n = DefaultLength
	}
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + hex[:n]
}

// Sequential numbers identifiers 1, 2, 3... across all prefixes. Used where
// ids must be reproducible.
type Sequential struct {
	mu   sync.Mutex
	next int
}

// NewID returns prefix plus the next number
func (s *Sequential) NewID(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return prefix + strconv.Itoa(s.next)
}

// maxRetries bounds how often Unique asks the wrapped generator again
// after a collision before falling back to a counter suffix.
const maxRetries = 8

// unique rejects identifiers it has already handed out
type unique struct {
	gen  Generator
	seen map[string]struct{}
	n    int
}

// Unique wraps g so that no identifier is returned twice. The wrapper is
// meant to live for one document and is not safe for concurrent use.
func Unique(g Generator) Generator {
	return &unique{gen: g, seen: make(map[string]struct{})}
}

func (u *unique) NewID(prefix string) string {
	for i := 0; i < maxRetries; i++ {
		id := u.gen.NewID(prefix)
		if _, dup := u.seen[id]; !dup {
			u.seen[id] = struct{}{}
			return id
		}
	}

	// The wrapped generator keeps colliding (or is constant); disambiguate.
	base := u.gen.NewID(prefix)
	for {
		u.n++
		id := base + "-" + strconv.Itoa(u.n)
		if _, dup := u.seen[id]; !dup {
			u.seen[id] = struct{}{}
			return id
		}
	}
}
