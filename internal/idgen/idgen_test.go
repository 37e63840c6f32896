package idgen

import (
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomFormat(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		pattern string
	}{
		{name: "default", length: 0, pattern: `^code[0-9a-f]{6}$`},
		{name: "custom", length: 10, pattern: `^code[0-9a-f]{10}$`},
		{name: "too long", length: 64, pattern: `^code[0-9a-f]{6}$`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := NewRandom(tt.length).NewID("code")
			assert.Regexp(t, regexp.MustCompile(tt.pattern), id)
		})
	}
}

func TestSequential(t *testing.T) {
	var s Sequential
	assert.Equal(t, "code1", s.NewID("code"))
	assert.Equal(t, "markdown2", s.NewID("markdown"))
	assert.Equal(t, "code3", s.NewID("code"))
}

func TestSequentialConcurrent(t *testing.T) {
	var s Sequential
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]bool)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := s.NewID("text")
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 50)
}

func TestUniqueRejectsDuplicates(t *testing.T) {
	constant := Func(func(prefix string) string { return prefix + "x" })
	gen := Unique(constant)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id := gen.NewID("section")
		require.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
	assert.True(t, seen["sectionx"])
}

func TestUniquePassesThroughFreshIDs(t *testing.T) {
	var s Sequential
	gen := Unique(&s)
	assert.Equal(t, "code1", gen.NewID("code"))
	assert.Equal(t, "text2", gen.NewID("text"))
}
