// Package taxonomy holds the category, tag and merchant registries.
package taxonomy

import (
	"slices"
	"strings"
	"sync"

	"github.com/cleared-dev/pocket/internal/model"
)

// Persister receives a registry snapshot after every mutation.
type Persister interface {
	Enqueue(key string, v any) error
}

// DefaultSuggestionLimit is used by Suggestions when limit <= 0.
const DefaultSuggestionLimit = 5

// Set is an insertion-ordered set of unique, trimmed names persisted under
// one key. Tags, merchants and payment methods use it.
type Set struct {
	mu      sync.RWMutex
	key     string
	kind    string
	items   []string
	persist Persister
}

// NewSet creates a Set from loaded items, dropping blanks and duplicates.
func NewSet(key, kind string, items []string, persist Persister) *Set {
	s := &Set{key: key, kind: kind, persist: persist}
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it != "" && !slices.Contains(s.items, it) {
			s.items = append(s.items, it)
		}
	}
	return s
}

func (s *Set) commitLocked(next []string) error {
	if s.persist != nil {
		if err := s.persist.Enqueue(s.key, next); err != nil {
			return err
		}
	}
	s.items = next
	return nil
}

// Add registers name. Adding a present name is a no-op.
func (s *Set) Add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.ValidationError{Field: s.kind, Reason: "name is empty"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.items, name) {
		return nil
	}
	return s.commitLocked(append(slices.Clone(s.items), name))
}

func (s *Set) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.items, name)
	if i < 0 {
		return model.NotFoundError{Kind: s.kind, ID: name}
	}
	return s.commitLocked(slices.Delete(slices.Clone(s.items), i, i+1))
}

func (s *Set) Contains(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.items, name)
}

func (s *Set) All() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Suggestions returns up to limit names containing query, case-insensitive,
// in insertion order. A blank query returns the first names.
func (s *Set) Suggestions(query string, limit int) []string {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	q := strings.ToLower(strings.TrimSpace(query))
	var out []string
	for _, it := range s.All() {
		if len(out) == limit {
			break
		}
		if q == "" || strings.Contains(strings.ToLower(it), q) {
			out = append(out, it)
		}
	}
	return out
}

// DefaultPaymentMethods are seeded on first use.
var DefaultPaymentMethods = []string{"cash", "debit", "credit", "wallet"}
