// Package memstore is an in-memory Store used by tests and dry runs.
package memstore

import (
	"context"
	"slices"
	"sync"
)

// Store is a map-backed record store. Documents are copied on the way in
// and out.
type Store struct {
	mu    sync.Mutex
	data  map[string][]byte
	saves map[string]int
	fail  func(key string) error
	delay func(key string)
}

func New() *Store {
	return &Store{data: make(map[string][]byte), saves: make(map[string]int)}
}

// FailWith makes Save return fn(key) when it is non-nil. Pass nil to stop
// failing.
func (s *Store) FailWith(fn func(key string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fn
}

// SlowWith runs fn before every Save, outside the lock.
func (s *Store) SlowWith(fn func(key string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = fn
}

func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.data[key]), nil
}

func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	delay := s.delay
	s.mu.Unlock()
	if delay != nil {
		delay(key)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		if err := s.fail(key); err != nil {
			return err
		}
	}
	s.data[key] = slices.Clone(data)
	s.saves[key]++
	return nil
}

// Saves reports how many successful saves key has seen.
func (s *Store) Saves(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves[key]
}
