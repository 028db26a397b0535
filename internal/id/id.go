package id

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Generator returns a fresh, never reused id on every call.
type Generator func() string

// New returns a random UUID string.
func New() string {
	return uuid.NewString()
}

// Sequence returns a deterministic generator producing "prefix-001",
// "prefix-002", ... Safe for concurrent use.
func Sequence(prefix string) Generator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return FormatSeq(prefix, n)
	}
}

// FormatSeq returns an id like "tx-007".
func FormatSeq(prefix string, seq int) string {
	return fmt.Sprintf("%s-%03d", prefix, seq)
}

// Short returns the first 8 characters of an id for display.
func Short(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// Resolve finds the single id in ids that equals ref or starts with it.
func Resolve(ref string, ids []string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty id")
	}
	var match string
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
		if strings.HasPrefix(id, ref) {
			if match != "" {
				return "", fmt.Errorf("id prefix %q is ambiguous", ref)
			}
			match = id
		}
	}
	if match == "" {
		return ref, nil
	}
	return match, nil
}
