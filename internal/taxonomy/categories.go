package taxonomy

import (
	"slices"
	"strings"
	"sync"

	"github.com/cleared-dev/pocket/internal/model"
	"github.com/cleared-dev/pocket/internal/store"
)

// DefaultCategories are seeded on first use.
var DefaultCategories = []string{"Food", "Transport", "Bills", "Shopping", "Others"}

// DefaultFallback receives the transactions of a deleted category.
const DefaultFallback = "Others"

// BatchPersister queues several keys as one unit.
type BatchPersister interface {
	Persister
	EnqueueMany(entries ...store.Entry) error
}

// Rewriter rewrites transaction categories. The ledger implements it.
type Rewriter interface {
	RewriteCategory(from, to string, persist func([]model.Transaction) error) (int, error)
}

// Categories is the category registry. Renames and deletes cascade into the
// ledger, and the category list and transactions are queued together.
type Categories struct {
	mu       sync.Mutex
	items    []string
	persist  BatchPersister
	ledger   Rewriter
	fallback string
}

// NewCategories creates the registry. An empty list is replaced with the
// defaults.
func NewCategories(items []string, persist BatchPersister, fallback string) *Categories {
	if fallback == "" {
		fallback = DefaultFallback
	}
	c := &Categories{persist: persist, fallback: fallback}
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it != "" && !slices.Contains(c.items, it) {
			c.items = append(c.items, it)
		}
	}
	if len(c.items) == 0 {
		c.items = slices.Clone(DefaultCategories)
	}
	return c
}

// SetRewriter wires the ledger used for cascades.
func (c *Categories) SetRewriter(r Rewriter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ledger = r
}

func (c *Categories) Fallback() string { return c.fallback }

func (c *Categories) Contains(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Contains(c.items, name)
}

func (c *Categories) All() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Add registers a new category.
func (c *Categories) Add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.ValidationError{Field: "category", Reason: "name is empty"}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if slices.Contains(c.items, name) {
		return model.ConflictError{Kind: "category", Name: name}
	}
	next := append(slices.Clone(c.items), name)
	if c.persist != nil {
		if err := c.persist.Enqueue(store.KeyCategories, next); err != nil {
			return err
		}
	}
	c.items = next
	return nil
}

// Rename renames a category in place and rewrites every transaction that
// uses it. Renaming to the same name is a no-op. It returns the number of
// rewritten transactions.
func (c *Categories) Rename(from, to string) (int, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return 0, model.ValidationError{Field: "category", Reason: "name is empty"}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.Index(c.items, from)
	if i < 0 {
		return 0, model.NotFoundError{Kind: "category", ID: from}
	}
	if to == from {
		return 0, nil
	}
	if slices.Contains(c.items, to) {
		return 0, model.ConflictError{Kind: "category", Name: to}
	}
	next := slices.Clone(c.items)
	next[i] = to
	return c.cascadeLocked(next, from, to)
}

// Delete removes a category and moves its transactions to the fallback,
// which is re-registered if it was missing. The last category cannot be
// deleted. It returns the number of rewritten transactions.
func (c *Categories) Delete(name string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.Index(c.items, name)
	if i < 0 {
		return 0, model.NotFoundError{Kind: "category", ID: name}
	}
	if len(c.items) == 1 {
		return 0, model.ValidationError{Field: "category", Reason: "cannot delete the last category"}
	}
	next := slices.Delete(slices.Clone(c.items), i, i+1)
	if name == c.fallback {
		// Its transactions already carry the fallback label.
		return c.cascadeLocked(next, name, name)
	}
	if !slices.Contains(next, c.fallback) {
		next = append(next, c.fallback)
	}
	return c.cascadeLocked(next, name, c.fallback)
}

func (c *Categories) cascadeLocked(next []string, from, to string) (int, error) {
	if c.ledger == nil || from == to {
		if c.persist != nil {
			if err := c.persist.Enqueue(store.KeyCategories, next); err != nil {
				return 0, err
			}
		}
		c.items = next
		return 0, nil
	}
	n, err := c.ledger.RewriteCategory(from, to, func(txns []model.Transaction) error {
		if c.persist == nil {
			return nil
		}
		return c.persist.EnqueueMany(
			store.Entry{Key: store.KeyCategories, Value: next},
			store.Entry{Key: store.KeyTransactions, Value: txns},
		)
	})
	if err != nil {
		return 0, err
	}
	c.items = next
	return n, nil
}
