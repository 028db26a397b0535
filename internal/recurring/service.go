// Package recurring materializes recurring rules into ledger transactions.
// Processing is pull-based: callers run a pass, typically at startup or from
// a schedule, and every missed period is caught up in that pass.
package recurring

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/pocket/internal/id"
	"github.com/cleared-dev/pocket/internal/logger"
	"github.com/cleared-dev/pocket/internal/model"
	"github.com/cleared-dev/pocket/internal/period"
	"github.com/cleared-dev/pocket/internal/store"
)

// DefaultMaxCatchUp bounds the transactions one rule may create in one pass.
const DefaultMaxCatchUp = 1000

// Persister receives the full rule list after every change.
type Persister interface {
	Enqueue(key string, v any) error
}

// Adder appends a transaction to the ledger.
type Adder interface {
	Add(t model.Transaction) (string, error)
}

// Service owns the recurring rules.
type Service struct {
	mu         sync.Mutex
	rules      []model.RecurringRule
	persist    Persister
	ledger     Adder
	newID      id.Generator
	now        func() time.Time
	maxCatchUp int
}

// Option configures a Service.
type Option func(*Service)

func WithIDGenerator(g id.Generator) Option { return func(s *Service) { s.newID = g } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithMaxCatchUp sets the per-rule, per-pass transaction limit.
func WithMaxCatchUp(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCatchUp = n
		}
	}
}

// NewService creates a Service over loaded rules.
func NewService(rules []model.RecurringRule, persist Persister, ledger Adder, opts ...Option) *Service {
	s := &Service{
		rules:      slices.Clone(rules),
		persist:    persist,
		ledger:     ledger,
		newID:      id.New,
		now:        time.Now,
		maxCatchUp: DefaultMaxCatchUp,
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.rules {
		s.rules[i].LastProcessed = loadedLastProcessed(s.rules[i], s.now)
	}
	return s
}

// loadedLastProcessed fills in a stored rule's missing lastProcessed from its
// start date, then its creation time, then now, so an old record never
// replays every period since year one.
func loadedLastProcessed(r model.RecurringRule, now func() time.Time) time.Time {
	for _, t := range []time.Time{r.LastProcessed, r.StartDate, r.CreatedAt} {
		if !t.IsZero() {
			return t
		}
	}
	return now()
}

func (s *Service) indexLocked(ruleID string) int {
	return slices.IndexFunc(s.rules, func(r model.RecurringRule) bool { return r.ID == ruleID })
}

func (s *Service) commitLocked(next []model.RecurringRule) error {
	if s.persist != nil {
		if err := s.persist.Enqueue(store.KeyRecurring, next); err != nil {
			return err
		}
	}
	s.rules = next
	return nil
}

func validateRule(r model.RecurringRule) error {
	if r.Type != model.TxExpense && r.Type != model.TxIncome {
		return model.ValidationError{Field: "type", Reason: fmt.Sprintf("recurring rules are expense or income, got %q", r.Type)}
	}
	if !r.Amount.IsPositive() {
		return model.ValidationError{Field: "amount", Reason: fmt.Sprintf("must be greater than zero, got %s", r.Amount)}
	}
	if !r.Frequency.Valid() {
		return model.ValidationError{Field: "frequency", Reason: fmt.Sprintf("unknown frequency %q", r.Frequency)}
	}
	if r.Category == "" {
		return model.ValidationError{Field: "category", Reason: "required"}
	}
	if r.Account == "" {
		return model.ValidationError{Field: "account", Reason: "required"}
	}
	return nil
}

// Add registers a rule. The id and creation time are assigned here and
// lastProcessed defaults to the creation time, so a new rule first fires one
// period later. New rules are active.
func (s *Service) Add(r model.RecurringRule) (string, error) {
	now := s.now()
	if r.Type == "" {
		r.Type = model.TxExpense
	}
	if r.Account == "" {
		r.Account = "cash"
	}
	r.Title = strings.TrimSpace(r.Title)
	r.CreatedAt = now
	r.UpdatedAt = time.Time{}
	r.IsActive = true
	if r.LastProcessed.IsZero() {
		r.LastProcessed = now
	}
	if err := validateRule(r); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.newID()
	if err := s.commitLocked(append(slices.Clone(s.rules), r)); err != nil {
		return "", err
	}
	return r.ID, nil
}

// Patch lists rule fields to change. Nil fields are left alone.
// lastProcessed is not patchable.
type Patch struct {
	Type          *model.TxType
	Title         *string
	Amount        *decimal.Decimal
	Category      *string
	Account       *string
	PaymentMethod *string
	Notes         *string
	Frequency     *model.Frequency
	StartDate     *time.Time
}

func (s *Service) Update(ruleID string, p Patch) error {
	return s.modify(ruleID, func(r *model.RecurringRule) error {
		if p.Type != nil {
			r.Type = *p.Type
		}
		if p.Title != nil {
			r.Title = strings.TrimSpace(*p.Title)
		}
		if p.Amount != nil {
			r.Amount = *p.Amount
		}
		if p.Category != nil {
			r.Category = *p.Category
		}
		if p.Account != nil {
			r.Account = *p.Account
		}
		if p.PaymentMethod != nil {
			r.PaymentMethod = *p.PaymentMethod
		}
		if p.Notes != nil {
			r.Notes = *p.Notes
		}
		if p.Frequency != nil {
			r.Frequency = *p.Frequency
		}
		if p.StartDate != nil {
			r.StartDate = *p.StartDate
		}
		r.UpdatedAt = s.now()
		return validateRule(*r)
	})
}

// SetActive pauses or resumes a rule.
func (s *Service) SetActive(ruleID string, active bool) error {
	return s.modify(ruleID, func(r *model.RecurringRule) error {
		r.IsActive = active
		r.UpdatedAt = s.now()
		return nil
	})
}

func (s *Service) modify(ruleID string, fn func(*model.RecurringRule) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(ruleID)
	if i < 0 {
		return model.NotFoundError{Kind: "recurring rule", ID: ruleID}
	}
	r := s.rules[i]
	if err := fn(&r); err != nil {
		return err
	}
	next := slices.Clone(s.rules)
	next[i] = r
	return s.commitLocked(next)
}

// Remove deletes a rule. Transactions it created are kept.
func (s *Service) Remove(ruleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(ruleID)
	if i < 0 {
		return model.NotFoundError{Kind: "recurring rule", ID: ruleID}
	}
	return s.commitLocked(slices.Delete(slices.Clone(s.rules), i, i+1))
}

func (s *Service) Get(ruleID string) (model.RecurringRule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(ruleID); i >= 0 {
		return s.rules[i], true
	}
	return model.RecurringRule{}, false
}

func (s *Service) Rules() []model.RecurringRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rules)
}

// IDs lists every rule id.
func (s *Service) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.ID
	}
	return out
}

// Process catches the rule up to asOf. Each missed period materializes one
// transaction dated at its period boundary, or at asOf for the current
// period. Once caught up, lastProcessed is the start of asOf's day. It
// returns the ids of the created transactions.
func (s *Service) Process(ctx context.Context, ruleID string, asOf time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(ruleID)
	if i < 0 {
		return nil, model.NotFoundError{Kind: "recurring rule", ID: ruleID}
	}
	return s.processLocked(ctx, i, asOf)
}

// ProcessAll runs Process for every active rule and returns every created
// transaction id. A failing rule does not stop the others; their errors are
// joined.
func (s *Service) ProcessAll(ctx context.Context, asOf time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var created []string
	var errs []error
	for i := range s.rules {
		if !s.rules[i].IsActive {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		ids, err := s.processLocked(ctx, i, asOf)
		created = append(created, ids...)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %s: %w", s.rules[i].ID, err))
		}
	}
	return created, errors.Join(errs...)
}

func (s *Service) processLocked(ctx context.Context, i int, asOf time.Time) ([]string, error) {
	log := logger.FromContext(ctx)
	rule := s.rules[i]
	checker, ok := duenessStrategies[rule.Frequency]
	if !ok {
		return nil, model.ValidationError{Field: "frequency", Reason: fmt.Sprintf("unknown frequency %q", rule.Frequency)}
	}

	var created []string
	var addErr error
	last := rule.LastProcessed
	for Due(rule, asOf) {
		if len(created) == s.maxCatchUp {
			log.Warn().Str("rule", rule.ID).Int("limit", s.maxCatchUp).Msg("recurring catch-up limit reached")
			break
		}
		next := checker.Next(last)
		when := next
		if when.After(asOf) {
			when = asOf
		}
		txID, err := s.ledger.Add(s.instance(rule, when))
		if err != nil {
			addErr = fmt.Errorf("materializing %s: %w", rule.ID, err)
			break
		}
		created = append(created, txID)
		log.Info().
			Str("rule", rule.ID).
			Str("frequency", string(rule.Frequency)).
			Str("amount", rule.Amount.String()).
			Time("date", when).
			Msg("recurring transaction created")

		if !checker.IsDue(next, asOf) {
			last = period.StartOfDay(asOf)
			rule.LastProcessed = last
			break
		}
		last = next
		rule.LastProcessed = last
	}

	if len(created) == 0 {
		return nil, addErr
	}
	next := slices.Clone(s.rules)
	next[i] = rule
	if err := s.commitLocked(next); err != nil {
		return created, err
	}
	return created, addErr
}

func (s *Service) instance(r model.RecurringRule, when time.Time) model.Transaction {
	return model.Transaction{
		Type:          r.Type,
		Amount:        r.Amount,
		Date:          when,
		Title:         r.Title,
		Category:      r.Category,
		Account:       r.Account,
		PaymentMethod: r.PaymentMethod,
		Notes:         r.Notes,
		IsRecurring:   true,
		RecurringID:   r.ID,
	}
}
