// Package goals tracks savings and pay-off targets.
package goals

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/pocket/internal/id"
	"github.com/cleared-dev/pocket/internal/model"
	"github.com/cleared-dev/pocket/internal/store"
)

var hundred = decimal.NewFromInt(100)

type Persister interface {
	Enqueue(key string, v any) error
}

// Balances reports the combined balance of every account.
type Balances interface {
	TotalBalance() decimal.Decimal
}

type Service struct {
	mu       sync.Mutex
	goals    []model.Goal
	persist  Persister
	balances Balances
	newID    id.Generator
	now      func() time.Time
}

type Option func(*Service)

func WithIDGenerator(g id.Generator) Option { return func(s *Service) { s.newID = g } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(goals []model.Goal, persist Persister, balances Balances, opts ...Option) *Service {
	s := &Service{
		goals:    slices.Clone(goals),
		persist:  persist,
		balances: balances,
		newID:    id.New,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateGoal(g model.Goal) error {
	if g.Title == "" {
		return model.ValidationError{Field: "title", Reason: "required"}
	}
	if !g.TargetAmount.IsPositive() {
		return model.ValidationError{Field: "targetAmount", Reason: fmt.Sprintf("must be greater than zero, got %s", g.TargetAmount)}
	}
	if g.Type != model.GoalSave && g.Type != model.GoalPayOff {
		return model.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown goal type %q", g.Type)}
	}
	return nil
}

func (s *Service) indexLocked(goalID string) int {
	return slices.IndexFunc(s.goals, func(g model.Goal) bool { return g.ID == goalID })
}

func (s *Service) commitLocked(next []model.Goal) error {
	if s.persist != nil {
		if err := s.persist.Enqueue(store.KeyGoals, next); err != nil {
			return err
		}
	}
	s.goals = next
	return nil
}

// Add creates a goal. An empty type means save.
func (s *Service) Add(g model.Goal) (string, error) {
	g.Title = strings.TrimSpace(g.Title)
	if g.Type == "" {
		g.Type = model.GoalSave
	}
	if err := validateGoal(g); err != nil {
		return "", err
	}
	g.CreatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.newID()
	if err := s.commitLocked(append(slices.Clone(s.goals), g)); err != nil {
		return "", err
	}
	return g.ID, nil
}

type Patch struct {
	Title        *string
	TargetAmount *decimal.Decimal
	Type         *model.GoalType
}

func (s *Service) Update(goalID string, p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(goalID)
	if i < 0 {
		return model.NotFoundError{Kind: "goal", ID: goalID}
	}
	g := s.goals[i]
	if p.Title != nil {
		g.Title = strings.TrimSpace(*p.Title)
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.Type != nil {
		g.Type = *p.Type
	}
	if err := validateGoal(g); err != nil {
		return err
	}
	next := slices.Clone(s.goals)
	next[i] = g
	return s.commitLocked(next)
}

func (s *Service) Remove(goalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(goalID)
	if i < 0 {
		return model.NotFoundError{Kind: "goal", ID: goalID}
	}
	return s.commitLocked(slices.Delete(slices.Clone(s.goals), i, i+1))
}

func (s *Service) Get(goalID string) (model.Goal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(goalID); i >= 0 {
		return s.goals[i], true
	}
	return model.Goal{}, false
}

func (s *Service) All() []model.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.goals)
}

func (s *Service) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.goals))
	for i, g := range s.goals {
		out[i] = g.ID
	}
	return out
}

// Progress is how far a goal has come.
type Progress struct {
	Goal       model.Goal
	Current    decimal.Decimal
	Percentage decimal.Decimal
}

// ProgressOf measures a goal against the current total balance. Savings goals
// count the balance up to the target; pay-off goals have no tracked progress.
func (s *Service) ProgressOf(g model.Goal) Progress {
	current := decimal.Zero
	if g.Type == model.GoalSave && s.balances != nil {
		current = decimal.Min(s.balances.TotalBalance(), g.TargetAmount)
		if current.IsNegative() {
			current = decimal.Zero
		}
	}
	pct := decimal.Zero
	if g.TargetAmount.IsPositive() {
		pct = current.Div(g.TargetAmount).Mul(hundred)
	}
	return Progress{Goal: g, Current: current, Percentage: pct}
}

// AllProgress reports every goal in insertion order.
func (s *Service) AllProgress() []Progress {
	goals := s.All()
	out := make([]Progress, len(goals))
	for i, g := range goals {
		out[i] = s.ProgressOf(g)
	}
	return out
}
