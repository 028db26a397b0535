package accounts

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/pocket/internal/id"
	"github.com/cleared-dev/pocket/internal/model"
	"github.com/cleared-dev/pocket/internal/store"
)

// Persister receives the full account list after every mutation.
type Persister interface {
	Enqueue(key string, v any) error
}

// Balancer computes an account's live balance. The ledger implements it.
type Balancer interface {
	Balance(accountID string) decimal.Decimal
}

// Service owns the account definitions. Balances are delegated to the
// ledger, which reads opening balances back through OpeningBalance.
type Service struct {
	mu       sync.RWMutex
	accounts []model.Account
	persist  Persister
	ledger   Balancer
	newID    id.Generator
}

// NewService creates a Service from previously loaded accounts.
func NewService(accounts []model.Account, persist Persister) *Service {
	return &Service{accounts: slices.Clone(accounts), persist: persist, newID: id.New}
}

// SetBalancer wires the ledger used by BalanceOf.
func (s *Service) SetBalancer(b Balancer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = b
}

// SetIDGenerator replaces the generator used for accounts added without an id.
func (s *Service) SetIDGenerator(g id.Generator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newID = g
}

func (s *Service) indexLocked(accountID string) int {
	return slices.IndexFunc(s.accounts, func(a model.Account) bool { return a.ID == accountID })
}

func (s *Service) commitLocked(next []model.Account) error {
	if s.persist != nil {
		if err := s.persist.Enqueue(store.KeyAccounts, next); err != nil {
			return err
		}
	}
	s.accounts = next
	return nil
}

func validateAccount(a model.Account) error {
	if a.Name == "" {
		return model.ValidationError{Field: "name", Reason: "required"}
	}
	if !a.Type.Valid() {
		return model.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown account type %q", a.Type)}
	}
	return nil
}

// Add registers a new account. An empty id gets a generated one and an
// empty type defaults to cash. It returns the account id.
func (s *Service) Add(a model.Account) (string, error) {
	a.ID = strings.TrimSpace(a.ID)
	a.Name = strings.TrimSpace(a.Name)
	if a.Type == "" {
		a.Type = model.AccountTypeCash
	}
	if err := validateAccount(a); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = s.newID()
	}
	if s.indexLocked(a.ID) >= 0 {
		return "", model.ConflictError{Kind: "account", Name: a.ID}
	}
	if err := s.commitLocked(append(slices.Clone(s.accounts), a)); err != nil {
		return "", err
	}
	return a.ID, nil
}

// Patch lists account fields to change. Nil fields are left alone.
type Patch struct {
	Name    *string
	Type    *model.AccountType
	Balance *decimal.Decimal
}

// Update changes an account's name, type or opening balance.
func (s *Service) Update(accountID string, p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(accountID)
	if i < 0 {
		return model.NotFoundError{Kind: "account", ID: accountID}
	}
	a := s.accounts[i]
	if p.Name != nil {
		a.Name = strings.TrimSpace(*p.Name)
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Balance != nil {
		a.Balance = *p.Balance
	}
	if err := validateAccount(a); err != nil {
		return err
	}
	next := slices.Clone(s.accounts)
	next[i] = a
	return s.commitLocked(next)
}

// Remove deletes the account. Transactions that reference it are kept.
func (s *Service) Remove(accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(accountID)
	if i < 0 {
		return model.NotFoundError{Kind: "account", ID: accountID}
	}
	return s.commitLocked(slices.Delete(slices.Clone(s.accounts), i, i+1))
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.accounts)
}

// Get returns an account by ID.
func (s *Service) Get(accountID string) (model.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(accountID); i >= 0 {
		return s.accounts[i], true
	}
	return model.Account{}, false
}

// Exists reports whether an account ID exists.
func (s *Service) Exists(accountID string) bool {
	_, ok := s.Get(accountID)
	return ok
}

// OpeningBalance returns the stored anchor balance.
func (s *Service) OpeningBalance(accountID string) (decimal.Decimal, bool) {
	a, ok := s.Get(accountID)
	return a.Balance, ok
}

// ByType returns all accounts of the given type.
func (s *Service) ByType(accountType model.AccountType) []model.Account {
	var result []model.Account
	for _, a := range s.All() {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result
}

// BalanceOf returns the live balance, or the opening balance when no ledger
// is wired.
func (s *Service) BalanceOf(accountID string) decimal.Decimal {
	s.mu.RLock()
	b := s.ledger
	s.mu.RUnlock()
	if b == nil {
		ob, _ := s.OpeningBalance(accountID)
		return ob
	}
	return b.Balance(accountID)
}

// AccountBalance pairs an account with its live balance.
type AccountBalance struct {
	Account model.Account
	Balance decimal.Decimal
}

// Balances returns the live balance of every registered account.
func (s *Service) Balances() []AccountBalance {
	accts := s.All()
	out := make([]AccountBalance, len(accts))
	for i, a := range accts {
		out[i] = AccountBalance{Account: a, Balance: s.BalanceOf(a.ID)}
	}
	return out
}

// TotalBalance sums the live balances of registered accounts only.
func (s *Service) TotalBalance() decimal.Decimal {
	sum := decimal.Zero
	for _, ab := range s.Balances() {
		sum = sum.Add(ab.Balance)
	}
	return sum
}
