package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/pocket/internal/model"
)

// Rule assigns Category to rows whose description contains Match.
type Rule struct {
	Match    string
	Category string
}

// DefaultRules cover the default categories.
var DefaultRules = []Rule{
	{Match: "UBER", Category: "Transport"},
	{Match: "LYFT", Category: "Transport"},
	{Match: "TRANSIT", Category: "Transport"},
	{Match: "FOODS", Category: "Food"},
	{Match: "MARKET", Category: "Food"},
	{Match: "RESTAURANT", Category: "Food"},
	{Match: "ELECTRIC", Category: "Bills"},
	{Match: "BILL", Category: "Bills"},
	{Match: "SUBSCRIPTION", Category: "Bills"},
	{Match: "AMAZON", Category: "Shopping"},
}

// Ledger is the subset of the ledger an import writes to.
type Ledger interface {
	Add(t model.Transaction) (string, error)
	All() []model.Transaction
}

// CategoryChecker reports whether a category is registered.
type CategoryChecker interface {
	Contains(name string) bool
}

// Options controls how rows become transactions.
type Options struct {
	Account    string
	Fallback   string
	Rules      []Rule
	Categories CategoryChecker
	Location   *time.Location
	// Tag is added to every imported transaction when set.
	Tag string
}

// Result summarizes an import.
type Result struct {
	Created []string
	Skipped int
}

// Import adds rows to the ledger. Negative amounts become expenses and
// positive ones income. The bank reference is stored in the notes and rows
// whose reference, amount and account are already in the ledger are
// skipped, so re-importing a statement is harmless. Zero rows are skipped.
func Import(l Ledger, rows []Row, opts Options) (Result, error) {
	if opts.Account == "" {
		return Result{}, model.ValidationError{Field: "account", Reason: "required"}
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	seen := map[string]bool{}
	for _, t := range l.All() {
		if t.Notes != "" {
			seen[dedupKey(t.Account, t.Notes, string(t.Type), t.Amount.String())] = true
		}
	}

	var res Result
	for _, row := range rows {
		if row.Amount.IsZero() {
			res.Skipped++
			continue
		}
		t := toTransaction(row, opts, loc)
		key := dedupKey(t.Account, t.Notes, string(t.Type), t.Amount.String())
		if seen[key] {
			res.Skipped++
			continue
		}
		txID, err := l.Add(t)
		if err != nil {
			return res, fmt.Errorf("importing %s: %w", row.Reference, err)
		}
		seen[key] = true
		res.Created = append(res.Created, txID)
	}
	return res, nil
}

func toTransaction(row Row, opts Options, loc *time.Location) model.Transaction {
	typ := model.TxIncome
	if row.Amount.IsNegative() {
		typ = model.TxExpense
	}
	y, m, d := row.Date.Date()
	t := model.Transaction{
		Type:     typ,
		Amount:   row.Amount.Abs(),
		Date:     time.Date(y, m, d, 12, 0, 0, 0, loc),
		Title:    row.Description,
		Merchant: row.Description,
		Category: categorize(row.Description, opts),
		Account:  opts.Account,
		Notes:    row.Reference,
	}
	if opts.Tag != "" {
		t.Tags = []string{opts.Tag}
	}
	return t
}

func categorize(desc string, opts Options) string {
	upper := strings.ToUpper(desc)
	for _, r := range opts.Rules {
		if !strings.Contains(upper, strings.ToUpper(r.Match)) {
			continue
		}
		if opts.Categories == nil || opts.Categories.Contains(r.Category) {
			return r.Category
		}
	}
	return opts.Fallback
}

func dedupKey(parts ...string) string {
	return strings.Join(parts, "\x00")
}
