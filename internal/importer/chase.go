package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ChaseParser reads Chase checking exports:
//
//	Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #
//
// Columns are found by header name. Data rows carry a trailing empty field
// that the header lacks.
type ChaseParser struct{}

const chaseDateLayout = "01/02/2006"

func (p *ChaseParser) Format() string { return "chase" }

// chaseColumns holds header positions. Optional columns are -1 when absent.
type chaseColumns struct {
	date, desc, amount int
	details, kind, slip int
}

func chaseHeader(header []string) (chaseColumns, error) {
	c := chaseColumns{
		date:    findCol(header, []string{"posting date"}),
		desc:    findCol(header, []string{"description"}),
		amount:  findCol(header, []string{"amount"}),
		details: findCol(header, []string{"details"}),
		kind:    findCol(header, []string{"type"}),
		slip:    findCol(header, []string{"check or slip #"}),
	}
	if c.date < 0 || c.desc < 0 || c.amount < 0 {
		return c, fmt.Errorf("chase header %v: need Posting Date, Description and Amount", header)
	}
	return c, nil
}

func (p *ChaseParser) Parse(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV: %w", err)
	}
	cols, err := chaseHeader(header)
	if err != nil {
		return nil, err
	}

	var rows []Row
	refs := refCounter{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading chase CSV: %w", err)
		}
		row, err := cols.parse(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		row.Reference = refs.unique(row.Reference)
		rows = append(rows, row)
	}
	return rows, nil
}

func (c chaseColumns) parse(rec []string) (Row, error) {
	field := func(i int) string {
		if i < 0 || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	date, err := time.Parse(chaseDateLayout, field(c.date))
	if err != nil {
		return Row{}, fmt.Errorf("parsing date %q: %w", field(c.date), err)
	}
	amount, err := decimal.NewFromString(field(c.amount))
	if err != nil {
		return Row{}, fmt.Errorf("parsing amount %q: %w", field(c.amount), err)
	}
	// DEBIT rows leave the account and CREDIT rows enter it. CHECK and DSLIP
	// rows carry the sign on the amount alone.
	switch details := strings.ToUpper(field(c.details)); {
	case details == "DEBIT" && amount.IsPositive(), details == "CREDIT" && amount.IsNegative():
		return Row{}, fmt.Errorf("%s row with amount %s", details, amount)
	}

	desc := field(c.desc)
	ref := reference("chase", date, desc)
	if slip := field(c.slip); slip != "" {
		ref = fmt.Sprintf("chase_%s_CHK%s", date.Format("20060102"), slip)
	}
	return Row{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Reference:   ref,
		Type:        field(c.kind),
	}, nil
}

// reference builds ids like chase_20250103_GITHUBPROS from the first ten
// alphanumerics of the description.
func reference(source string, date time.Time, desc string) string {
	prefix := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, desc)
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return fmt.Sprintf("%s_%s_%s", source, date.Format("20060102"), prefix)
}

// refCounter suffixes repeats of a reference within one file with _2, _3 and
// so on. The numbering depends only on row order, so a re-import of the same
// file yields the same references.
type refCounter map[string]int

func (c refCounter) unique(ref string) string {
	c[ref]++
	if n := c[ref]; n > 1 {
		return fmt.Sprintf("%s_%d", ref, n)
	}
	return ref
}
