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

// GenericParser reads any CSV with a header naming a date, a description
// and a signed amount column. Column names are matched case-insensitively.
type GenericParser struct {
	// DateLayout defaults to 2006-01-02.
	DateLayout string
}

var (
	genericDateCols   = []string{"date", "posting date", "transaction date"}
	genericDescCols   = []string{"description", "title", "payee", "memo"}
	genericAmountCols = []string{"amount", "value"}
)

func (p *GenericParser) Format() string { return "generic" }

func (p *GenericParser) Parse(r io.Reader) ([]Row, error) {
	layout := p.DateLayout
	if layout == "" {
		layout = time.DateOnly
	}
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	dateCol, descCol, amountCol := findCol(header, genericDateCols), findCol(header, genericDescCols), findCol(header, genericAmountCols)
	if dateCol < 0 || descCol < 0 || amountCol < 0 {
		return nil, fmt.Errorf("header %v: need date, description and amount columns", header)
	}

	var rows []Row
	refs := refCounter{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		date, err := time.Parse(layout, strings.TrimSpace(rec[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing date %q: %w", line, rec[dateCol], err)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(rec[amountCol]))
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing amount %q: %w", line, rec[amountCol], err)
		}
		desc := strings.TrimSpace(rec[descCol])
		rows = append(rows, Row{
			Date:        date,
			Description: desc,
			Amount:      amount,
			Reference:   refs.unique(reference("csv", date, desc)),
		})
	}
	return rows, nil
}

func findCol(header, names []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, n := range names {
			if h == n {
				return i
			}
		}
	}
	return -1
}
