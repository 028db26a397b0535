package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// millis encodes an instant as epoch milliseconds. The zero time is written
// as absent; every other instant, the epoch included, round-trips.
func millis(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func fromMillis(ms *int64) time.Time {
	if ms == nil {
		return time.Time{}
	}
	return time.UnixMilli(*ms)
}

func numberOf(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func decimalOf(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(string(n))
}
