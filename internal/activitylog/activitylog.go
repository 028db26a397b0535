// Package activitylog keeps an append-only CSV of mutations made through
// the CLI, in <dataDir>/logs/activity.csv.
package activitylog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Entry is one recorded mutation.
type Entry struct {
	Timestamp time.Time
	Action    string
	Kind      string
	TargetID  string
	Details   string
}

var header = []string{"timestamp", "action", "kind", "target_id", "details"}

const (
	logDir      = "logs"
	logFile     = "activity.csv"
	colTime     = 0
	colAction   = 1
	colKind     = 2
	colTargetID = 3
	colDetails  = 4
)

// Path returns the log location under dataDir.
func Path(dataDir string) string {
	return filepath.Join(dataDir, logDir, logFile)
}

func marshalEntry(e Entry) []string {
	row := make([]string, len(header))
	row[colTime] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colAction] = e.Action
	row[colKind] = e.Kind
	row[colTargetID] = e.TargetID
	row[colDetails] = e.Details
	return row
}

func unmarshalEntry(rec []string) (Entry, error) {
	ts, err := time.Parse(time.RFC3339, rec[colTime])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", rec[colTime], err)
	}
	return Entry{
		Timestamp: ts,
		Action:    rec[colAction],
		Kind:      rec[colKind],
		TargetID:  rec[colTargetID],
		Details:   rec[colDetails],
	}, nil
}

// Append writes entries, creating the file and header if needed.
func Append(dataDir string, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Join(dataDir, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := Path(dataDir)
	_, statErr := os.Stat(path)
	needsHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(marshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns every entry, oldest first. A missing file yields no entries.
func Read(dataDir string) ([]Entry, error) {
	f, err := os.Open(Path(dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()
	return readEntries(f)
}

// Tail returns the last n entries.
func Tail(dataDir string, n int) ([]Entry, error) {
	entries, err := Read(dataDir)
	if err != nil || n <= 0 || len(entries) <= n {
		return entries, err
	}
	return entries[len(entries)-n:], nil
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading activity log: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	entries := make([]Entry, 0, len(records)-1)
	for i, rec := range records[1:] {
		e, err := unmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
