// Package ledger appends per-record outcomes to a CSV file so failed records
// can be inspected and replayed.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jszwec/csvutil"

	"leadrelay/internal/models"
)

// Entry is one ledger row.
type Entry struct {
	Time     time.Time `csv:"time"`
	RunID    string    `csv:"run_id"`
	Vendor   string    `csv:"vendor"`
	Brand    string    `csv:"brand"`
	SourceID string    `csv:"source_id"`
	Shop     string    `csv:"shop"`
	Tier     string    `csv:"tier"`
	Status   string    `csv:"status"`
	Detail   string    `csv:"detail"`
	Endpoint string    `csv:"endpoint"`
	Payload  string    `csv:"payload"`
	Line     int       `csv:"line"`
}

// Failed reports whether the entry records a failed delivery.
func (e Entry) Failed() bool {
	return e.Status == string(models.StatusFailed)
}

// Context identifies the job an outcome belongs to.
type Context struct {
	RunID    string
	Vendor   string
	Brand    string
	Endpoint string
}

// FromOutcome builds the ledger entry of an outcome.
func FromOutcome(c Context, o models.Outcome, at time.Time) Entry {
	e := Entry{
		Time:     at,
		RunID:    c.RunID,
		Vendor:   c.Vendor,
		Brand:    c.Brand,
		Endpoint: c.Endpoint,
		SourceID: o.SourceID,
		Tier:     o.Tier,
		Status:   string(o.Status),
		Detail:   o.Detail(),
		Payload:  o.Payload,
	}

	if o.Record != nil {
		e.Line = o.Record.Line
		e.Shop = o.Record.Shop
	}

	return e
}

// Writer appends entries to a ledger file.
type Writer struct {
	file *os.File
	csv  *csv.Writer
	enc  *csvutil.Encoder
	now  func() time.Time
	mu   sync.Mutex
}

// Open opens path for appending, creating it and its directory when missing.
// The header is written only to a new or empty file.
func Open(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("failed to stat ledger: %w", err)
	}

	w := csv.NewWriter(f)
	enc := csvutil.NewEncoder(w)
	enc.AutoHeader = false

	if info.Size() == 0 {
		if err := enc.EncodeHeader(Entry{}); err != nil {
			_ = f.Close()

			return nil, fmt.Errorf("failed to write ledger header: %w", err)
		}
	}

	return &Writer{file: f, csv: w, enc: enc, now: time.Now}, nil
}

// Record appends one entry per outcome and flushes.
func (w *Writer) Record(c Context, outcomes ...models.Outcome) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, o := range outcomes {
		if err := w.enc.Encode(FromOutcome(c, o, w.now())); err != nil {
			return fmt.Errorf("failed to encode ledger entry: %w", err)
		}
	}

	w.csv.Flush()

	return w.csv.Error()
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.csv.Flush()

	return errors.Join(w.csv.Error(), w.file.Close())
}

// Read returns every entry of the ledger at path.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(f))
	if errors.Is(err, io.EOF) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create ledger decoder: %w", err)
	}

	var entries []Entry
	if err := dec.Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode ledger: %w", err)
	}

	return entries, nil
}

// ReadFailed returns the failed entries of the ledger, restricted to runID
// when it is not empty. A failure is skipped once a later entry delivered the
// same payload for the same vendor, brand and source id, and repeated failures
// of one payload are returned once.
func ReadFailed(path, runID string) ([]Entry, error) {
	entries, err := Read(path)
	if err != nil {
		return nil, err
	}

	lastDelivered := make(map[entryKey]int)

	for i, e := range entries {
		if e.Status == string(models.StatusDelivered) {
			lastDelivered[e.key()] = i
		}
	}

	var failed []Entry

	seen := make(map[entryKey]bool)

	for i, e := range entries {
		if !e.Failed() || (runID != "" && e.RunID != runID) {
			continue
		}

		k := e.key()
		if j, ok := lastDelivered[k]; ok && j > i {
			continue
		}

		if seen[k] {
			continue
		}

		seen[k] = true
		failed = append(failed, e)
	}

	return failed, nil
}

type entryKey struct {
	vendor, brand, sourceID, payload string
}

func (e Entry) key() entryKey {
	return entryKey{vendor: e.Vendor, brand: e.Brand, sourceID: e.SourceID, payload: e.Payload}
}
