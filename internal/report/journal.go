package report

import (
	"bufio"
	"os"
	"path/filepath"
	"sync"

	"github.com/JP-Fernando/trading-tool/internal/schema"
	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"
)

// FillRecord is the journal line for one fill.
type FillRecord struct {
	RunID      string  `json:"runId"`
	OrderID    uint64  `json:"orderId"`
	Timestamp  int64   `json:"ts"`
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Quantity   float64 `json:"qty"`
	Price      float64 `json:"price"`
	Commission float64 `json:"commission"`
	Slippage   float64 `json:"slippage"`
	Venue      string  `json:"venue"`
}

func NewFillRecord(runID string, f schema.Fill) FillRecord {
	return FillRecord{
		RunID:      runID,
		OrderID:    f.OrderID,
		Timestamp:  int64(f.Timestamp),
		Symbol:     f.Symbol,
		Side:       f.Side.String(),
		Quantity:   f.FilledQuantity,
		Price:      f.FillPrice,
		Commission: f.Commission,
		Slippage:   f.Slippage,
		Venue:      f.Venue,
	}
}

// Journal appends fills as JSON lines.
type Journal struct {
	mu    sync.Mutex
	file  *os.File
	w     *bufio.Writer
	runID   string
	count   int
	skipped int
	err     error
}

// OpenJournal creates or appends to the journal at path.
func OpenJournal(path, runID string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create journal dir").With("path", path)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open journal").With("path", path)
	}
	return &Journal{
		file:  file,
		w:     bufio.NewWriter(file),
		runID: runID,
	}, nil
}

// Record writes one fill. Fills carrying NaN or infinite numbers cannot be
// encoded and are counted in Skipped instead. The first write failure is kept
// and later records are dropped; see Err.
func (j *Journal) Record(f schema.Fill) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil || j.file == nil {
		return
	}
	if !finite(f.FilledQuantity, f.FillPrice, f.Commission, f.Slippage) {
		j.skipped++
		return
	}
	line, err := sonic.ConfigFastest.Marshal(NewFillRecord(j.runID, f))
	if err != nil {
		j.skipped++
		return
	}
	line = append(line, '\n')
	if _, err := j.w.Write(line); err != nil {
		j.err = err
		return
	}
	j.count++
}

// Count returns the number of records written.
func (j *Journal) Count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.count
}

// Skipped returns the number of fills left out of the journal.
func (j *Journal) Skipped() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.skipped
}

func (j *Journal) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Close flushes and closes the file handle.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return j.err
	}
	flushErr := j.w.Flush()
	closeErr := j.file.Close()
	j.file = nil
	if j.err != nil {
		return j.err
	}
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// ReadJournal loads every record of a journal file.
func ReadJournal(path string) ([]FillRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var out []FillRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec FillRecord
		if err := sonic.ConfigFastest.Unmarshal(line, &rec); err != nil {
			return nil, errors.Wrap(err, "decode journal line").With("line", len(out)+1)
		}
		out = append(out, rec)
	}
	return out, scanner.Err()
}
