package state

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/JP-Fernando/trading-tool/internal/schema"
)

const snapshotTolerance = 1e-9

// Snapshot captures the portfolio at a point in the timeline.
type Snapshot struct {
	Timestamp      int64           `json:"timestamp"`
	LastSeq        uint64          `json:"lastSeq"`
	LastEventTs    int64           `json:"lastEventTs"`
	RealizedPnL    float64         `json:"realizedPnl"`
	CommissionPaid float64         `json:"commissionPaid"`
	TotalTrades    uint64          `json:"totalTrades"`
	WinningTrades  uint64          `json:"winningTrades"`
	Positions      []PositionEntry `json:"positions"`
}

// PositionEntry is a single symbol position entry.
type PositionEntry struct {
	Symbol      string  `json:"symbol"`
	Qty         float64 `json:"qty"`
	AvgEntry    float64 `json:"avgEntry"`
	RealizedPnL float64 `json:"realizedPnl"`
	Mark        float64 `json:"mark,omitempty"`
}

// Snapshot builds a snapshot from the current state.
func (p *Portfolio) Snapshot() Snapshot {
	return p.SnapshotWithMeta(0, 0)
}

// SnapshotWithMeta builds a snapshot with event metadata.
func (p *Portfolio) SnapshotWithMeta(lastSeq uint64, lastEventTs schema.Timestamp) Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := make([]PositionEntry, 0, len(p.positions))
	for symbol, pos := range p.positions {
		entries = append(entries, PositionEntry{
			Symbol:      symbol,
			Qty:         pos.qty,
			AvgEntry:    pos.avgEntry,
			RealizedPnL: pos.realized,
			Mark:        p.marks[symbol],
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Symbol < entries[j].Symbol
	})
	return Snapshot{
		Timestamp:      time.Now().UTC().UnixNano(),
		LastSeq:        lastSeq,
		LastEventTs:    int64(lastEventTs),
		RealizedPnL:    p.realized,
		CommissionPaid: p.commission,
		TotalTrades:    p.trades,
		WinningTrades:  p.wins,
		Positions:      entries,
	}
}

// ApplySnapshot replaces the portfolio state with a snapshot.
func (p *Portfolio) ApplySnapshot(snapshot Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.positions = make(map[string]*position, len(snapshot.Positions))
	p.marks = make(map[string]float64, len(snapshot.Positions))
	p.symbols = p.symbols[:0]
	for _, entry := range snapshot.Positions {
		p.addSymbolLocked(entry.Symbol)
		p.positions[entry.Symbol] = &position{
			qty:      entry.Qty,
			avgEntry: entry.AvgEntry,
			realized: entry.RealizedPnL,
		}
		if entry.Mark != 0 {
			p.marks[entry.Symbol] = entry.Mark
		}
	}
	p.realized = snapshot.RealizedPnL
	p.commission = snapshot.CommissionPaid
	p.trades = snapshot.TotalTrades
	p.wins = snapshot.WinningTrades
}

// WriteSnapshot writes a snapshot to disk as JSON.
func WriteSnapshot(path string, snapshot Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSnapshot loads a snapshot from disk.
func ReadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// CompareSnapshots checks if two snapshots hold the same portfolio. Wall
// clock and WAL metadata are ignored.
func CompareSnapshots(expected, actual Snapshot) error {
	if len(expected.Positions) != len(actual.Positions) {
		return fmt.Errorf("snapshot length mismatch: expected=%d actual=%d", len(expected.Positions), len(actual.Positions))
	}
	if expected.TotalTrades != actual.TotalTrades || expected.WinningTrades != actual.WinningTrades {
		return fmt.Errorf("snapshot trade count mismatch: expected=%d/%d actual=%d/%d",
			expected.WinningTrades, expected.TotalTrades, actual.WinningTrades, actual.TotalTrades)
	}
	if !closeEnough(expected.RealizedPnL, actual.RealizedPnL) {
		return fmt.Errorf("snapshot realized pnl mismatch: expected=%v actual=%v", expected.RealizedPnL, actual.RealizedPnL)
	}
	if !closeEnough(expected.CommissionPaid, actual.CommissionPaid) {
		return fmt.Errorf("snapshot commission mismatch: expected=%v actual=%v", expected.CommissionPaid, actual.CommissionPaid)
	}

	expectedMap := make(map[string]PositionEntry, len(expected.Positions))
	for _, entry := range expected.Positions {
		expectedMap[entry.Symbol] = entry
	}
	for _, entry := range actual.Positions {
		want, ok := expectedMap[entry.Symbol]
		if !ok {
			return fmt.Errorf("snapshot missing symbol: %s", entry.Symbol)
		}
		if !closeEnough(want.Qty, entry.Qty) {
			return fmt.Errorf("snapshot qty mismatch: symbol=%s expected=%v actual=%v", entry.Symbol, want.Qty, entry.Qty)
		}
		if !closeEnough(want.AvgEntry, entry.AvgEntry) {
			return fmt.Errorf("snapshot avg entry mismatch: symbol=%s expected=%v actual=%v", entry.Symbol, want.AvgEntry, entry.AvgEntry)
		}
	}
	return nil
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) <= snapshotTolerance*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
