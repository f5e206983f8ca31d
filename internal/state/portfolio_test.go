package state

import (
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/JP-Fernando/trading-tool/internal/recorder"
	"github.com/JP-Fernando/trading-tool/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(symbol string, side schema.Side, qty, price float64) schema.Fill {
	return schema.Fill{Timestamp: 1, Symbol: symbol, Side: side, FilledQuantity: qty, FillPrice: price}
}

func TestPortfolioAveragesEntries(t *testing.T) {
	p := NewPortfolio()
	p.ApplyFill(fill("ABC", schema.SideBuy, 10, 100))
	pos, pnl := p.ApplyFill(fill("ABC", schema.SideBuy, 10, 110))

	assert.Equal(t, 20.0, pos.Position)
	assert.Equal(t, 105.0, pos.AvgEntryPrice)
	assert.Zero(t, pnl.TotalTrades)

	p.Mark(schema.Tick{Symbol: "ABC", Bid: 119, Ask: 121})
	pos = p.Position(2, "ABC")
	assert.Equal(t, 300.0, pos.UnrealizedPnL)
	assert.Equal(t, schema.Timestamp(2), pos.Timestamp)
	assert.Equal(t, 300.0, p.PnL(2).UnrealizedPnL)
}

func TestPortfolioPnLIsStableAcrossSymbols(t *testing.T) {
	p := NewPortfolio()
	for i := 0; i < 8; i++ {
		symbol := fmt.Sprintf("S%d", i)
		qty := math.Pow(10, float64(i%4)) + 0.1
		p.ApplyFill(fill(symbol, schema.SideBuy, qty, 1.1))
		p.Mark(schema.Tick{Symbol: symbol, Bid: 1.3 + 1e-7*float64(i), Ask: 1.3 + 3e-7*float64(i)})
	}

	want := p.PnL(0)
	for range 500 {
		got := p.PnL(0)
		require.Equal(t, math.Float64bits(want.UnrealizedPnL), math.Float64bits(got.UnrealizedPnL))
		require.Equal(t, math.Float64bits(want.TotalPnL), math.Float64bits(got.TotalPnL))
	}

	restored := NewPortfolio()
	restored.ApplySnapshot(p.Snapshot())
	assert.Equal(t, math.Float64bits(want.UnrealizedPnL), math.Float64bits(restored.PnL(0).UnrealizedPnL))
}

func TestPortfolioPartialClose(t *testing.T) {
	p := NewPortfolio()
	p.ApplyFill(fill("ABC", schema.SideBuy, 20, 105))
	pos, pnl := p.ApplyFill(fill("ABC", schema.SideSell, 5, 115))

	assert.Equal(t, 15.0, pos.Position)
	assert.Equal(t, 105.0, pos.AvgEntryPrice)
	assert.Equal(t, 50.0, pos.RealizedPnL)
	assert.Equal(t, 50.0, pnl.RealizedPnL)
	assert.Equal(t, uint64(1), pnl.TotalTrades)
	assert.Equal(t, uint64(1), pnl.WinningTrades)
	assert.Equal(t, 1.0, pnl.WinRate())
}

func TestPortfolioFlip(t *testing.T) {
	p := NewPortfolio()
	p.ApplyFill(fill("ABC", schema.SideBuy, 10, 100))
	pos, pnl := p.ApplyFill(fill("ABC", schema.SideSell, 15, 90))

	assert.Equal(t, -5.0, pos.Position)
	assert.Equal(t, 90.0, pos.AvgEntryPrice)
	assert.Equal(t, -100.0, pnl.RealizedPnL)
	assert.Equal(t, uint64(1), pnl.TotalTrades)
	assert.Zero(t, pnl.WinningTrades)
}

func TestPortfolioShortRoundTrip(t *testing.T) {
	p := NewPortfolio()
	p.ApplyFill(fill("ABC", schema.SideSell, 10, 100))
	pos, pnl := p.ApplyFill(fill("ABC", schema.SideBuy, 10, 90))

	assert.Zero(t, pos.Position)
	assert.Zero(t, pos.AvgEntryPrice)
	assert.Zero(t, pos.UnrealizedPnL)
	assert.Equal(t, 100.0, pnl.RealizedPnL)
	assert.Equal(t, uint64(1), pnl.WinningTrades)
}

func TestPortfolioCommissionInTotal(t *testing.T) {
	p := NewPortfolio()
	buy := fill("ABC", schema.SideBuy, 10, 100)
	buy.Commission = 0.5
	p.ApplyFill(buy)
	sell := fill("ABC", schema.SideSell, 10, 101)
	sell.Commission = 0.5
	_, pnl := p.ApplyFill(sell)

	assert.Equal(t, 10.0, pnl.RealizedPnL)
	assert.Equal(t, 1.0, pnl.CommissionPaid)
	assert.Equal(t, 9.0, pnl.TotalPnL)
}

func TestPortfolioIgnoresNonFiniteInput(t *testing.T) {
	p := NewPortfolio()
	p.ApplyFill(fill("ABC", schema.SideBuy, 10, 100))
	p.Mark(schema.Tick{Symbol: "ABC", Bid: 101, Ask: 103})

	pos, pnl := p.ApplyFill(fill("ABC", schema.SideSell, 5, math.NaN()))
	assert.Equal(t, 10.0, pos.Position)
	assert.Equal(t, 100.0, pos.AvgEntryPrice)
	assert.Equal(t, 20.0, pnl.UnrealizedPnL)
	assert.Zero(t, pnl.TotalTrades)

	p.Mark(schema.Tick{Symbol: "ABC", Bid: math.Inf(1), Ask: 1})
	assert.Equal(t, 20.0, p.PnL(0).UnrealizedPnL)

	path := filepath.Join(t.TempDir(), "positions.json")
	require.NoError(t, WriteSnapshot(path, p.Snapshot()))
}

func TestPortfolioUnknownSideOnlyCharges(t *testing.T) {
	p := NewPortfolio()
	p.ApplyFill(fill("ABC", schema.SideBuy, 1, 100))
	f := fill("ABC", schema.SideUnknown, 1, 100)
	f.Commission = 0.1
	pos, pnl := p.ApplyFill(f)

	assert.Equal(t, 1.0, pos.Position)
	assert.Zero(t, pnl.TotalTrades)
	assert.Equal(t, 0.1, pnl.CommissionPaid)
}

func TestPortfolioFirstFillMarks(t *testing.T) {
	p := NewPortfolio()
	pos, _ := p.ApplyFill(fill("NEW", schema.SideBuy, 2, 50))
	assert.Zero(t, pos.UnrealizedPnL)
	assert.Equal(t, 1, p.Symbols())
	assert.Equal(t, schema.PositionUpdate{Timestamp: 3, Symbol: "NONE"}, p.Position(3, "NONE"))
}

func TestSnapshotRoundTrip(t *testing.T) {
	p := NewPortfolio()
	p.ApplyFill(fill("AAA", schema.SideBuy, 3, 10))
	p.ApplyFill(fill("BBB", schema.SideSell, 2, 20))
	p.ApplyFill(fill("AAA", schema.SideSell, 1, 12))

	snap := p.SnapshotWithMeta(7, 99)
	assert.Equal(t, "AAA", snap.Positions[0].Symbol)
	assert.Equal(t, "BBB", snap.Positions[1].Symbol)

	path := filepath.Join(t.TempDir(), "nested", "snap.json")
	require.NoError(t, WriteSnapshot(path, snap))
	loaded, err := ReadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
	require.NoError(t, CompareSnapshots(snap, loaded))

	restored := NewPortfolio()
	restored.ApplySnapshot(loaded)
	require.NoError(t, CompareSnapshots(snap, restored.Snapshot()))
	assert.Equal(t, p.PnL(5), restored.PnL(5))
}

func TestCompareSnapshotsMismatch(t *testing.T) {
	a := NewPortfolio()
	a.ApplyFill(fill("AAA", schema.SideBuy, 3, 10))
	b := NewPortfolio()
	b.ApplyFill(fill("AAA", schema.SideBuy, 4, 10))
	c := NewPortfolio()
	c.ApplyFill(fill("ZZZ", schema.SideBuy, 3, 10))

	require.Error(t, CompareSnapshots(a.Snapshot(), b.Snapshot()))
	require.Error(t, CompareSnapshots(a.Snapshot(), c.Snapshot()))
	require.Error(t, CompareSnapshots(a.Snapshot(), NewPortfolio().Snapshot()))
}

func TestRecoverPortfolio(t *testing.T) {
	events := []schema.Event{
		schema.Tick{Timestamp: 1, Symbol: "AAA", Bid: 9, Ask: 11},
		schema.Fill{Timestamp: 1, Symbol: "AAA", Side: schema.SideBuy, FilledQuantity: 4, FillPrice: 10, Commission: 0.02},
		schema.Signal{Timestamp: 2, Symbol: "AAA", Side: schema.SideSell},
		schema.Fill{Timestamp: 2, Symbol: "AAA", Side: schema.SideSell, FilledQuantity: 1, FillPrice: 12, Commission: 0.006},
		schema.Tick{Timestamp: 3, Symbol: "AAA", Bid: 13, Ask: 15},
	}

	dir := t.TempDir()
	w, err := recorder.NewWriter(recorder.DefaultConfig(dir))
	require.NoError(t, err)
	direct := NewPortfolio()
	for _, ev := range events {
		require.NoError(t, w.Append(ev))
		switch v := ev.(type) {
		case schema.Fill:
			direct.ApplyFill(v)
		case schema.Tick:
			direct.Mark(v)
		}
	}
	require.NoError(t, w.Close())

	res, err := RecoverPortfolio(t.Context(), RecoverConfig{WALDir: dir})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), res.LastSeq)
	assert.Equal(t, schema.Timestamp(3), res.LastEventTs)
	require.NoError(t, CompareSnapshots(direct.Snapshot(), res.Portfolio.Snapshot()))
	assert.Equal(t, direct.PnL(3), res.Portfolio.PnL(3))
}

func TestRecoverFromSnapshotSkipsCoveredRecords(t *testing.T) {
	dir := t.TempDir()
	w, err := recorder.NewWriter(recorder.DefaultConfig(dir))
	require.NoError(t, err)

	first := schema.Fill{Timestamp: 1, Symbol: "AAA", Side: schema.SideBuy, FilledQuantity: 2, FillPrice: 10}
	second := schema.Fill{Timestamp: 2, Symbol: "AAA", Side: schema.SideBuy, FilledQuantity: 2, FillPrice: 20}
	require.NoError(t, w.Append(first))

	p := NewPortfolio()
	p.ApplyFill(first)
	snapPath := filepath.Join(t.TempDir(), "snap.json")
	require.NoError(t, WriteSnapshot(snapPath, p.SnapshotWithMeta(w.Seq(), 1)))

	require.NoError(t, w.Append(second))
	require.NoError(t, w.Close())

	res, err := RecoverPortfolio(t.Context(), RecoverConfig{WALDir: dir, SnapshotPath: snapPath})
	require.NoError(t, err)

	pos := res.Portfolio.Position(2, "AAA")
	assert.Equal(t, 4.0, pos.Position)
	assert.Equal(t, 15.0, pos.AvgEntryPrice)
	assert.Equal(t, uint64(2), res.LastSeq)
}

func TestRecoverRequiresDir(t *testing.T) {
	_, err := RecoverPortfolio(t.Context(), RecoverConfig{})
	require.Error(t, err)
}
