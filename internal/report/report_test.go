package report

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/JP-Fernando/trading-tool/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFills() []schema.Fill {
	return []schema.Fill{
		{OrderID: 1, Timestamp: 5, Symbol: "ABC", Side: schema.SideBuy, FilledQuantity: 10, FillPrice: 100, Commission: 0.5, Venue: "SIMULATED"},
		{OrderID: 2, Timestamp: 0, Symbol: "XYZ", Side: schema.SideSell, FilledQuantity: 5, FillPrice: 99.5, Commission: 0.24875, Slippage: -0.5, Venue: "SIMULATED"},
		{OrderID: 3, Timestamp: 9, Symbol: "ABC", Side: schema.SideBuy, FilledQuantity: 1, FillPrice: math.NaN()},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize("run-1", sampleFills())

	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, 2, s.Fills)
	assert.Equal(t, 1, s.Buys)
	assert.Equal(t, 1, s.Sells)
	assert.Equal(t, 2, s.Symbols)
	assert.Equal(t, 1, s.NonFinite)
	assert.Equal(t, "15", s.Volume.String())
	assert.Equal(t, "1497.5", s.Notional.String())
	assert.Equal(t, "0.74875", s.Commission.String())
	assert.Equal(t, "-0.25", s.AvgSlippage.String())
	assert.Equal(t, schema.Timestamp(0), s.First)
	assert.Equal(t, schema.Timestamp(5), s.Last)
}

func TestSummarizeExactTotals(t *testing.T) {
	fills := make([]schema.Fill, 0, 10)
	for i := 0; i < 10; i++ {
		fills = append(fills, schema.Fill{Symbol: "A", Side: schema.SideBuy, FilledQuantity: 1, FillPrice: 1, Commission: 0.1})
	}
	s := Summarize("", fills)
	assert.Equal(t, "1", s.Commission.String())
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize("empty", nil)
	assert.Zero(t, s.Fills)
	assert.True(t, s.Volume.IsZero())
	assert.True(t, s.AvgSlippage.IsZero())
}

func TestSummaryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "summary.json")
	s := Summarize("run-2", sampleFills()).WithPnL(schema.PnLUpdate{Timestamp: 9, TotalPnL: 1.5, TotalTrades: 2, WinningTrades: 1})

	require.NoError(t, WriteSummary(path, s))
	got, err := ReadSummary(path)
	require.NoError(t, err)

	assert.Equal(t, s.RunID, got.RunID)
	assert.Equal(t, s.Fills, got.Fills)
	assert.True(t, s.Notional.Equal(got.Notional))
	assert.True(t, s.Commission.Equal(got.Commission))
	require.NotNil(t, got.PnL)
	assert.Equal(t, *s.PnL, *got.PnL)
	assert.Contains(t, s.String(), "fills=2")
}

func TestJournalRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fills.jsonl")
	j, err := OpenJournal(path, "run-3")
	require.NoError(t, err)

	fills := sampleFills()[:2]
	for _, f := range fills {
		j.Record(f)
	}
	assert.Equal(t, 2, j.Count())
	require.NoError(t, j.Err())
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	// recording after close is a no-op
	j.Record(fills[0])

	records, err := ReadJournal(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, NewFillRecord("run-3", fills[0]), records[0])
	assert.Equal(t, NewFillRecord("run-3", fills[1]), records[1])
	assert.Equal(t, "SELL", records[1].Side)
}

func TestJournalAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fills.jsonl")
	for _, run := range []string{"a", "b"} {
		j, err := OpenJournal(path, run)
		require.NoError(t, err)
		j.Record(sampleFills()[0])
		require.NoError(t, j.Close())
	}

	records, err := ReadJournal(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].RunID)
	assert.Equal(t, "b", records[1].RunID)
}

func TestReadJournalBadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"runId\":\"x\"}\nnot json\n"), 0o644))

	_, err := ReadJournal(path)
	require.Error(t, err)
}

func TestJournalSkipsNonFiniteFill(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fills.jsonl")
	j, err := OpenJournal(path, "run-nan")
	require.NoError(t, err)

	fills := sampleFills()
	j.Record(fills[2])
	j.Record(fills[0])
	j.Record(schema.Fill{OrderID: 4, Symbol: "ABC", FilledQuantity: 1, FillPrice: 1, Slippage: math.Inf(1)})
	j.Record(fills[1])

	assert.Equal(t, 2, j.Count())
	assert.Equal(t, 2, j.Skipped())
	require.NoError(t, j.Err())
	require.NoError(t, j.Close())

	records, err := ReadJournal(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uint64(1), records[0].OrderID)
	assert.Equal(t, uint64(2), records[1].OrderID)
}

func TestSummaryFileWithNonFinitePnL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	s := Summarize("run-nan", sampleFills()).WithPnL(schema.PnLUpdate{Timestamp: 9, TotalPnL: math.NaN(), UnrealizedPnL: math.NaN()})
	assert.Nil(t, s.PnL)
	assert.True(t, s.NonFinitePnL)

	require.NoError(t, WriteSummary(path, s))
	got, err := ReadSummary(path)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Fills)
	assert.Equal(t, 1, got.NonFinite)
	assert.True(t, got.NonFinitePnL)
	assert.Nil(t, got.PnL)

	// a later finite state clears the flag
	s = s.WithPnL(schema.PnLUpdate{TotalPnL: 1})
	assert.False(t, s.NonFinitePnL)
	require.NotNil(t, s.PnL)
}
