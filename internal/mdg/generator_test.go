package mdg

import (
	"testing"
	"time"

	"github.com/JP-Fernando/trading-tool/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorDeterministic(t *testing.T) {
	cfg := Config{Symbols: []string{"AAA", "BBB"}, Seed: 7, SignalEvery: 3}

	a, err := NewGenerator(cfg)
	require.NoError(t, err)
	b, err := NewGenerator(cfg)
	require.NoError(t, err)

	assert.Equal(t, a.Generate(100), b.Generate(100))
}

func TestGeneratorSeedChangesTimeline(t *testing.T) {
	a, err := NewGenerator(Config{Symbols: []string{"AAA"}, Seed: 1})
	require.NoError(t, err)
	b, err := NewGenerator(Config{Symbols: []string{"AAA"}, Seed: 2})
	require.NoError(t, err)

	assert.NotEqual(t, a.Generate(20), b.Generate(20))
}

func TestGeneratorTicks(t *testing.T) {
	g, err := NewGenerator(Config{
		Symbols:  []string{"AAA", "BBB", "CCC"},
		Seed:     3,
		Start:    1_000,
		Interval: time.Millisecond,
	})
	require.NoError(t, err)

	events := g.Generate(30)
	require.Len(t, events, 30)

	var prev schema.Timestamp
	for i, ev := range events {
		tick, ok := ev.(schema.Tick)
		require.True(t, ok)
		assert.Equal(t, []string{"AAA", "BBB", "CCC"}[i%3], tick.Symbol)
		assert.Equal(t, schema.Timestamp(1_000+int64(i)*int64(time.Millisecond)), tick.Timestamp)
		assert.Greater(t, tick.Ask, tick.Bid)
		assert.Greater(t, tick.Bid, 0.0)
		assert.Greater(t, tick.Liquidity(), 0.0)
		assert.GreaterOrEqual(t, tick.Timestamp, prev)
		prev = tick.Timestamp
	}
}

func TestGeneratorSignals(t *testing.T) {
	g, err := NewGenerator(Config{Symbols: []string{"AAA", "BBB"}, Seed: 11, SignalEvery: 2, StrategyID: "walk"})
	require.NoError(t, err)

	events := g.Generate(8)
	// 8 ticks, each symbol gets 4 ticks, so 2 signals each
	require.Len(t, events, 12)

	signals := 0
	for i, ev := range events {
		sig, ok := ev.(schema.Signal)
		if !ok {
			continue
		}
		signals++
		tick, ok := events[i-1].(schema.Tick)
		require.True(t, ok, "signal must follow its tick")
		assert.Equal(t, tick.Symbol, sig.Symbol)
		assert.Equal(t, tick.Timestamp, sig.Timestamp)
		assert.Equal(t, "walk", sig.StrategyID)
		assert.True(t, sig.Side == schema.SideBuy || sig.Side == schema.SideSell)
		assert.LessOrEqual(t, sig.Strength, 1.0)
		assert.GreaterOrEqual(t, sig.Strength, -1.0)
	}
	assert.Equal(t, 4, signals)
}

func TestGeneratorPriceFloor(t *testing.T) {
	g, err := NewGenerator(Config{Symbols: []string{"AAA"}, Seed: 5, BasePrice: 0.05, Volatility: 0.9})
	require.NoError(t, err)

	for _, ev := range g.Generate(200) {
		tick := ev.(schema.Tick)
		assert.Greater(t, tick.Bid, 0.0)
	}
}

func TestGeneratorValidate(t *testing.T) {
	_, err := NewGenerator(Config{})
	require.Error(t, err)

	_, err = NewGenerator(Config{Symbols: []string{""}})
	require.Error(t, err)

	_, err = NewGenerator(Config{Symbols: []string{"A"}, SignalEvery: -1})
	require.Error(t, err)
}
