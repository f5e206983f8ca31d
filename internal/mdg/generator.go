package mdg

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/JP-Fernando/trading-tool/internal/schema"
)

const (
	defaultBasePrice  = 100.0
	defaultSpread     = 0.02
	defaultTickSize   = 0.01
	defaultBaseSize   = 10.0
	defaultVolatility = 0.001
	defaultInterval   = time.Second
	defaultStrategyID = "mdg"
)

// Config describes a synthetic timeline.
type Config struct {
	Symbols     []string
	Seed        uint64
	Start       schema.Timestamp
	Interval    time.Duration
	BasePrice   float64
	Spread      float64
	TickSize    float64
	BaseSize    float64
	Volatility  float64 // stddev of the per-tick relative move
	SignalEvery int     // emit a signal after every n ticks of a symbol, 0 disables
	StrategyID  string
}

func (c Config) withDefaults() Config {
	if c.Interval == 0 {
		c.Interval = defaultInterval
	}
	if c.BasePrice == 0 {
		c.BasePrice = defaultBasePrice
	}
	if c.Spread == 0 {
		c.Spread = defaultSpread
	}
	if c.TickSize == 0 {
		c.TickSize = defaultTickSize
	}
	if c.BaseSize == 0 {
		c.BaseSize = defaultBaseSize
	}
	if c.Volatility == 0 {
		c.Volatility = defaultVolatility
	}
	if c.StrategyID == "" {
		c.StrategyID = defaultStrategyID
	}
	return c
}

// Validate checks if the config is usable.
func (c Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("invalid generator config: no symbols")
	}
	for _, s := range c.Symbols {
		if s == "" {
			return fmt.Errorf("invalid generator config: empty symbol")
		}
	}
	if c.Interval < 0 {
		return fmt.Errorf("invalid generator config: Interval must be >= 0")
	}
	if c.BasePrice <= 0 || c.Spread < 0 || c.TickSize <= 0 || c.BaseSize <= 0 || c.Volatility < 0 {
		return fmt.Errorf("invalid generator config: prices and sizes must be positive")
	}
	if c.SignalEvery < 0 {
		return fmt.Errorf("invalid generator config: SignalEvery must be >= 0")
	}
	return nil
}

// Generator creates a seeded random walk of ticks, cycling through the
// symbols, with periodic momentum signals. The same config always yields the
// same timeline.
type Generator struct {
	cfg    Config
	rng    *rand.Rand
	prices []float64
	prev   []float64
	counts []int
	index  int
	step   int64
}

// NewGenerator creates a generator.
func NewGenerator(cfg Config) (*Generator, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	prices := make([]float64, len(cfg.Symbols))
	for i := range prices {
		prices[i] = cfg.BasePrice
	}
	return &Generator{
		cfg:    cfg,
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		prices: prices,
		prev:   append([]float64(nil), prices...),
		counts: make([]int, len(cfg.Symbols)),
	}, nil
}

// Next returns the next tick, followed by a signal when one is due.
func (g *Generator) Next() []schema.Event {
	i := g.index
	g.index = (g.index + 1) % len(g.cfg.Symbols)

	ts := g.cfg.Start + schema.Timestamp(g.step*int64(g.cfg.Interval))
	g.step++

	g.prev[i] = g.prices[i]
	g.prices[i] = g.walk(g.prices[i])
	g.counts[i]++

	mid := g.prices[i]
	half := g.cfg.Spread / 2
	tick := schema.Tick{
		Timestamp:  ts,
		Symbol:     g.cfg.Symbols[i],
		Bid:        g.round(mid - half),
		Ask:        g.round(mid + half),
		BidVolume:  g.size(),
		AskVolume:  g.size(),
		Last:       mid,
		LastVolume: g.size(),
	}

	out := []schema.Event{tick}
	if g.cfg.SignalEvery > 0 && g.counts[i]%g.cfg.SignalEvery == 0 {
		out = append(out, g.signal(ts, i))
	}
	return out
}

// Generate returns n ticks and the signals interleaved with them.
func (g *Generator) Generate(n int) []schema.Event {
	out := make([]schema.Event, 0, n)
	for range n {
		out = append(out, g.Next()...)
	}
	return out
}

func (g *Generator) walk(price float64) float64 {
	next := g.round(price * (1 + g.cfg.Volatility*g.rng.NormFloat64()))
	if floor := g.cfg.Spread + g.cfg.TickSize; next < floor {
		return floor
	}
	return next
}

func (g *Generator) size() float64 {
	return g.round(g.cfg.BaseSize * (0.5 + g.rng.Float64()))
}

func (g *Generator) round(v float64) float64 {
	return math.Round(v/g.cfg.TickSize) * g.cfg.TickSize
}

// signal follows the last move of symbol i.
func (g *Generator) signal(ts schema.Timestamp, i int) schema.Signal {
	move := (g.prices[i] - g.prev[i]) / g.prev[i]
	side := schema.SideBuy
	if move < 0 {
		side = schema.SideSell
	}
	strength := math.Max(-1, math.Min(1, move/(g.cfg.Volatility*3)))
	return schema.Signal{
		Timestamp:  ts,
		Symbol:     g.cfg.Symbols[i],
		Side:       side,
		Strength:   strength,
		StrategyID: g.cfg.StrategyID,
	}
}
