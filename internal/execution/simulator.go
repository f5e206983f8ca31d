package execution

import (
	"sync"

	"github.com/JP-Fernando/trading-tool/internal/schema"
)

const (
	DefaultFeeRate = 0.0005 // 5 bps
	DefaultVenue   = "SIMULATED"
)

// Publisher receives fills produced by the simulator.
type Publisher interface {
	Push(schema.Event)
}

// Config holds the transaction cost parameters.
type Config struct {
	FeeRate float64 `json:"feeRate" yaml:"fee_rate"`
	Venue   string  `json:"venue" yaml:"venue"`
}

// DefaultConfig returns the 5 bps, single-venue setup.
func DefaultConfig() Config {
	return Config{FeeRate: DefaultFeeRate, Venue: DefaultVenue}
}

// Simulator fills orders against the latest tick seen for their symbol.
//
// The tick cache is owned by the goroutine that calls OnTick and OnOrder and
// is not locked. The fill history is locked so it can be read while a run is
// in progress.
type Simulator struct {
	pub      Publisher
	slippage SlippageFunc
	cfg      Config

	lastTicks map[string]schema.Tick

	mu    sync.Mutex
	fills []schema.Fill
}

// NewSimulator creates a simulator publishing fills to pub. A nil slippage
// policy executes at the mid.
func NewSimulator(pub Publisher, slippage SlippageFunc, cfg Config) *Simulator {
	if slippage == nil {
		slippage = MidPrice
	}
	if cfg.Venue == "" {
		cfg.Venue = DefaultVenue
	}
	return &Simulator{
		pub:       pub,
		slippage:  slippage,
		cfg:       cfg,
		lastTicks: make(map[string]schema.Tick),
	}
}

// Config returns the active cost parameters.
func (s *Simulator) Config() Config {
	return s.cfg
}

// OnTick replaces the cached snapshot for the tick's symbol. Stale ticks
// are not rejected.
func (s *Simulator) OnTick(tick schema.Tick) {
	s.lastTicks[tick.Symbol] = tick
}

// LastTick returns the cached snapshot for symbol.
func (s *Simulator) LastTick(symbol string) (schema.Tick, bool) {
	tick, ok := s.lastTicks[symbol]
	return tick, ok
}

// OnOrder fully fills order at the cached snapshot for its symbol, records
// the fill and publishes it. Without a snapshot the order is dropped and
// false is returned.
func (s *Simulator) OnOrder(order schema.Order) (schema.Fill, bool) {
	tick, ok := s.lastTicks[order.Symbol]
	if !ok {
		return schema.Fill{}, false
	}

	mid := tick.Mid()
	price := s.executionPrice(order, tick, mid)
	qty := order.Quantity

	fill := schema.Fill{
		OrderID:        order.OrderID,
		Timestamp:      tick.Timestamp,
		Symbol:         order.Symbol,
		Side:           order.Side,
		FilledQuantity: qty,
		FillPrice:      price,
		Commission:     s.commission(qty, price),
		Slippage:       price - mid,
		Venue:          s.cfg.Venue,
	}

	s.RecordFill(fill)
	if s.pub != nil {
		s.pub.Push(fill)
	}
	return fill, true
}

// RecordFill appends a fill produced elsewhere to the history without
// publishing it.
func (s *Simulator) RecordFill(fill schema.Fill) {
	s.mu.Lock()
	s.fills = append(s.fills, fill)
	s.mu.Unlock()
}

// Fills returns a copy of the fill history in execution order.
func (s *Simulator) Fills() []schema.Fill {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.Fill, len(s.fills))
	copy(out, s.fills)
	return out
}

// FillCount returns the number of recorded fills.
func (s *Simulator) FillCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fills)
}

func (s *Simulator) executionPrice(order schema.Order, tick schema.Tick, mid float64) float64 {
	slipped := s.slippage(SlippageInput{
		MidPrice:           mid,
		OrderQty:           order.Quantity,
		AvailableLiquidity: tick.Liquidity(),
		Side:               order.Side,
	})

	if order.IsMarket() {
		return slipped
	}
	switch order.Side {
	case schema.SideBuy:
		if slipped > order.LimitPrice {
			return order.LimitPrice
		}
	case schema.SideSell:
		if slipped < order.LimitPrice {
			return order.LimitPrice
		}
	}
	return slipped
}

func (s *Simulator) commission(qty, price float64) float64 {
	return qty * price * s.cfg.FeeRate
}
