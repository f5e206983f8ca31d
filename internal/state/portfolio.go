package state

import (
	"math"
	"slices"
	"sync"

	"github.com/JP-Fernando/trading-tool/internal/schema"
)

const epsilon = 1e-9

type position struct {
	qty      float64 // signed, short is negative
	avgEntry float64
	realized float64
}

// Portfolio nets fills into one position per symbol and tracks realized and
// unrealized PnL against the latest mark.
type Portfolio struct {
	mu         sync.Mutex
	positions  map[string]*position
	symbols    []string // sorted keys of positions
	marks      map[string]float64
	realized   float64
	commission float64
	trades     uint64
	wins       uint64
}

// NewPortfolio creates an empty portfolio.
func NewPortfolio() *Portfolio {
	return &Portfolio{
		positions: make(map[string]*position),
		marks:     make(map[string]float64),
	}
}

// ApplyFill updates the symbol position and returns the resulting
// position and account updates, both stamped with the fill time.
//
// Reducing or flipping a position closes a round trip: it counts as one
// trade, and as a win when the closed part realized a profit. A fill carrying
// NaN or infinite numbers leaves the state untouched.
func (p *Portfolio) ApplyFill(fill schema.Fill) (schema.PositionUpdate, schema.PnLUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !finite(fill.FilledQuantity, fill.FillPrice, fill.Commission) {
		return p.positionUpdateLocked(fill.Timestamp, fill.Symbol), p.pnlLocked(fill.Timestamp)
	}

	pos := p.positions[fill.Symbol]
	if pos == nil {
		pos = &position{}
		p.positions[fill.Symbol] = pos
		p.addSymbolLocked(fill.Symbol)
	}
	if _, ok := p.marks[fill.Symbol]; !ok {
		p.marks[fill.Symbol] = fill.FillPrice
	}

	signed := fill.Side.Sign() * fill.FilledQuantity
	price := fill.FillPrice

	switch {
	case signed == 0:
	case math.Abs(pos.qty) < epsilon || sameSign(pos.qty, signed):
		total := math.Abs(pos.qty) + math.Abs(signed)
		if total > epsilon {
			pos.avgEntry = (math.Abs(pos.qty)*pos.avgEntry + math.Abs(signed)*price) / total
		}
		pos.qty += signed
	default:
		closing := math.Min(math.Abs(signed), math.Abs(pos.qty))
		pnl := (price - pos.avgEntry) * closing * sign(pos.qty)
		pos.realized += pnl
		p.realized += pnl
		p.trades++
		if pnl > 0 {
			p.wins++
		}

		pos.qty += signed
		switch {
		case math.Abs(pos.qty) < epsilon:
			pos.qty = 0
			pos.avgEntry = 0
		case math.Abs(signed) > closing:
			pos.avgEntry = price
		}
	}

	p.commission += fill.Commission

	return p.positionUpdateLocked(fill.Timestamp, fill.Symbol), p.pnlLocked(fill.Timestamp)
}

// Mark revalues the tick's symbol at its mid.
func (p *Portfolio) Mark(tick schema.Tick) {
	mid := tick.Mid()
	if !finite(mid) {
		return
	}
	p.mu.Lock()
	p.marks[tick.Symbol] = mid
	p.mu.Unlock()
}

// Position returns the current state of one symbol.
func (p *Portfolio) Position(ts schema.Timestamp, symbol string) schema.PositionUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionUpdateLocked(ts, symbol)
}

// PnL returns the account totals.
func (p *Portfolio) PnL(ts schema.Timestamp) schema.PnLUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pnlLocked(ts)
}

// Symbols returns the number of symbols ever traded.
func (p *Portfolio) Symbols() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.positions)
}

func (p *Portfolio) positionUpdateLocked(ts schema.Timestamp, symbol string) schema.PositionUpdate {
	pos := p.positions[symbol]
	if pos == nil {
		return schema.PositionUpdate{Timestamp: ts, Symbol: symbol}
	}
	return schema.PositionUpdate{
		Timestamp:     ts,
		Symbol:        symbol,
		Position:      pos.qty,
		AvgEntryPrice: pos.avgEntry,
		UnrealizedPnL: p.unrealizedLocked(symbol, pos),
		RealizedPnL:   pos.realized,
	}
}

func (p *Portfolio) pnlLocked(ts schema.Timestamp) schema.PnLUpdate {
	var unrealized float64
	for _, symbol := range p.symbols {
		unrealized += p.unrealizedLocked(symbol, p.positions[symbol])
	}
	return schema.PnLUpdate{
		Timestamp:      ts,
		TotalPnL:       p.realized + unrealized - p.commission,
		RealizedPnL:    p.realized,
		UnrealizedPnL:  unrealized,
		CommissionPaid: p.commission,
		TotalTrades:    p.trades,
		WinningTrades:  p.wins,
	}
}

func (p *Portfolio) addSymbolLocked(symbol string) {
	if i, found := slices.BinarySearch(p.symbols, symbol); !found {
		p.symbols = slices.Insert(p.symbols, i, symbol)
	}
}

func (p *Portfolio) unrealizedLocked(symbol string, pos *position) float64 {
	if pos.qty == 0 {
		return 0
	}
	mark, ok := p.marks[symbol]
	if !ok {
		return 0
	}
	return (mark - pos.avgEntry) * pos.qty
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func sameSign(a, b float64) bool {
	return (a > 0) == (b > 0)
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
