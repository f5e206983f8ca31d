package schema

// Side describes order direction.
type Side uint8

const (
	SideUnknown Side = iota
	SideBuy
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Sign is +1 for buys, -1 for sells and 0 otherwise.
func (s Side) Sign() float64 {
	switch s {
	case SideBuy:
		return 1
	case SideSell:
		return -1
	default:
		return 0
	}
}

// OrderStatus tracks where an order is in its lifecycle.
type OrderStatus uint8

const (
	OrderStatusPending OrderStatus = iota
	OrderStatusSubmitted
	OrderStatusFilled
	OrderStatusPartiallyFilled
	OrderStatusCancelled
	OrderStatusRejected
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusPending:
		return "PENDING"
	case OrderStatusSubmitted:
		return "SUBMITTED"
	case OrderStatusFilled:
		return "FILLED"
	case OrderStatusPartiallyFilled:
		return "PARTIALLY_FILLED"
	case OrderStatusCancelled:
		return "CANCELLED"
	case OrderStatusRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// Tick is the latest best bid/ask and last trade for one symbol.
type Tick struct {
	Timestamp  Timestamp
	Symbol     string
	Bid        float64
	Ask        float64
	BidVolume  float64
	AskVolume  float64
	Last       float64
	LastVolume float64
}

func (Tick) Kind() Kind        { return KindTick }
func (t Tick) Time() Timestamp { return t.Timestamp }
func (Tick) event()            {}

// Mid is the average of best bid and best ask.
func (t Tick) Mid() float64 {
	return (t.Bid + t.Ask) * 0.5
}

// Liquidity is the volume resting on both sides of the top of book.
func (t Tick) Liquidity() float64 {
	return t.BidVolume + t.AskVolume
}

// Signal is a strategy's directional intent, not yet sized or priced.
type Signal struct {
	Timestamp  Timestamp
	Symbol     string
	Side       Side
	Strength   float64 // [-1.0, 1.0]
	StrategyID string
}

func (Signal) Kind() Kind        { return KindSignal }
func (s Signal) Time() Timestamp { return s.Timestamp }
func (Signal) event()            {}

// Order is a sized instruction to trade. LimitPrice 0 means market.
type Order struct {
	OrderID    uint64
	Timestamp  Timestamp
	Symbol     string
	Side       Side
	Quantity   float64
	LimitPrice float64
	Status     OrderStatus
	StrategyID string
}

func (Order) Kind() Kind        { return KindOrder }
func (o Order) Time() Timestamp { return o.Timestamp }
func (Order) event()            {}

// IsMarket reports whether the order carries no limit. A limit of exactly
// zero is treated as market.
func (o Order) IsMarket() bool {
	return o.LimitPrice == 0
}

// Fill is the simulated execution of an Order.
type Fill struct {
	OrderID        uint64
	Timestamp      Timestamp
	Symbol         string
	Side           Side
	FilledQuantity float64
	FillPrice      float64
	Commission     float64
	Slippage       float64 // fill price minus mid
	Venue          string
}

func (Fill) Kind() Kind        { return KindFill }
func (f Fill) Time() Timestamp { return f.Timestamp }
func (Fill) event()            {}

// Notional is quantity times price.
func (f Fill) Notional() float64 {
	return f.FilledQuantity * f.FillPrice
}

// PositionUpdate is produced by portfolio logic after applying a Fill.
type PositionUpdate struct {
	Timestamp     Timestamp
	Symbol        string
	Position      float64 // positive long, negative short
	AvgEntryPrice float64
	UnrealizedPnL float64
	RealizedPnL   float64
}

func (PositionUpdate) Kind() Kind        { return KindPositionUpdate }
func (p PositionUpdate) Time() Timestamp { return p.Timestamp }
func (PositionUpdate) event()            {}

// PnLUpdate is an account-level PnL summary produced by portfolio logic.
type PnLUpdate struct {
	Timestamp      Timestamp
	TotalPnL       float64
	RealizedPnL    float64
	UnrealizedPnL  float64
	CommissionPaid float64
	TotalTrades    uint64
	WinningTrades  uint64
}

func (PnLUpdate) Kind() Kind        { return KindPnLUpdate }
func (p PnLUpdate) Time() Timestamp { return p.Timestamp }
func (PnLUpdate) event()            {}

// WinRate is winning over total trades, zero when nothing traded.
func (p PnLUpdate) WinRate() float64 {
	if p.TotalTrades == 0 {
		return 0
	}
	return float64(p.WinningTrades) / float64(p.TotalTrades)
}
