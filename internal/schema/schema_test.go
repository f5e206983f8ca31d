package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderIsMarket(t *testing.T) {
	assert.True(t, Order{LimitPrice: 0}.IsMarket())
	assert.False(t, Order{LimitPrice: 99.5}.IsMarket())
	assert.False(t, Order{LimitPrice: -1}.IsMarket())
}

func TestTickMidAndLiquidity(t *testing.T) {
	tick := Tick{Bid: 99, Ask: 101, BidVolume: 3, AskVolume: 4}
	assert.Equal(t, 100.0, tick.Mid())
	assert.Equal(t, 7.0, tick.Liquidity())
}

func TestEventKinds(t *testing.T) {
	events := []Event{Tick{}, Signal{}, Order{}, Fill{}, PositionUpdate{}, PnLUpdate{}}
	want := []Kind{KindTick, KindSignal, KindOrder, KindFill, KindPositionUpdate, KindPnLUpdate}
	for i, e := range events {
		assert.Equal(t, want[i], e.Kind())
		assert.True(t, e.Kind().IsAvailable())
	}
	assert.False(t, Kind(0).IsAvailable())
	assert.False(t, _kind_end.IsAvailable())
	assert.Equal(t, "Unknown", Kind(42).String())
}

func TestLessOrdersByTimestampThenSequence(t *testing.T) {
	early := Tick{Timestamp: 100}
	late := Order{Timestamp: 200}
	assert.True(t, Less(early, 9, late, 1))
	assert.False(t, Less(late, 1, early, 9))

	same := Signal{Timestamp: 100}
	assert.True(t, Less(early, 1, same, 2))
	assert.False(t, Less(same, 2, early, 1))
}

func TestTimeOfNil(t *testing.T) {
	assert.Equal(t, Timestamp(0), TimeOf(nil))
	assert.Equal(t, Timestamp(7), TimeOf(Fill{Timestamp: 7}))
}

func TestTimestampRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 123, time.UTC)
	assert.True(t, now.Equal(FromTime(now).Time()))
}

func TestWinRate(t *testing.T) {
	assert.Equal(t, 0.0, PnLUpdate{}.WinRate())
	assert.Equal(t, 0.25, PnLUpdate{TotalTrades: 4, WinningTrades: 1}.WinRate())
}

func TestSideSign(t *testing.T) {
	assert.Equal(t, 1.0, SideBuy.Sign())
	assert.Equal(t, -1.0, SideSell.Sign())
	assert.Equal(t, 0.0, SideUnknown.Sign())
	assert.Equal(t, "BUY", SideBuy.String())
}
