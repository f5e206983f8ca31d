package bus

import (
	"math/rand"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JP-Fernando/trading-tool/internal/schema"
)

func tickAt(ts int64, sym string) schema.Tick {
	return schema.Tick{Timestamp: schema.Timestamp(ts), Symbol: sym, Bid: 1, Ask: 2}
}

func TestQueueChronologicalOrder(t *testing.T) {
	q := NewQueue()
	q.Push(tickAt(300, "BTC"))
	q.Push(tickAt(100, "BTC"))
	q.Push(tickAt(200, "BTC"))
	require.Equal(t, 3, q.Size())

	var got []schema.Timestamp
	for i := 0; i < 3; i++ {
		e, ok := q.Pop()
		require.True(t, ok)
		got = append(got, e.Time())
	}
	assert.Equal(t, []schema.Timestamp{100, 200, 300}, got)
	assert.True(t, q.Empty())
}

func TestQueueRandomPushesPopNonDecreasing(t *testing.T) {
	q := NewQueue()
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		q.Push(tickAt(rng.Int63n(50), "X"))
	}

	prev := schema.Timestamp(-1)
	for !q.Empty() {
		e, ok := q.TryPop()
		require.True(t, ok)
		require.GreaterOrEqual(t, e.Time(), prev)
		prev = e.Time()
	}
}

func TestQueueEqualTimestampsPopInInsertionOrder(t *testing.T) {
	q := NewQueue()
	q.Push(schema.Order{OrderID: 1, Timestamp: 10})
	q.Push(schema.Tick{Timestamp: 10, Symbol: "A"})
	q.Push(schema.Order{OrderID: 2, Timestamp: 10})
	q.Push(schema.Tick{Timestamp: 5, Symbol: "B"})

	var kinds []string
	for !q.Empty() {
		e, _ := q.Pop()
		switch v := e.(type) {
		case schema.Order:
			kinds = append(kinds, "order", strconv.FormatUint(v.OrderID, 10))
		case schema.Tick:
			kinds = append(kinds, "tick", v.Symbol)
		}
	}
	assert.Equal(t, []string{"tick", "B", "order", "1", "tick", "A", "order", "2"}, kinds)
}

func TestQueueTryPopEmpty(t *testing.T) {
	q := NewQueue()
	e, ok := q.TryPop()
	assert.False(t, ok)
	assert.Nil(t, e)
}

func TestQueueIgnoresNilEvent(t *testing.T) {
	q := NewQueue()
	q.Push(nil)
	assert.True(t, q.Empty())
}

func TestQueuePopAfterStopReturnsPendingThenSentinel(t *testing.T) {
	q := NewQueue()
	q.Push(tickAt(1, "A"))
	q.Stop()
	q.Stop()
	assert.True(t, q.Stopped())

	e, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, schema.Timestamp(1), e.Time())

	for i := 0; i < 3; i++ {
		e, ok = q.Pop()
		assert.False(t, ok)
		assert.Nil(t, e)
	}
}

func TestQueuePushAfterStopIsStillPoppable(t *testing.T) {
	q := NewQueue()
	q.Stop()
	q.Push(tickAt(4, "A"))
	e, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, schema.Timestamp(4), e.Time())
}

func TestQueueStopWakesAllBlockedConsumers(t *testing.T) {
	q := NewQueue()
	const consumers = 8

	var wg sync.WaitGroup
	results := make(chan bool, consumers)
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := q.Pop()
			results <- ok
		}()
	}

	time.Sleep(20 * time.Millisecond)
	q.Stop()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("blocked Pop did not return after Stop")
	}
	close(results)
	for ok := range results {
		assert.False(t, ok)
	}
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := NewQueue()
	got := make(chan schema.Event, 1)
	go func() {
		e, _ := q.Pop()
		got <- e
	}()

	select {
	case <-got:
		t.Fatal("Pop returned before any push")
	case <-time.After(20 * time.Millisecond):
	}

	q.Push(tickAt(9, "Z"))
	select {
	case e := <-got:
		assert.Equal(t, schema.Timestamp(9), e.Time())
	case <-time.After(2 * time.Second):
		t.Fatal("Pop did not wake after Push")
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := NewQueue()
	const producers, perProducer = 4, 250

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(tickAt(int64(i*producers+p), "X"))
			}
		}(p)
	}
	wg.Wait()

	require.Equal(t, producers*perProducer, q.Size())
	prev := schema.Timestamp(-1)
	for i := 0; i < producers*perProducer; i++ {
		e, ok := q.Pop()
		require.True(t, ok)
		require.Greater(t, e.Time(), prev)
		prev = e.Time()
	}
}
