package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/JP-Fernando/trading-tool/internal/bus"
	"github.com/JP-Fernando/trading-tool/internal/execution"
	"github.com/JP-Fernando/trading-tool/internal/obs"
	"github.com/JP-Fernando/trading-tool/internal/schema"
)

const (
	synthesizedQuantity = 1.0
	synthesizedLimit    = 0.0
)

// Engine is the single consumer of the event queue.
type Engine struct {
	queue   *bus.Queue
	sim     *execution.Simulator
	log     obs.Logger
	metrics *obs.Metrics
	mode    Mode

	fillHandlers []FillHandler
	observers    []Observer

	running   atomic.Bool
	stopped   atomic.Bool
	processed atomic.Uint64
}

// New wires the loop to the queue and the simulator. The simulator should
// publish its fills to the same queue.
func New(queue *bus.Queue, sim *execution.Simulator, opts ...Option) *Engine {
	e := &Engine{
		queue: queue,
		sim:   sim,
		log:   obs.Nop(),
		mode:  ModeDrain,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run processes events until the mode's exit condition is met. Run must not
// be called concurrently with itself. A stopped engine returns at once.
func (e *Engine) Run() {
	if e.stopped.Load() {
		return
	}
	e.running.Store(true)
	defer e.running.Store(false)
	if e.stopped.Load() {
		return
	}

	e.log.Infof("starting backtest engine loop, mode %s", e.mode)

	switch e.mode {
	case ModeService:
		e.serve()
	default:
		e.drain()
	}

	e.log.Infof("backtest finished, processed %d events", e.processed.Load())
}

// RunContext runs the loop and stops it when ctx is done.
func (e *Engine) RunContext(ctx context.Context) {
	if ctx.Err() != nil {
		e.Stop()
		return
	}
	stop := context.AfterFunc(ctx, e.Stop)
	defer stop()
	e.Run()
}

func (e *Engine) drain() {
	for !e.stopped.Load() {
		ev, ok := e.queue.TryPop()
		if !ok {
			return
		}
		e.handle(ev)
	}
}

func (e *Engine) serve() {
	for !e.stopped.Load() {
		ev, ok := e.queue.Pop()
		if !ok {
			return
		}
		if e.stopped.Load() {
			return
		}
		e.handle(ev)
	}
}

// Stop ends the loop and stops the queue, waking a blocked loop. A Stop
// issued before Run makes that Run return without processing. Safe to call
// from any goroutine, any number of times.
func (e *Engine) Stop() {
	e.stopped.Store(true)
	e.running.Store(false)
	e.queue.Stop()
}

// CloseInput stops the queue without interrupting the loop. In service mode
// the loop drains what is queued, including events it synthesizes, and then
// exits.
func (e *Engine) CloseInput() {
	e.queue.Stop()
}

// Push enqueues an event. Safe to call concurrently with Run.
func (e *Engine) Push(ev schema.Event) {
	e.queue.Push(ev)
}

// RegisterFill appends an externally produced fill to the simulator history
// without putting it on the timeline.
func (e *Engine) RegisterFill(fill schema.Fill) {
	e.sim.RecordFill(fill)
}

// Processed returns the number of events dispatched so far.
func (e *Engine) Processed() uint64 {
	return e.processed.Load()
}

func (e *Engine) Running() bool {
	return e.running.Load()
}

func (e *Engine) Mode() Mode {
	return e.mode
}

func (e *Engine) Queue() *bus.Queue {
	return e.queue
}

func (e *Engine) Simulator() *execution.Simulator {
	return e.sim
}

func (e *Engine) handle(ev schema.Event) {
	start := time.Now()
	e.dispatch(ev)
	e.processed.Add(1)
	e.metrics.ObserveEvent(ev.Kind(), time.Since(start))

	for _, o := range e.observers {
		o(ev)
	}
}

func (e *Engine) dispatch(ev schema.Event) {
	switch v := ev.(type) {
	case schema.Tick:
		e.sim.OnTick(v)
	case schema.Signal:
		e.onSignal(v)
	case schema.Order:
		e.onOrder(v)
	case schema.Fill:
		e.onFill(v)
	case schema.PositionUpdate, schema.PnLUpdate:
		// produced by the portfolio, observed only
	}
}

func (e *Engine) onSignal(sig schema.Signal) {
	e.log.Infof("signal received: %s", sig.Symbol)

	order := schema.Order{
		OrderID:    e.processed.Load(),
		Timestamp:  sig.Timestamp,
		Symbol:     sig.Symbol,
		Side:       sig.Side,
		Quantity:   synthesizedQuantity,
		LimitPrice: synthesizedLimit,
		Status:     schema.OrderStatusPending,
		StrategyID: sig.StrategyID,
	}
	e.queue.Push(order)
	e.metrics.IncOrderSynthetic()
}

func (e *Engine) onOrder(order schema.Order) {
	if _, ok := e.sim.OnOrder(order); !ok {
		e.metrics.IncOrderDropped()
		e.log.Infof("order %d dropped, no market data for %s", order.OrderID, order.Symbol)
	}
}

func (e *Engine) onFill(fill schema.Fill) {
	e.metrics.IncFill()
	e.log.Infof("[FILL] %s %s @ %f", fill.Symbol, fill.Side, fill.FillPrice)

	for _, h := range e.fillHandlers {
		h(fill)
	}
}
