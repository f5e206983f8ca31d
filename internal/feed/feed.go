package feed

import (
	"context"

	"github.com/JP-Fernando/trading-tool/internal/recorder"
	"github.com/JP-Fernando/trading-tool/internal/schema"
	"github.com/JP-Fernando/trading-tool/pkg/exception"
	"golang.org/x/time/rate"
)

// Pusher accepts events onto a timeline. Engine and bus.Queue both satisfy it.
type Pusher interface {
	Push(schema.Event)
}

// Option tunes a feed.
type Option func(*options)

type options struct {
	limiter *rate.Limiter
	kinds   map[schema.Kind]bool
}

// WithRate paces pushes to eventsPerSec with the given burst. Non-positive
// rates disable pacing.
func WithRate(eventsPerSec float64, burst int) Option {
	return func(o *options) {
		if eventsPerSec <= 0 {
			o.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(eventsPerSec), burst)
	}
}

// WithKinds restricts which event kinds are forwarded. By default only
// ticks and signals are, since orders and fills are regenerated by the
// engine.
func WithKinds(kinds ...schema.Kind) Option {
	return func(o *options) {
		o.kinds = make(map[schema.Kind]bool, len(kinds))
		for _, k := range kinds {
			o.kinds[k] = true
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		kinds: map[schema.Kind]bool{
			schema.KindTick:   true,
			schema.KindSignal: true,
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) forward(ctx context.Context, dst Pusher, ev schema.Event) (bool, error) {
	if !o.kinds[ev.Kind()] {
		return false, nil
	}
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return false, err
		}
	}
	dst.Push(ev)
	return true, nil
}

// Replay decodes every record of a WAL playback and pushes the selected
// kinds onto dst. It returns the number of events pushed.
func Replay(ctx context.Context, pb *recorder.Playback, dst Pusher, opts ...Option) (int, error) {
	if pb == nil || dst == nil {
		return 0, exception.ErrNilInstance
	}
	o := newOptions(opts)
	pushed := 0
	err := pb.RunEvents(ctx, func(_ recorder.Header, ev schema.Event) error {
		ok, err := o.forward(ctx, dst, ev)
		if ok {
			pushed++
		}
		return err
	})
	return pushed, err
}

// Slice pushes an in-memory timeline onto dst.
func Slice(ctx context.Context, events []schema.Event, dst Pusher, opts ...Option) (int, error) {
	if dst == nil {
		return 0, exception.ErrNilInstance
	}
	o := newOptions(opts)
	pushed := 0
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return pushed, err
		}
		if ev == nil {
			continue
		}
		ok, err := o.forward(ctx, dst, ev)
		if err != nil {
			return pushed, err
		}
		if ok {
			pushed++
		}
	}
	return pushed, nil
}
