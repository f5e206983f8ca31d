package engine

import (
	"github.com/JP-Fernando/trading-tool/internal/obs"
	"github.com/JP-Fernando/trading-tool/internal/schema"
)

// Mode selects how the loop terminates.
type Mode uint8

const (
	_mode_beg Mode = iota
	// ModeDrain exits once the queue is observed empty. An event pushed after
	// that observation is not picked up by the finished run.
	ModeDrain
	// ModeService blocks for new events and exits only on Stop, or once the
	// input is closed and the queue is drained.
	ModeService
	_mode_end
)

func (m Mode) IsAvailable() bool {
	return m > _mode_beg && m < _mode_end
}

func (m Mode) String() string {
	switch m {
	case ModeDrain:
		return "drain"
	case ModeService:
		return "service"
	default:
		return "unknown"
	}
}

// ParseMode maps a config string to a Mode. Empty selects drain.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "", "drain":
		return ModeDrain, true
	case "service":
		return ModeService, true
	default:
		return _mode_beg, false
	}
}

// FillHandler receives every fill the loop dispatches, in timeline order.
type FillHandler func(schema.Fill)

// Observer receives every event the loop dispatches, after handling.
type Observer func(schema.Event)

type Option func(*Engine)

// WithLogger sets the logger. Panics raised by the logger are swallowed.
func WithLogger(l obs.Logger) Option {
	return func(e *Engine) {
		e.log = obs.Safe(l)
	}
}

func WithMetrics(m *obs.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithMode selects the termination mode. Unknown modes are ignored.
func WithMode(m Mode) Option {
	return func(e *Engine) {
		if m.IsAvailable() {
			e.mode = m
		}
	}
}

func WithFillHandler(h FillHandler) Option {
	return func(e *Engine) {
		if h != nil {
			e.fillHandlers = append(e.fillHandlers, h)
		}
	}
}

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}
