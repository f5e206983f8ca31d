package schema

import "time"

// SchemaVersion is the current event schema version.
const SchemaVersion uint16 = 1

// Timestamp is nanoseconds since the Unix epoch.
type Timestamp int64

// FromTime converts a wall-clock time into a Timestamp.
func FromTime(t time.Time) Timestamp {
	return Timestamp(t.UnixNano())
}

// Time returns the timestamp as a UTC time.
func (ts Timestamp) Time() time.Time {
	return time.Unix(0, int64(ts)).UTC()
}

// Kind identifies which variant an Event holds.
type Kind uint16

const (
	_kind_beg Kind = iota
	KindTick
	KindSignal
	KindOrder
	KindFill
	KindPositionUpdate
	KindPnLUpdate
	_kind_end
)

func (k Kind) IsAvailable() bool {
	return k > _kind_beg && k < _kind_end
}

func (k Kind) String() string {
	switch k {
	case KindTick:
		return "Tick"
	case KindSignal:
		return "Signal"
	case KindOrder:
		return "Order"
	case KindFill:
		return "Fill"
	case KindPositionUpdate:
		return "PositionUpdate"
	case KindPnLUpdate:
		return "PnLUpdate"
	default:
		return "Unknown"
	}
}

// Event is the closed set of values flowing through the timeline.
// Only the variants declared in this package implement it; consumers
// switch on the concrete type.
type Event interface {
	Kind() Kind
	Time() Timestamp
	event()
}

// TimeOf returns the ordering key of an event, zero for nil.
func TimeOf(e Event) Timestamp {
	if e == nil {
		return 0
	}
	return e.Time()
}

// Less reports whether a sorts before b. Equal timestamps fall back to the
// insertion sequence so that ordering is reproducible.
func Less(a Event, seqA uint64, b Event, seqB uint64) bool {
	ta, tb := TimeOf(a), TimeOf(b)
	if ta != tb {
		return ta < tb
	}
	return seqA < seqB
}
