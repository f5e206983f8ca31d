package codec

import (
	"github.com/JP-Fernando/trading-tool/internal/schema"
	"github.com/JP-Fernando/trading-tool/pkg/exception"
)

// Encode appends the payload of e to dst. The kind travels separately, in
// the record header.
func Encode(dst []byte, e schema.Event) ([]byte, error) {
	switch v := e.(type) {
	case schema.Tick:
		return EncodeTick(dst, v), nil
	case schema.Signal:
		return EncodeSignal(dst, v), nil
	case schema.Order:
		return EncodeOrder(dst, v), nil
	case schema.Fill:
		return EncodeFill(dst, v), nil
	case schema.PositionUpdate:
		return EncodePositionUpdate(dst, v), nil
	case schema.PnLUpdate:
		return EncodePnLUpdate(dst, v), nil
	default:
		return dst, exception.ErrTypeUnsupported
	}
}

// Decode parses a payload of the given kind.
func Decode(kind schema.Kind, src []byte) (schema.Event, error) {
	var (
		e  schema.Event
		ok bool
	)
	switch kind {
	case schema.KindTick:
		e, ok = decodeAs(DecodeTick, src)
	case schema.KindSignal:
		e, ok = decodeAs(DecodeSignal, src)
	case schema.KindOrder:
		e, ok = decodeAs(DecodeOrder, src)
	case schema.KindFill:
		e, ok = decodeAs(DecodeFill, src)
	case schema.KindPositionUpdate:
		e, ok = decodeAs(DecodePositionUpdate, src)
	case schema.KindPnLUpdate:
		e, ok = decodeAs(DecodePnLUpdate, src)
	default:
		return nil, exception.ErrCodecUnknownKind
	}
	if !ok {
		return nil, exception.ErrCodecShortPayload
	}
	return e, nil
}

func decodeAs[T schema.Event](fn func([]byte) (T, bool), src []byte) (schema.Event, bool) {
	v, ok := fn(src)
	if !ok {
		return nil, false
	}
	return v, true
}
