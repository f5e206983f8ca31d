package codec

import "github.com/JP-Fernando/trading-tool/internal/schema"

// EncodeTick appends a tick payload to dst.
func EncodeTick(dst []byte, t schema.Tick) []byte {
	dst = appendU64(dst, uint64(t.Timestamp))
	dst = appendString(dst, t.Symbol)
	dst = appendF64(dst, t.Bid)
	dst = appendF64(dst, t.Ask)
	dst = appendF64(dst, t.BidVolume)
	dst = appendF64(dst, t.AskVolume)
	dst = appendF64(dst, t.Last)
	dst = appendF64(dst, t.LastVolume)
	return dst
}

// DecodeTick parses a tick payload.
func DecodeTick(src []byte) (schema.Tick, bool) {
	d := decoder{src: src}
	t := schema.Tick{
		Timestamp:  schema.Timestamp(d.u64()),
		Symbol:     d.str(),
		Bid:        d.f64(),
		Ask:        d.f64(),
		BidVolume:  d.f64(),
		AskVolume:  d.f64(),
		Last:       d.f64(),
		LastVolume: d.f64(),
	}
	if !d.ok() {
		return schema.Tick{}, false
	}
	return t, true
}

// EncodeSignal appends a signal payload to dst.
func EncodeSignal(dst []byte, s schema.Signal) []byte {
	dst = appendU64(dst, uint64(s.Timestamp))
	dst = appendString(dst, s.Symbol)
	dst = appendU8(dst, uint8(s.Side))
	dst = appendF64(dst, s.Strength)
	dst = appendString(dst, s.StrategyID)
	return dst
}

// DecodeSignal parses a signal payload.
func DecodeSignal(src []byte) (schema.Signal, bool) {
	d := decoder{src: src}
	s := schema.Signal{
		Timestamp:  schema.Timestamp(d.u64()),
		Symbol:     d.str(),
		Side:       schema.Side(d.u8()),
		Strength:   d.f64(),
		StrategyID: d.str(),
	}
	if !d.ok() {
		return schema.Signal{}, false
	}
	return s, true
}
