package codec

import "github.com/JP-Fernando/trading-tool/internal/schema"

// EncodeFill appends a fill payload to dst.
func EncodeFill(dst []byte, f schema.Fill) []byte {
	dst = appendU64(dst, f.OrderID)
	dst = appendU64(dst, uint64(f.Timestamp))
	dst = appendString(dst, f.Symbol)
	dst = appendU8(dst, uint8(f.Side))
	dst = appendF64(dst, f.FilledQuantity)
	dst = appendF64(dst, f.FillPrice)
	dst = appendF64(dst, f.Commission)
	dst = appendF64(dst, f.Slippage)
	dst = appendString(dst, f.Venue)
	return dst
}

// DecodeFill parses a fill payload.
func DecodeFill(src []byte) (schema.Fill, bool) {
	d := decoder{src: src}
	f := schema.Fill{
		OrderID:        d.u64(),
		Timestamp:      schema.Timestamp(d.u64()),
		Symbol:         d.str(),
		Side:           schema.Side(d.u8()),
		FilledQuantity: d.f64(),
		FillPrice:      d.f64(),
		Commission:     d.f64(),
		Slippage:       d.f64(),
		Venue:          d.str(),
	}
	if !d.ok() {
		return schema.Fill{}, false
	}
	return f, true
}
