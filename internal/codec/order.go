package codec

import "github.com/JP-Fernando/trading-tool/internal/schema"

// EncodeOrder appends an order payload to dst.
func EncodeOrder(dst []byte, o schema.Order) []byte {
	dst = appendU64(dst, o.OrderID)
	dst = appendU64(dst, uint64(o.Timestamp))
	dst = appendString(dst, o.Symbol)
	dst = appendU8(dst, uint8(o.Side))
	dst = appendF64(dst, o.Quantity)
	dst = appendF64(dst, o.LimitPrice)
	dst = appendU8(dst, uint8(o.Status))
	dst = appendString(dst, o.StrategyID)
	return dst
}

// DecodeOrder parses an order payload.
func DecodeOrder(src []byte) (schema.Order, bool) {
	d := decoder{src: src}
	o := schema.Order{
		OrderID:    d.u64(),
		Timestamp:  schema.Timestamp(d.u64()),
		Symbol:     d.str(),
		Side:       schema.Side(d.u8()),
		Quantity:   d.f64(),
		LimitPrice: d.f64(),
		Status:     schema.OrderStatus(d.u8()),
		StrategyID: d.str(),
	}
	if !d.ok() {
		return schema.Order{}, false
	}
	return o, true
}
