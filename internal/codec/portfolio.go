package codec

import "github.com/JP-Fernando/trading-tool/internal/schema"

func EncodePositionUpdate(dst []byte, p schema.PositionUpdate) []byte {
	dst = appendU64(dst, uint64(p.Timestamp))
	dst = appendString(dst, p.Symbol)
	dst = appendF64(dst, p.Position)
	dst = appendF64(dst, p.AvgEntryPrice)
	dst = appendF64(dst, p.UnrealizedPnL)
	dst = appendF64(dst, p.RealizedPnL)
	return dst
}

func DecodePositionUpdate(src []byte) (schema.PositionUpdate, bool) {
	d := decoder{src: src}
	p := schema.PositionUpdate{
		Timestamp:     schema.Timestamp(d.u64()),
		Symbol:        d.str(),
		Position:      d.f64(),
		AvgEntryPrice: d.f64(),
		UnrealizedPnL: d.f64(),
		RealizedPnL:   d.f64(),
	}
	if !d.ok() {
		return schema.PositionUpdate{}, false
	}
	return p, true
}

func EncodePnLUpdate(dst []byte, p schema.PnLUpdate) []byte {
	dst = appendU64(dst, uint64(p.Timestamp))
	dst = appendF64(dst, p.TotalPnL)
	dst = appendF64(dst, p.RealizedPnL)
	dst = appendF64(dst, p.UnrealizedPnL)
	dst = appendF64(dst, p.CommissionPaid)
	dst = appendU64(dst, p.TotalTrades)
	dst = appendU64(dst, p.WinningTrades)
	return dst
}

func DecodePnLUpdate(src []byte) (schema.PnLUpdate, bool) {
	d := decoder{src: src}
	p := schema.PnLUpdate{
		Timestamp:      schema.Timestamp(d.u64()),
		TotalPnL:       d.f64(),
		RealizedPnL:    d.f64(),
		UnrealizedPnL:  d.f64(),
		CommissionPaid: d.f64(),
		TotalTrades:    d.u64(),
		WinningTrades:  d.u64(),
	}
	if !d.ok() {
		return schema.PnLUpdate{}, false
	}
	return p, true
}
