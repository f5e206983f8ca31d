package codec

import (
	"encoding/binary"
	"math"
)

func appendU8(dst []byte, v uint8) []byte {
	return append(dst, v)
}

func appendU64(dst []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, v)
}

func appendF64(dst []byte, v float64) []byte {
	return binary.LittleEndian.AppendUint64(dst, math.Float64bits(v))
}

// appendString writes a uint32 length followed by the raw bytes.
func appendString(dst []byte, s string) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(s)))
	return append(dst, s...)
}

// decoder reads fields in order and latches the first short read.
type decoder struct {
	src   []byte
	off   int
	short bool
}

func (d *decoder) take(n int) []byte {
	if d.short || n < 0 || len(d.src)-d.off < n {
		d.short = true
		return nil
	}
	b := d.src[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) u8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) u64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *decoder) f64() float64 {
	return math.Float64frombits(d.u64())
}

func (d *decoder) str() string {
	b := d.take(4)
	if b == nil {
		return ""
	}
	n := binary.LittleEndian.Uint32(b)
	if uint64(n) > uint64(len(d.src)-d.off) {
		d.short = true
		return ""
	}
	return string(d.take(int(n)))
}

func (d *decoder) ok() bool {
	return !d.short
}
