package recorder

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"

	"github.com/JP-Fernando/trading-tool/internal/schema"
)

const (
	recordVersion      uint16 = 1
	recordHeaderSize          = 32
	recordChecksumSize        = 4
)

var (
	recordMagic = [4]byte{'B', 'T', 'L', '1'}
	crcTable    = crc32.MakeTable(crc32.Castagnoli)
)

var (
	ErrInvalidMagic            = errors.New("wal invalid magic")
	ErrUnsupportedRecordVer    = errors.New("wal unsupported record version")
	ErrInvalidRecordHeaderSize = errors.New("wal invalid header size")
)

// Header describes one recorded event.
type Header struct {
	Kind      schema.Kind
	Version   uint16
	Seq       uint64
	Timestamp schema.Timestamp
}

func encodeHeader(dst []byte, header Header, payloadLen int) {
	_ = dst[recordHeaderSize-1]
	copy(dst[0:4], recordMagic[:])
	binary.LittleEndian.PutUint16(dst[4:6], recordVersion)
	binary.LittleEndian.PutUint16(dst[6:8], uint16(recordHeaderSize))
	binary.LittleEndian.PutUint16(dst[8:10], uint16(header.Kind))
	binary.LittleEndian.PutUint16(dst[10:12], header.Version)
	binary.LittleEndian.PutUint32(dst[12:16], uint32(payloadLen))
	binary.LittleEndian.PutUint64(dst[16:24], header.Seq)
	binary.LittleEndian.PutUint64(dst[24:32], uint64(header.Timestamp))
}

func checksum(header []byte, payload []byte) uint32 {
	crc := crc32.Update(0, crcTable, header)
	return crc32.Update(crc, crcTable, payload)
}

func decodeRecordHeader(src []byte) (Header, uint32, error) {
	if len(src) < recordHeaderSize {
		return Header{}, 0, ErrInvalidRecordHeaderSize
	}
	if !bytes.Equal(src[0:4], recordMagic[:]) {
		return Header{}, 0, ErrInvalidMagic
	}
	if ver := binary.LittleEndian.Uint16(src[4:6]); ver != recordVersion {
		return Header{}, 0, ErrUnsupportedRecordVer
	}
	if headerSize := binary.LittleEndian.Uint16(src[6:8]); headerSize != recordHeaderSize {
		return Header{}, 0, ErrInvalidRecordHeaderSize
	}
	payloadLen := binary.LittleEndian.Uint32(src[12:16])
	h := Header{
		Kind:      schema.Kind(binary.LittleEndian.Uint16(src[8:10])),
		Version:   binary.LittleEndian.Uint16(src[10:12]),
		Seq:       binary.LittleEndian.Uint64(src[16:24]),
		Timestamp: schema.Timestamp(int64(binary.LittleEndian.Uint64(src[24:32]))),
	}
	return h, payloadLen, nil
}
