package recorder

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"

	"github.com/JP-Fernando/trading-tool/internal/codec"
	"github.com/JP-Fernando/trading-tool/internal/schema"
	errs "github.com/yanun0323/errors"
)

var ErrChecksumMismatch = errors.New("wal checksum mismatch")

// ReaderOptions controls record decoding.
type ReaderOptions struct {
	DisableChecksum bool
	MaxPayloadSize  int
}

// Reader walks one segment record by record. Next yields raw payloads,
// NextEvent decodes them into timeline events.
type Reader struct {
	r           *bufio.Reader
	opts        ReaderOptions
	headerBuf   []byte
	payload     []byte
	checksumBuf [recordChecksumSize]byte
	offset      int64
	records     uint64
}

// NewReader wraps an io.Reader with WAL decoding.
func NewReader(r io.Reader, opts ReaderOptions) *Reader {
	return &Reader{
		r:         bufio.NewReader(r),
		opts:      opts,
		headerBuf: make([]byte, recordHeaderSize),
	}
}

// Offset is the byte position of the record the next call reads. After a
// failed read it still points at the start of the bad record.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Records counts the records read successfully.
func (r *Reader) Records() uint64 {
	return r.records
}

// Next returns the next record header and payload, or io.EOF at a clean end
// of segment. The payload is only valid until the next call to Next.
func (r *Reader) Next() (Header, []byte, error) {
	n, err := io.ReadFull(r.r, r.headerBuf)
	if err != nil {
		if err == io.EOF && n == 0 {
			return Header{}, nil, io.EOF
		}
		return Header{}, nil, err
	}

	header, payloadLen, err := decodeRecordHeader(r.headerBuf)
	if err != nil {
		return header, nil, err
	}
	if r.opts.MaxPayloadSize > 0 && payloadLen > uint32(r.opts.MaxPayloadSize) {
		return header, nil, ErrPayloadTooLarge
	}

	if cap(r.payload) < int(payloadLen) {
		r.payload = make([]byte, payloadLen)
	}
	r.payload = r.payload[:payloadLen]
	if _, err := io.ReadFull(r.r, r.payload); err != nil {
		return header, nil, err
	}
	if _, err := io.ReadFull(r.r, r.checksumBuf[:]); err != nil {
		return header, nil, err
	}
	if !r.opts.DisableChecksum && checksum(r.headerBuf, r.payload) != binary.LittleEndian.Uint32(r.checksumBuf[:]) {
		return header, nil, ErrChecksumMismatch
	}

	r.offset += int64(recordHeaderSize) + int64(payloadLen) + recordChecksumSize
	r.records++
	return header, r.payload, nil
}

// NextEvent reads the next record and decodes its payload by the header kind.
func (r *Reader) NextEvent() (Header, schema.Event, error) {
	header, payload, err := r.Next()
	if err != nil {
		return header, nil, err
	}
	ev, err := decodeRecord(header, payload)
	return header, ev, err
}

func decodeRecord(header Header, payload []byte) (schema.Event, error) {
	ev, err := codec.Decode(header.Kind, payload)
	if err != nil {
		return nil, errs.Wrap(err, "decode "+header.Kind.String()+" record").With("seq", header.Seq)
	}
	return ev, nil
}
