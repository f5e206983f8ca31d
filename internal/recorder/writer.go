package recorder

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/JP-Fernando/trading-tool/internal/codec"
	"github.com/JP-Fernando/trading-tool/internal/schema"
	errs "github.com/yanun0323/errors"
)

var (
	ErrClosed          = errors.New("wal writer closed")
	ErrPayloadTooLarge = errors.New("wal payload too large")
)

const maxPayloadLen = uint64(^uint32(0))

// Writer appends events to size- or age-rotated WAL segments. Appends are
// synchronous so the record order matches the call order.
type Writer struct {
	cfg Config

	mu          sync.Mutex
	seg         *segmentWriter
	segID       uint64
	seq         uint64
	headerBuf   []byte
	payloadBuf  []byte
	checksumBuf [recordChecksumSize]byte
	err         error
	closed      bool
}

// NewWriter creates a WAL writer and ensures the target directory exists.
// The first segment is opened on the first append.
func NewWriter(cfg Config) (*Writer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errs.Wrap(err, "create wal dir").With("dir", cfg.Dir)
	}
	return &Writer{
		cfg:       cfg,
		headerBuf: make([]byte, recordHeaderSize),
	}, nil
}

// Append encodes e and writes it under the next sequence number.
func (w *Writer) Append(e schema.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	payload, err := codec.Encode(w.payloadBuf[:0], e)
	if err != nil {
		return err
	}
	w.payloadBuf = payload

	w.seq++
	return w.appendLocked(Header{
		Kind:      e.Kind(),
		Version:   schema.SchemaVersion,
		Seq:       w.seq,
		Timestamp: e.Time(),
	}, payload)
}

// AppendRaw writes an already encoded payload. Seq is taken from header.
func (w *Writer) AppendRaw(header Header, payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if header.Version == 0 {
		header.Version = schema.SchemaVersion
	}
	if header.Seq > w.seq {
		w.seq = header.Seq
	}
	return w.appendLocked(header, payload)
}

// Seq returns the last sequence number assigned by Append.
func (w *Writer) Seq() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seq
}

// Err returns the first write error, if any. A failed writer rejects
// further appends.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Flush pushes buffered records to the current segment file.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seg == nil {
		return nil
	}
	return w.seg.buf.Flush()
}

// Close flushes, syncs and closes the open segment.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return w.err
	}
	w.closed = true
	if err := w.closeSegment(w.seg, true); err != nil && w.err == nil {
		w.err = err
	}
	w.seg = nil
	return w.err
}

func (w *Writer) appendLocked(header Header, payload []byte) error {
	if w.closed {
		return ErrClosed
	}
	if w.err != nil {
		return w.err
	}
	if err := w.writeRecord(header, payload); err != nil {
		w.err = err
		return err
	}
	return nil
}

func (w *Writer) writeRecord(header Header, payload []byte) error {
	if uint64(len(payload)) > maxPayloadLen {
		return ErrPayloadTooLarge
	}

	now := time.Now().UTC()
	recordSize := int64(recordHeaderSize + len(payload) + recordChecksumSize)
	if w.shouldRotate(now, recordSize) {
		if err := w.closeSegment(w.seg, w.cfg.SyncOnRotate); err != nil {
			return err
		}
		opened, err := w.openSegment(now)
		if err != nil {
			return err
		}
		w.seg = opened
	}

	encodeHeader(w.headerBuf, header, len(payload))
	binary.LittleEndian.PutUint32(w.checksumBuf[:], checksum(w.headerBuf, payload))

	if _, err := w.seg.buf.Write(w.headerBuf); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.seg.buf.Write(payload); err != nil {
			return err
		}
	}
	if _, err := w.seg.buf.Write(w.checksumBuf[:]); err != nil {
		return err
	}

	w.seg.size += recordSize
	return nil
}

func (w *Writer) shouldRotate(now time.Time, nextSize int64) bool {
	if w.seg == nil {
		return true
	}
	// a record larger than a segment still gets a segment of its own
	if w.seg.size > 0 && w.seg.size+nextSize > w.cfg.SegmentMaxBytes {
		return true
	}
	if w.cfg.SegmentMaxDuration > 0 && now.Sub(w.seg.openedAt) >= w.cfg.SegmentMaxDuration {
		return true
	}
	return false
}

func (w *Writer) closeSegment(seg *segmentWriter, durable bool) error {
	if seg == nil {
		return nil
	}
	if err := seg.buf.Flush(); err != nil {
		_ = seg.file.Close()
		return err
	}
	if durable {
		if err := seg.file.Sync(); err != nil {
			_ = seg.file.Close()
			return err
		}
	}
	return seg.file.Close()
}

func (w *Writer) openSegment(now time.Time) (*segmentWriter, error) {
	ts := now.Format("20060102-150405")
	for {
		w.segID++
		name := fmt.Sprintf("%s-%s-%06d.wal", w.cfg.FilePrefix, ts, w.segID)
		path := filepath.Join(w.cfg.Dir, name)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return nil, errs.Wrap(err, "open wal segment").With("path", path)
		}
		return &segmentWriter{
			file:     file,
			buf:      bufio.NewWriterSize(file, w.cfg.BufferSize),
			openedAt: now,
		}, nil
	}
}

type segmentWriter struct {
	file     *os.File
	buf      *bufio.Writer
	size     int64
	openedAt time.Time
}
