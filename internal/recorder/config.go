package recorder

import (
	"fmt"
	"strings"
	"time"

	"github.com/JP-Fernando/trading-tool/pkg/exception"
)

const (
	defaultSegmentMaxBytes int64 = 256 << 20
	defaultBufferSize            = 256 * 1024
	defaultFilePrefix            = "wal"
)

// Config controls the WAL writer. Dir is set by the caller; the rest may come
// from a config file.
type Config struct {
	Dir                string        `json:"-" yaml:"-"`
	SegmentMaxBytes    int64         `json:"segmentMaxBytes" yaml:"segment_max_bytes"`
	SegmentMaxDuration time.Duration `json:"segmentMaxDuration" yaml:"segment_max_duration"`
	BufferSize         int           `json:"bufferSize" yaml:"buffer_size"`
	FilePrefix         string        `json:"filePrefix" yaml:"file_prefix"`
	SyncOnRotate       bool          `json:"syncOnRotate" yaml:"sync_on_rotate"`
}

// DefaultConfig returns the writer settings used for backtest timelines.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:             dir,
		SegmentMaxBytes: defaultSegmentMaxBytes,
		BufferSize:      defaultBufferSize,
		FilePrefix:      defaultFilePrefix,
		SyncOnRotate:    true,
	}
}

// WithDir returns a copy writing into dir, with unset fields defaulted.
func (c Config) WithDir(dir string) Config {
	c.Dir = dir
	return c.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.SegmentMaxBytes == 0 {
		c.SegmentMaxBytes = defaultSegmentMaxBytes
	}
	if c.BufferSize == 0 {
		c.BufferSize = defaultBufferSize
	}
	if c.FilePrefix == "" {
		c.FilePrefix = defaultFilePrefix
	}
	return c
}

// Validate checks if the config is usable. Errors wrap
// exception.ErrConfigInvalid.
func (c Config) Validate() error {
	switch {
	case c.Dir == "":
		return invalidConfig("Dir is empty")
	case c.SegmentMaxBytes <= 0:
		return invalidConfig("SegmentMaxBytes must be > 0")
	case c.SegmentMaxDuration < 0:
		return invalidConfig("SegmentMaxDuration must be >= 0")
	case c.BufferSize <= 0:
		return invalidConfig("BufferSize must be > 0")
	case c.FilePrefix == "":
		return invalidConfig("FilePrefix is empty")
	case strings.ContainsAny(c.FilePrefix, `/\`):
		// segment names are "<prefix>-<time>-<id>.wal" inside Dir
		return invalidConfig("FilePrefix must not contain a path separator")
	}
	return nil
}

func invalidConfig(msg string) error {
	return fmt.Errorf("%w: recorder: %s", exception.ErrConfigInvalid, msg)
}
