package state

import (
	"context"
	"fmt"

	"github.com/JP-Fernando/trading-tool/internal/recorder"
	"github.com/JP-Fernando/trading-tool/internal/schema"
)

// RecoverConfig controls snapshot + WAL recovery.
type RecoverConfig struct {
	WALDir          string
	SnapshotPath    string
	FilePrefix      string
	DisableChecksum bool
	MaxPayloadSize  int
}

// RecoverResult contains recovered state and metadata.
type RecoverResult struct {
	Portfolio   *Portfolio
	LastSeq     uint64
	LastEventTs schema.Timestamp
}

// RecoverPortfolio loads an optional snapshot and replays the fills and
// ticks recorded after it.
func RecoverPortfolio(ctx context.Context, cfg RecoverConfig) (RecoverResult, error) {
	if cfg.WALDir == "" {
		return RecoverResult{}, fmt.Errorf("wal dir is empty")
	}
	portfolio := NewPortfolio()
	var (
		lastSeq     uint64
		lastEventTs schema.Timestamp
	)

	if cfg.SnapshotPath != "" {
		snapshot, err := ReadSnapshot(cfg.SnapshotPath)
		if err != nil {
			return RecoverResult{}, err
		}
		portfolio.ApplySnapshot(snapshot)
		lastSeq = snapshot.LastSeq
		lastEventTs = schema.Timestamp(snapshot.LastEventTs)
	}

	pb, err := recorder.NewPlayback(recorder.PlaybackConfig{
		Dir:             cfg.WALDir,
		FilePrefix:      cfg.FilePrefix,
		DisableChecksum: cfg.DisableChecksum,
		MaxPayloadSize:  cfg.MaxPayloadSize,
	})
	if err != nil {
		return RecoverResult{}, err
	}

	err = pb.RunEvents(ctx, func(header recorder.Header, ev schema.Event) error {
		if lastSeq > 0 && header.Seq <= lastSeq {
			return nil
		}
		if header.Seq > lastSeq {
			lastSeq = header.Seq
		}
		if header.Timestamp > lastEventTs {
			lastEventTs = header.Timestamp
		}

		switch v := ev.(type) {
		case schema.Fill:
			portfolio.ApplyFill(v)
		case schema.Tick:
			portfolio.Mark(v)
		}
		return nil
	})
	if err != nil {
		return RecoverResult{}, err
	}

	return RecoverResult{
		Portfolio:   portfolio,
		LastSeq:     lastSeq,
		LastEventTs: lastEventTs,
	}, nil
}
