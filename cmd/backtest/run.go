package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/JP-Fernando/trading-tool/internal/bus"
	"github.com/JP-Fernando/trading-tool/internal/engine"
	"github.com/JP-Fernando/trading-tool/internal/execution"
	"github.com/JP-Fernando/trading-tool/internal/feed"
	"github.com/JP-Fernando/trading-tool/internal/mdg"
	"github.com/JP-Fernando/trading-tool/internal/obs"
	"github.com/JP-Fernando/trading-tool/internal/ops"
	"github.com/JP-Fernando/trading-tool/internal/recorder"
	"github.com/JP-Fernando/trading-tool/internal/report"
	"github.com/JP-Fernando/trading-tool/internal/schema"
	"github.com/JP-Fernando/trading-tool/internal/state"
	"github.com/JP-Fernando/trading-tool/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/yanun0323/errors"
)

const (
	walSubdir    = "wal"
	journalFile  = "fills.jsonl"
	summaryFile  = "summary.json"
	snapshotFile = "positions.json"
)

// run wires one backtest: feed -> queue -> engine -> simulator, with the
// portfolio attached as a fill handler and the artifacts written under the
// output dir.
func run(ctx context.Context, loaded ops.Loaded, runID string, logger obs.Logger) (report.Summary, error) {
	metrics := obs.NewMetrics()
	if loaded.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(obs.NewCollector(metrics, runID))
		srv := obs.Serve(loaded.Metrics.Addr, reg)
		defer func() { _ = srv.Close() }()
		logger.Infof("metrics listening on %s", loaded.Metrics.Addr)
	}

	art, err := openArtifacts(loaded.Output, runID)
	if err != nil {
		return report.Summary{}, err
	}
	defer art.close(logger)

	var (
		eng       *engine.Engine
		portfolio = state.NewPortfolio()
		lastTs    schema.Timestamp
	)

	queue := bus.NewQueue()
	sim := execution.NewSimulator(queue, loaded.Slippage, loaded.Execution)

	eng = engine.New(queue, sim,
		engine.WithLogger(logger),
		engine.WithMetrics(metrics),
		engine.WithMode(loaded.Mode),
		engine.WithObserver(func(ev schema.Event) {
			lastTs = ev.Time()
			if tick, ok := ev.(schema.Tick); ok {
				portfolio.Mark(tick)
			}
			art.record(ev, logger)
		}),
		engine.WithFillHandler(func(fill schema.Fill) {
			if art.journal != nil {
				art.journal.Record(fill)
			}
			pos, pnl := portfolio.ApplyFill(fill)
			eng.Push(pos)
			eng.Push(pnl)
		}),
	)

	pushed, err := execute(ctx, eng, loaded)
	if err != nil {
		return report.Summary{}, err
	}
	logger.Infof("fed %d events, processed %d", pushed, eng.Processed())

	fills := sim.Fills()
	summary := report.Summarize(runID, fills).WithPnL(portfolio.PnL(lastTs))

	if err := art.finish(portfolio, summary, lastTs); err != nil {
		return summary, err
	}
	if loaded.Postgres.Enabled() {
		if err := export(ctx, loaded.Postgres, runID, fills); err != nil {
			return summary, err
		}
		logger.Infof("exported %d fills to postgres", len(fills))
	}
	return summary, nil
}

// execute feeds the timeline and runs the loop. Drain mode loads the whole
// timeline first; service mode runs the loop while the feed pushes and then
// closes its input.
func execute(ctx context.Context, eng *engine.Engine, loaded ops.Loaded) (int, error) {
	opts := []feed.Option{
		feed.WithKinds(loaded.Kinds...),
		feed.WithRate(loaded.Feed.Rate, loaded.Feed.Burst),
	}

	if loaded.Mode != engine.ModeService {
		n, err := push(ctx, eng, loaded, opts)
		if err != nil {
			return n, err
		}
		eng.RunContext(ctx)
		return n, ctx.Err()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		eng.RunContext(ctx)
	}()
	n, err := push(ctx, eng, loaded, opts)
	eng.CloseInput()
	<-done
	if err != nil {
		return n, err
	}
	return n, ctx.Err()
}

func push(ctx context.Context, dst feed.Pusher, loaded ops.Loaded, opts []feed.Option) (int, error) {
	if loaded.Feed.WALDir != "" {
		pb, err := recorder.NewPlayback(recorder.PlaybackConfig{
			Dir:        loaded.Feed.WALDir,
			FilePrefix: loaded.Feed.FilePrefix,
			Speed:      loaded.Feed.Speed,
		})
		if err != nil {
			return 0, err
		}
		return feed.Replay(ctx, pb, dst, opts...)
	}

	gen, err := mdg.NewGenerator(loaded.Generator)
	if err != nil {
		return 0, err
	}
	return feed.Slice(ctx, gen.Generate(loaded.Ticks), dst, opts...)
}

func export(ctx context.Context, opt store.Option, runID string, fills []schema.Fill) error {
	st, err := store.Open(opt)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	return st.SaveFills(ctx, runID, fills)
}

type artifacts struct {
	cfg     ops.OutputConfig
	wal     *recorder.Writer
	walErr  error
	journal *report.Journal
}

func openArtifacts(cfg ops.OutputConfig, runID string) (*artifacts, error) {
	art := &artifacts{cfg: cfg}
	if cfg.Dir == "" {
		return art, nil
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create output dir").With("dir", cfg.Dir)
	}
	if cfg.WAL {
		w, err := recorder.NewWriter(cfg.WALWriter.WithDir(filepath.Join(cfg.Dir, walSubdir)))
		if err != nil {
			return nil, err
		}
		art.wal = w
	}
	if cfg.Journal {
		j, err := report.OpenJournal(filepath.Join(cfg.Dir, journalFile), runID)
		if err != nil {
			art.close(nil)
			return nil, err
		}
		art.journal = j
	}
	return art, nil
}

// record appends ev to the run WAL. Only the first failure is logged; the
// run reports it from finish.
func (a *artifacts) record(ev schema.Event, logger obs.Logger) {
	if a.wal == nil {
		return
	}
	if err := a.wal.Append(ev); err != nil && a.walErr == nil {
		a.walErr = err
		logger.Errorf("wal append failed, kind %s ts %d: %v", ev.Kind(), ev.Time(), err)
	}
}

func (a *artifacts) finish(portfolio *state.Portfolio, summary report.Summary, lastTs schema.Timestamp) error {
	if a.cfg.Summary {
		if err := report.WriteSummary(filepath.Join(a.cfg.Dir, summaryFile), summary); err != nil {
			return err
		}
	}
	if a.cfg.Snapshot {
		var seq uint64
		if a.wal != nil {
			seq = a.wal.Seq()
		}
		snap := portfolio.SnapshotWithMeta(seq, lastTs)
		if err := state.WriteSnapshot(filepath.Join(a.cfg.Dir, snapshotFile), snap); err != nil {
			return err
		}
	}
	if a.walErr != nil {
		return errors.Wrap(a.walErr, "record wal").With("dir", filepath.Join(a.cfg.Dir, walSubdir))
	}
	return nil
}

func (a *artifacts) close(logger obs.Logger) {
	logger = obs.Safe(logger)
	if a.wal != nil {
		if err := a.wal.Close(); err != nil {
			logger.Errorf("close wal: %v", err)
		}
	}
	if a.journal != nil {
		if n := a.journal.Skipped(); n > 0 {
			logger.Errorf("journal skipped %d non-finite fills", n)
		}
		if err := a.journal.Close(); err != nil {
			logger.Errorf("close journal: %v", err)
		}
	}
}
