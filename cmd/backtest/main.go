package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/JP-Fernando/trading-tool/internal/engine"
	"github.com/JP-Fernando/trading-tool/internal/obs"
	"github.com/JP-Fernando/trading-tool/internal/ops"
	"github.com/google/uuid"
	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/joho/godotenv"
	"github.com/yanun0323/pkg/sys"
)

const (
	envPostgresDSN = "BACKTEST_PG_DSN"
	envMetricsAddr = "BACKTEST_METRICS_ADDR"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON or YAML config")
	envFile := flag.String("env", ".env", "Optional dotenv file")
	walDir := flag.String("wal-dir", "", "Replay this WAL directory instead of generating data")
	outDir := flag.String("out", "", "Output directory override")
	mode := flag.String("mode", "", "Loop mode override: drain|service")
	runID := flag.String("run-id", "", "Run id (default: random uuid)")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("load env file failed: %v", err)
	}

	loaded, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := applyOverrides(&loaded, *walDir, *outDir, *mode); err != nil {
		log.Fatalf("invalid flags: %v", err)
	}
	if *runID == "" {
		*runID = uuid.NewString()
	}

	logger := newLogger(loaded.Log, *runID)
	os.Exit(backtest(loaded, *runID, logger))
}

// backtest runs one backtest under profiling and signal handling and returns
// the process exit code. Deferred cleanup runs before main exits.
func backtest(loaded ops.Loaded, runID string, logger obs.Logger) int {
	if loaded.Profiling.Enabled {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: profilingName(loaded.Profiling.ApplicationName),
			ServerAddress:   loaded.Profiling.ServerAddress,
			Tags: map[string]string{
				"run": runID,
			},
			Logger: pyroscopeLogger{logger},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			logger.Errorf("pyroscope start failed: %v", err)
			return 1
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		select {
		case <-sys.Shutdown():
			stop()
		case <-ctx.Done():
		}
	}()

	summary, err := run(ctx, loaded, runID, logger)
	if err != nil {
		logger.Errorf("backtest %s failed: %v", runID, err)
		return 1
	}
	logger.Infof("backtest %s done: %s", runID, summary)
	return 0
}

func loadConfig(path string) (ops.Loaded, error) {
	if path == "" {
		return ops.Resolve(ops.Default())
	}
	return ops.Load(path)
}

func applyOverrides(loaded *ops.Loaded, walDir, outDir, mode string) error {
	if walDir != "" {
		loaded.Feed.WALDir = walDir
	}
	if outDir != "" {
		loaded.Output.Dir = outDir
	}
	if mode != "" {
		m, ok := engine.ParseMode(mode)
		if !ok {
			return errors.New("unknown mode " + mode)
		}
		loaded.Mode = m
	}
	if dsn := os.Getenv(envPostgresDSN); dsn != "" {
		loaded.Postgres.ConnString = dsn
	}
	if addr := os.Getenv(envMetricsAddr); addr != "" {
		loaded.Metrics.Addr = addr
	}
	return nil
}

func newLogger(cfg ops.LogConfig, runID string) obs.Logger {
	if cfg.Format == "json" {
		return obs.NewZerologLogger(os.Stdout, cfg.Level).With("run", runID)
	}
	return obs.NewLogsLogger(cfg.Level)
}

func profilingName(name string) string {
	if name == "" {
		return "backtest"
	}
	return name
}

type pyroscopeLogger struct {
	obs.Logger
}

func (pyroscopeLogger) Debugf(string, ...any) {}
