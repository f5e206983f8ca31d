package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JP-Fernando/trading-tool/internal/engine"
	"github.com/JP-Fernando/trading-tool/internal/execution"
	"github.com/JP-Fernando/trading-tool/internal/mdg"
	"github.com/JP-Fernando/trading-tool/internal/recorder"
	"github.com/JP-Fernando/trading-tool/internal/schema"
	"github.com/JP-Fernando/trading-tool/internal/store"
	"github.com/JP-Fernando/trading-tool/pkg/exception"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors the JSON/YAML config layout.
type FileConfig struct {
	Log       LogConfig       `json:"log" yaml:"log"`
	Engine    EngineConfig    `json:"engine" yaml:"engine"`
	Execution ExecutionConfig `json:"execution" yaml:"execution"`
	Feed      FeedConfig      `json:"feed" yaml:"feed"`
	Generator GeneratorConfig `json:"generator" yaml:"generator"`
	Output    OutputConfig    `json:"output" yaml:"output"`
	Postgres  store.Option    `json:"postgres" yaml:"postgres"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics"`
	Profiling ProfilingConfig `json:"profiling" yaml:"profiling"`
}

// LogConfig selects the log sink. Format is console or json.
type LogConfig struct {
	Format string `json:"format" yaml:"format"`
	Level  string `json:"level" yaml:"level"`
}

// EngineConfig selects the loop mode: drain or service.
type EngineConfig struct {
	Mode string `json:"mode" yaml:"mode"`
}

// ExecutionConfig describes transaction costs.
type ExecutionConfig struct {
	FeeRate  *float64       `json:"feeRate" yaml:"fee_rate"`
	Venue    string         `json:"venue" yaml:"venue"`
	Slippage SlippageConfig `json:"slippage" yaml:"slippage"`
}

// SlippageConfig picks a slippage policy: mid, constant, fixed_bps or linear.
type SlippageConfig struct {
	Model string  `json:"model" yaml:"model"`
	Price float64 `json:"price" yaml:"price"`
	Bps   float64 `json:"bps" yaml:"bps"`
	Coef  float64 `json:"coef" yaml:"coef"`
}

// FeedConfig describes a WAL source. An empty WALDir means the generator
// is used instead.
type FeedConfig struct {
	WALDir     string   `json:"walDir" yaml:"wal_dir"`
	FilePrefix string   `json:"filePrefix" yaml:"file_prefix"`
	Speed      float64  `json:"speed" yaml:"speed"`
	Rate       float64  `json:"rate" yaml:"rate"`
	Burst      int      `json:"burst" yaml:"burst"`
	Kinds      []string `json:"kinds" yaml:"kinds"`
}

// GeneratorConfig describes a synthetic timeline.
type GeneratorConfig struct {
	Symbols     []string `json:"symbols" yaml:"symbols"`
	Ticks       int      `json:"ticks" yaml:"ticks"`
	Seed        uint64   `json:"seed" yaml:"seed"`
	IntervalMs  int64    `json:"intervalMs" yaml:"interval_ms"`
	BasePrice   float64  `json:"basePrice" yaml:"base_price"`
	Spread      float64  `json:"spread" yaml:"spread"`
	Volatility  float64  `json:"volatility" yaml:"volatility"`
	SignalEvery int      `json:"signalEvery" yaml:"signal_every"`
	StrategyID  string   `json:"strategyId" yaml:"strategy_id"`
}

// OutputConfig selects run artifacts written under Dir. WALWriter tunes the
// run WAL segments; its Dir is derived from Dir.
type OutputConfig struct {
	Dir       string          `json:"dir" yaml:"dir"`
	WAL       bool            `json:"wal" yaml:"wal"`
	Journal   bool            `json:"journal" yaml:"journal"`
	Summary   bool            `json:"summary" yaml:"summary"`
	Snapshot  bool            `json:"snapshot" yaml:"snapshot"`
	WALWriter recorder.Config `json:"walWriter" yaml:"wal_writer"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// ProfilingConfig enables continuous profiling.
type ProfilingConfig struct {
	Enabled         bool   `json:"enabled" yaml:"enabled"`
	ServerAddress   string `json:"serverAddress" yaml:"server_address"`
	ApplicationName string `json:"applicationName" yaml:"application_name"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Log          LogConfig
	Mode         engine.Mode
	Execution    execution.Config
	Slippage     execution.SlippageFunc
	SlippageName string
	Feed         FeedConfig
	Kinds        []schema.Kind
	Generator    mdg.Config
	Ticks        int
	Output       OutputConfig
	Postgres     store.Option
	Metrics      MetricsConfig
	Profiling    ProfilingConfig
}

// Default returns the built-in configuration.
func Default() FileConfig {
	fee := execution.DefaultFeeRate
	return FileConfig{
		Log:    LogConfig{Format: "console", Level: "info"},
		Engine: EngineConfig{Mode: engine.ModeDrain.String()},
		Execution: ExecutionConfig{
			FeeRate:  &fee,
			Venue:    execution.DefaultVenue,
			Slippage: SlippageConfig{Model: "mid"},
		},
		Feed: FeedConfig{Kinds: []string{"tick", "signal"}},
		Generator: GeneratorConfig{
			Symbols:     []string{"TEST-USD"},
			Ticks:       1000,
			Seed:        1,
			IntervalMs:  1000,
			SignalEvery: 10,
		},
		Output: OutputConfig{Dir: "out", Journal: true, Summary: true, WALWriter: recorder.DefaultConfig("")},
	}
}

// Load reads a config file, choosing the decoder by extension, and resolves
// it on top of the defaults.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return Parse(data, format)
}

// Parse decodes json or yaml config data and resolves it.
func Parse(data []byte, format string) (Loaded, error) {
	cfg := Default()
	switch format {
	case "json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Loaded{}, err
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Loaded{}, err
		}
	default:
		return Loaded{}, fmt.Errorf("%w: %q", exception.ErrConfigUnsupportedFormat, format)
	}
	return Resolve(cfg)
}

// Resolve validates cfg and builds runtime values.
func Resolve(cfg FileConfig) (Loaded, error) {
	if err := validateLog(cfg.Log); err != nil {
		return Loaded{}, err
	}
	mode, ok := engine.ParseMode(cfg.Engine.Mode)
	if !ok {
		return Loaded{}, invalid("engine.mode %q", cfg.Engine.Mode)
	}
	exec, err := resolveExecution(cfg.Execution)
	if err != nil {
		return Loaded{}, err
	}
	slippage, err := resolveSlippage(cfg.Execution.Slippage)
	if err != nil {
		return Loaded{}, err
	}
	kinds, err := resolveKinds(cfg.Feed.Kinds)
	if err != nil {
		return Loaded{}, err
	}
	if cfg.Feed.Speed < 0 || cfg.Feed.Rate < 0 || cfg.Feed.Burst < 0 {
		return Loaded{}, invalid("feed speed, rate and burst must be >= 0")
	}
	gen, err := resolveGenerator(cfg.Generator)
	if err != nil {
		return Loaded{}, err
	}
	if cfg.Output.Dir == "" && (cfg.Output.WAL || cfg.Output.Journal || cfg.Output.Summary || cfg.Output.Snapshot) {
		return Loaded{}, invalid("output.dir is empty")
	}
	if cfg.Output.WAL {
		if err := cfg.Output.WALWriter.WithDir(cfg.Output.Dir).Validate(); err != nil {
			return Loaded{}, err
		}
	}
	if cfg.Profiling.Enabled && cfg.Profiling.ServerAddress == "" {
		return Loaded{}, invalid("profiling.serverAddress is empty")
	}

	return Loaded{
		Log:          cfg.Log,
		Mode:         mode,
		Execution:    exec,
		Slippage:     slippage,
		SlippageName: cfg.Execution.Slippage.Model,
		Feed:         cfg.Feed,
		Kinds:        kinds,
		Generator:    gen,
		Ticks:        cfg.Generator.Ticks,
		Output:       cfg.Output,
		Postgres:     cfg.Postgres,
		Metrics:      cfg.Metrics,
		Profiling:    cfg.Profiling,
	}, nil
}

func validateLog(cfg LogConfig) error {
	switch cfg.Format {
	case "", "console", "json":
		return nil
	default:
		return invalid("log.format %q", cfg.Format)
	}
}

func resolveExecution(cfg ExecutionConfig) (execution.Config, error) {
	out := execution.DefaultConfig()
	if cfg.FeeRate != nil {
		if *cfg.FeeRate < 0 {
			return execution.Config{}, invalid("execution.feeRate must be >= 0")
		}
		out.FeeRate = *cfg.FeeRate
	}
	if cfg.Venue != "" {
		out.Venue = cfg.Venue
	}
	return out, nil
}

func resolveSlippage(cfg SlippageConfig) (execution.SlippageFunc, error) {
	switch cfg.Model {
	case "", "mid":
		return execution.MidPrice, nil
	case "constant":
		if cfg.Price <= 0 {
			return nil, invalid("slippage.price must be > 0")
		}
		return execution.Constant(cfg.Price), nil
	case "fixed_bps":
		if cfg.Bps < 0 {
			return nil, invalid("slippage.bps must be >= 0")
		}
		return execution.FixedBps(cfg.Bps), nil
	case "linear":
		if cfg.Coef < 0 {
			return nil, invalid("slippage.coef must be >= 0")
		}
		return execution.LinearImpact(cfg.Coef), nil
	default:
		return nil, invalid("slippage.model %q", cfg.Model)
	}
}

func resolveKinds(names []string) ([]schema.Kind, error) {
	if len(names) == 0 {
		return []schema.Kind{schema.KindTick, schema.KindSignal}, nil
	}
	out := make([]schema.Kind, 0, len(names))
	for _, name := range names {
		kind, ok := parseKind(name)
		if !ok {
			return nil, invalid("feed.kinds entry %q", name)
		}
		out = append(out, kind)
	}
	return out, nil
}

func parseKind(name string) (schema.Kind, bool) {
	switch strings.ToLower(name) {
	case "tick":
		return schema.KindTick, true
	case "signal":
		return schema.KindSignal, true
	case "order":
		return schema.KindOrder, true
	case "fill":
		return schema.KindFill, true
	case "position", "position_update":
		return schema.KindPositionUpdate, true
	case "pnl", "pnl_update":
		return schema.KindPnLUpdate, true
	default:
		return 0, false
	}
}

func resolveGenerator(cfg GeneratorConfig) (mdg.Config, error) {
	if cfg.Ticks < 0 {
		return mdg.Config{}, invalid("generator.ticks must be >= 0")
	}
	if cfg.IntervalMs < 0 {
		return mdg.Config{}, invalid("generator.intervalMs must be >= 0")
	}
	out := mdg.Config{
		Symbols:     cfg.Symbols,
		Seed:        cfg.Seed,
		Interval:    time.Duration(cfg.IntervalMs) * time.Millisecond,
		BasePrice:   cfg.BasePrice,
		Spread:      cfg.Spread,
		Volatility:  cfg.Volatility,
		SignalEvery: cfg.SignalEvery,
		StrategyID:  cfg.StrategyID,
	}
	if _, err := mdg.NewGenerator(out); err != nil {
		return mdg.Config{}, fmt.Errorf("%w: %v", exception.ErrConfigInvalid, err)
	}
	return out, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{exception.ErrConfigInvalid}, args...)...)
}
