package main

import (
	"flag"
	"log"
	"strings"
	"time"

	"github.com/JP-Fernando/trading-tool/internal/mdg"
	"github.com/JP-Fernando/trading-tool/internal/ops"
	"github.com/JP-Fernando/trading-tool/internal/recorder"
)

func main() {
	walDir := flag.String("wal-dir", "testdata/wal", "WAL directory for the generated timeline")
	configPath := flag.String("config", "", "Path to JSON or YAML config (generator section)")
	ticks := flag.Int("ticks", 0, "Number of ticks to generate (0=config)")
	symbols := flag.String("symbols", "", "Comma separated symbols (empty=config)")
	seed := flag.Uint64("seed", 0, "Random seed (0=config)")
	interval := flag.Duration("interval", 0, "Event time spacing (0=config)")
	prefix := flag.String("prefix", "", "WAL file prefix (default: wal)")
	flag.Parse()

	cfg, n, err := generatorConfig(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *ticks > 0 {
		n = *ticks
	}
	if *symbols != "" {
		cfg.Symbols = strings.Split(*symbols, ",")
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *interval > 0 {
		cfg.Interval = *interval
	}
	if n <= 0 {
		log.Fatalf("ticks must be > 0")
	}

	gen, err := mdg.NewGenerator(cfg)
	if err != nil {
		log.Fatalf("generator init failed: %v", err)
	}

	wcfg := recorder.DefaultConfig(*walDir)
	if *prefix != "" {
		wcfg.FilePrefix = *prefix
	}
	w, err := recorder.NewWriter(wcfg)
	if err != nil {
		log.Fatalf("wal init failed: %v", err)
	}

	start := time.Now()
	for _, ev := range gen.Generate(n) {
		if err := w.Append(ev); err != nil {
			_ = w.Close()
			log.Fatalf("wal append failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		log.Fatalf("wal close failed: %v", err)
	}
	log.Printf("wrote %d records for %d ticks to %s in %s", w.Seq(), n, *walDir, time.Since(start))
}

func generatorConfig(path string) (mdg.Config, int, error) {
	if path == "" {
		loaded, err := ops.Resolve(ops.Default())
		return loaded.Generator, loaded.Ticks, err
	}
	loaded, err := ops.Load(path)
	if err != nil {
		return mdg.Config{}, 0, err
	}
	return loaded.Generator, loaded.Ticks, nil
}
