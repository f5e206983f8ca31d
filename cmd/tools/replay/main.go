package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/JP-Fernando/trading-tool/internal/codec"
	"github.com/JP-Fernando/trading-tool/internal/recorder"
	"github.com/JP-Fernando/trading-tool/internal/schema"
)

func main() {
	dir := flag.String("dir", "testdata/wal", "WAL directory")
	prefix := flag.String("prefix", "", "WAL file prefix (default: wal)")
	speed := flag.Float64("speed", 0, "Playback speed (1=real-time, 0=no pacing)")
	noChecksum := flag.Bool("no-checksum", false, "Disable checksum validation")
	maxPayload := flag.Int("max-payload", 0, "Max payload size in bytes (0=unlimited)")
	decode := flag.Bool("decode", false, "Decode payloads")
	flag.Parse()

	pb, err := recorder.NewPlayback(recorder.PlaybackConfig{
		Dir:             *dir,
		FilePrefix:      *prefix,
		Speed:           *speed,
		DisableChecksum: *noChecksum,
		MaxPayloadSize:  *maxPayload,
	})
	if err != nil {
		log.Fatalf("playback init failed: %v", err)
	}

	var index int
	err = pb.Run(context.Background(), func(header recorder.Header, payload []byte) error {
		index++
		fmt.Printf("%06d seq=%d kind=%s v=%d ts=%d len=%d\n", index, header.Seq, header.Kind, header.Version, header.Timestamp, len(payload))
		if *decode {
			printDecoded(header.Kind, payload)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("playback run failed: %v", err)
	}
}

func printDecoded(kind schema.Kind, payload []byte) {
	ev, err := codec.Decode(kind, payload)
	if err != nil {
		fmt.Printf("  decode %s failed: %v\n", kind, err)
		return
	}
	fmt.Println("  " + describe(ev))
}

func describe(ev schema.Event) string {
	switch v := ev.(type) {
	case schema.Tick:
		return fmt.Sprintf("tick symbol=%s bid=%g/%g ask=%g/%g last=%g/%g", v.Symbol, v.Bid, v.BidVolume, v.Ask, v.AskVolume, v.Last, v.LastVolume)
	case schema.Signal:
		return fmt.Sprintf("signal symbol=%s side=%s strength=%g strategy=%s", v.Symbol, v.Side, v.Strength, v.StrategyID)
	case schema.Order:
		return fmt.Sprintf("order id=%d symbol=%s side=%s qty=%g limit=%g status=%s strategy=%s", v.OrderID, v.Symbol, v.Side, v.Quantity, v.LimitPrice, v.Status, v.StrategyID)
	case schema.Fill:
		return fmt.Sprintf("fill id=%d symbol=%s side=%s qty=%g price=%g fee=%g slippage=%g venue=%s", v.OrderID, v.Symbol, v.Side, v.FilledQuantity, v.FillPrice, v.Commission, v.Slippage, v.Venue)
	case schema.PositionUpdate:
		return fmt.Sprintf("position symbol=%s qty=%g avg=%g unrealized=%g realized=%g", v.Symbol, v.Position, v.AvgEntryPrice, v.UnrealizedPnL, v.RealizedPnL)
	case schema.PnLUpdate:
		return fmt.Sprintf("pnl total=%g realized=%g unrealized=%g fees=%g trades=%d/%d", v.TotalPnL, v.RealizedPnL, v.UnrealizedPnL, v.CommissionPaid, v.WinningTrades, v.TotalTrades)
	default:
		return fmt.Sprintf("unknown %T", ev)
	}
}
