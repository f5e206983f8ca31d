package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/JP-Fernando/trading-tool/internal/schema"
	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
)

const summaryScale = 8

// Summary aggregates the fills of one run. Totals are decimal so they add
// up exactly regardless of fill count.
type Summary struct {
	RunID        string            `json:"runId"`
	Fills        int               `json:"fills"`
	Buys         int               `json:"buys"`
	Sells        int               `json:"sells"`
	Symbols      int               `json:"symbols"`
	NonFinite    int               `json:"nonFinite,omitempty"`
	NonFinitePnL bool              `json:"nonFinitePnl,omitempty"`
	Volume       decimal.Decimal   `json:"volume"`
	Notional     decimal.Decimal   `json:"notional"`
	Commission   decimal.Decimal   `json:"commission"`
	AvgSlippage  decimal.Decimal   `json:"avgSlippage"`
	First        schema.Timestamp  `json:"first"`
	Last         schema.Timestamp  `json:"last"`
	PnL          *schema.PnLUpdate `json:"pnl,omitempty"`
}

// Summarize aggregates fills. Fills carrying NaN or infinite numbers are
// counted in NonFinite and left out of the totals.
func Summarize(runID string, fills []schema.Fill) Summary {
	s := Summary{
		RunID:       runID,
		Volume:      decimal.Zero,
		Notional:    decimal.Zero,
		Commission:  decimal.Zero,
		AvgSlippage: decimal.Zero,
	}
	symbols := make(map[string]struct{})
	slippage := decimal.Zero

	for _, f := range fills {
		if !finite(f.FilledQuantity, f.FillPrice, f.Commission, f.Slippage) {
			s.NonFinite++
			continue
		}
		s.Fills++
		switch f.Side {
		case schema.SideBuy:
			s.Buys++
		case schema.SideSell:
			s.Sells++
		}
		symbols[f.Symbol] = struct{}{}

		qty := decimal.NewFromFloat(f.FilledQuantity)
		s.Volume = s.Volume.Add(qty)
		s.Notional = s.Notional.Add(qty.Mul(decimal.NewFromFloat(f.FillPrice)))
		s.Commission = s.Commission.Add(decimal.NewFromFloat(f.Commission))
		slippage = slippage.Add(decimal.NewFromFloat(f.Slippage))

		if s.Fills == 1 || f.Timestamp < s.First {
			s.First = f.Timestamp
		}
		if s.Fills == 1 || f.Timestamp > s.Last {
			s.Last = f.Timestamp
		}
	}

	s.Symbols = len(symbols)
	if s.Fills > 0 {
		s.AvgSlippage = slippage.Div(decimal.NewFromInt(int64(s.Fills))).Round(summaryScale)
	}
	return s
}

// WithPnL attaches the final account state. A state holding NaN or infinite
// numbers is left out and flagged in NonFinitePnL.
func (s Summary) WithPnL(pnl schema.PnLUpdate) Summary {
	if !finite(pnl.TotalPnL, pnl.RealizedPnL, pnl.UnrealizedPnL, pnl.CommissionPaid) {
		s.PnL = nil
		s.NonFinitePnL = true
		return s
	}
	s.PnL = &pnl
	s.NonFinitePnL = false
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("fills=%d buys=%d sells=%d symbols=%d volume=%s notional=%s commission=%s avg_slippage=%s",
		s.Fills, s.Buys, s.Sells, s.Symbols, s.Volume, s.Notional, s.Commission, s.AvgSlippage)
}

// WriteSummary writes the summary as indented JSON.
func WriteSummary(path string, s Summary) error {
	data, err := sonic.ConfigFastest.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSummary loads a summary written by WriteSummary.
func ReadSummary(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, err
	}
	var s Summary
	if err := sonic.ConfigFastest.Unmarshal(data, &s); err != nil {
		return Summary{}, err
	}
	return s, nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
