package report

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrUnknownEntry is returned for an entry ID outside the log.
var ErrUnknownEntry = errors.New("unknown bet log entry")

// BetLogEntry is one predicted round with the user's stake and the odd that
// actually came up.
type BetLogEntry struct {
	ID             int     `json:"id"`
	PredictedValue float64 `json:"predictedValue"`
	Stake          float64 `json:"stake"`
	ActualOdd      float64 `json:"actualOdd"`
	ProfitLoss     float64 `json:"profitLoss"`
}

// BetSummary totals a bet log.
type BetSummary struct {
	InitialStake    float64 `json:"initialStake"`
	TotalProfitLoss float64 `json:"totalProfitLoss"`
	FinalAmount     float64 `json:"finalAmount"`
}

// BetLog tracks hypothetical bets placed on predicted values. Nothing is
// persisted.
type BetLog struct {
	entries []BetLogEntry
}

// NewBetLog creates one entry per prediction. Actual odds start out equal to
// the prediction and stakes at zero.
func NewBetLog(predictions []float64) *BetLog {
	entries := make([]BetLogEntry, len(predictions))
	for i, p := range predictions {
		entries[i] = BetLogEntry{ID: i, PredictedValue: p, ActualOdd: p}
	}
	return &BetLog{entries: entries}
}

// SetCommonStake applies stake to every entry.
func (b *BetLog) SetCommonStake(stake float64) {
	for i := range b.entries {
		b.entries[i].Stake = stake
	}
}

// SetActualOdd records the odd that came up for entry id.
func (b *BetLog) SetActualOdd(id int, odd float64) error {
	if id < 0 || id >= len(b.entries) {
		return fmt.Errorf("%w: %d", ErrUnknownEntry, id)
	}
	b.entries[id].ActualOdd = odd
	return nil
}

// Entries returns a copy of the entries with profit/loss filled in.
func (b *BetLog) Entries() []BetLogEntry {
	out := make([]BetLogEntry, len(b.entries))
	for i, e := range b.entries {
		e.ProfitLoss = ProfitLoss(e)
		out[i] = e
	}
	return out
}

// ProfitLoss returns the result of one entry. A stake or odd of zero means no
// bet. A round reaching the predicted value pays stake × (prediction − 1);
// otherwise the stake is lost.
func ProfitLoss(e BetLogEntry) float64 {
	return round2(profitLoss(e))
}

func profitLoss(e BetLogEntry) decimal.Decimal {
	stake := decimal.NewFromFloat(e.Stake)
	actual := decimal.NewFromFloat(e.ActualOdd)
	predicted := decimal.NewFromFloat(e.PredictedValue)

	if !stake.IsPositive() || !actual.IsPositive() {
		return decimal.Zero
	}
	if actual.GreaterThanOrEqual(predicted) {
		return stake.Mul(predicted.Sub(decimal.NewFromInt(1)))
	}
	return stake.Neg()
}

// Summary totals the stakes and profit/loss of every entry.
func (b *BetLog) Summary() BetSummary {
	initial := decimal.Zero
	total := decimal.Zero
	for _, e := range b.entries {
		initial = initial.Add(decimal.NewFromFloat(e.Stake))
		total = total.Add(profitLoss(e))
	}
	return BetSummary{
		InitialStake:    round2(initial),
		TotalProfitLoss: round2(total),
		FinalAmount:     round2(initial.Add(total)),
	}
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
