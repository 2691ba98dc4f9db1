package provider

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the normalized shape returned by all providers.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        int64     `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
}

// Provider fetches single-symbol quotes.
//
// Initialize runs once before any GetQuote and Close runs once after the
// last one; neither overlaps with GetQuote. GetQuote is safe for concurrent use.
type Provider interface {
	Name() string
	Initialize(ctx context.Context) bool
	GetQuote(ctx context.Context, symbol string) (Quote, error)
	Close(ctx context.Context)
	Ready() bool
}

// NewQuote builds a Quote from a price and the reference price the change
// is measured against. The percentage is 0 when reference is not positive.
func NewQuote(symbol, name string, price, reference float64, volume int64, at time.Time) Quote {
	change := price - reference
	return Quote{
		Symbol:        symbol,
		Name:          name,
		Price:         Round2(price),
		Change:        Round2(change),
		ChangePercent: Round2(ChangePercent(change, reference)),
		Volume:        max(volume, 0),
		Timestamp:     at,
	}
}

// ChangePercent returns change/reference*100, or 0 when reference <= 0.
func ChangePercent(change, reference float64) float64 {
	if reference <= 0 {
		return 0
	}
	return change / reference * 100
}

// Round2 rounds v to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
