package marketdata

import (
	"context"
	"errors"
	"time"
)

// History range and interval values understood by all gateways.
const (
	RangeMax   = "max"
	Range1Y    = "1y"
	Interval1D = "1d"
)

// ErrNoPrice is returned by FetchLatestPrice when no quote is available
// for the symbol.
var ErrNoPrice = errors.New("marketdata: no price available")

// Bar is one daily OHLC observation for a symbol.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Gateway provides daily price history and latest quotes. An empty history
// means "no data for this symbol", not an error; errors are reserved for
// transport failures.
type Gateway interface {
	FetchHistory(ctx context.Context, symbol, rng, interval string) ([]Bar, error)
	FetchLatestPrice(ctx context.Context, symbol string) (float64, error)
}
