package performance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind is the direction of a recorded trade.
type TransactionKind string

const (
	Buy  TransactionKind = "BUY"
	Sell TransactionKind = "SELL"
)

// Transaction is one immutable ledger entry for a portfolio asset.
// Quantity, UnitPrice and Amount are always stored positive; direction is
// carried by Kind.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	PortfolioID uuid.UUID       `json:"portfolio_id"`
	AssetID     uuid.UUID       `json:"asset_id"`
	Symbol      string          `json:"symbol"`
	Kind        TransactionKind `json:"kind"`
	Date        time.Time       `json:"date"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"` // quantity x unit price
}

// SignedQuantity returns the share delta this transaction applies:
// positive for a Buy, negative for a Sell.
func (t Transaction) SignedQuantity() float64 {
	q, _ := t.Quantity.Float64()
	if t.Kind == Sell {
		return -q
	}
	return q
}

// SignedAmount returns the capital delta in schedule convention: Buys
// positive (capital committed), Sells negative (capital returned).
func (t Transaction) SignedAmount() float64 {
	a, _ := t.Amount.Float64()
	if t.Kind == Sell {
		return -a
	}
	return a
}

// CashFlowAmount returns the amount in investor cash-flow convention:
// negative when money leaves the investor's pocket (Buy), positive when it
// comes back (Sell).
func (t Transaction) CashFlowAmount() float64 {
	return -t.SignedAmount()
}

// Asset is the metadata the engine needs about one instrument.
type Asset struct {
	ID     uuid.UUID `json:"id"`
	Symbol string    `json:"symbol"`
	Name   string    `json:"name"`
}

// ValuationPoint is the portfolio market value for one calendar day.
// DailyReturn is the fractional change from the previous day's value,
// zero on the first day and on filled days.
type ValuationPoint struct {
	Date        time.Time `json:"date"`
	Value       float64   `json:"value"`
	DailyReturn float64   `json:"daily_return"`
}

// CashFlow is one dated signed flow for money-weighted return calculations.
// Negative means money into the investment, positive means money out.
type CashFlow struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// ScheduleEntry is one dated investment in schedule convention: Buys
// positive, Sells negative.
type ScheduleEntry struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// Metrics holds the computed return and risk figures, all expressed as
// percentages. A nil field means "not computable from the available
// history", which is distinct from zero.
type Metrics struct {
	CAGR        *float64 `json:"cagr"`
	XIRR        *float64 `json:"xirr"`
	TWR         *float64 `json:"twr"`
	MWR         *float64 `json:"mwr"`
	Volatility  *float64 `json:"volatility"`
	SharpeRatio *float64 `json:"sharpe_ratio"`
	MaxDrawdown *float64 `json:"max_drawdown"`
}

// Result is the outcome of one performance calculation.
type Result struct {
	PeriodLabel  string     `json:"period"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      time.Time  `json:"end_date"`
	CurrentValue float64    `json:"current_value"`
	Metrics      Metrics    `json:"metrics"`
	AssetSymbol  string     `json:"asset_symbol,omitempty"`
	AssetName    string     `json:"asset_name,omitempty"`
	Message      string     `json:"message,omitempty"`
}

// MetricDifferences holds portfolio-minus-benchmark deltas for the return
// metrics, nil where either side was not computable.
type MetricDifferences struct {
	CAGR *float64 `json:"cagr"`
	XIRR *float64 `json:"xirr"`
	TWR  *float64 `json:"twr"`
	MWR  *float64 `json:"mwr"`
}

// Comparison is the outcome of a portfolio-vs-benchmark calculation.
type Comparison struct {
	Portfolio     *Result           `json:"portfolio"`
	Benchmark     *Result           `json:"benchmark"`
	Differences   MetricDifferences `json:"differences"`
	Outperforming *bool             `json:"outperforming"`
}

func floatPtr(v float64) *float64 {
	return &v
}
