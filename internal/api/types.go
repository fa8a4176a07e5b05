package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"portfolioinsight/internal/performance"
)

// CreatePortfolioRequest is the body of POST /api/portfolios.
type CreatePortfolioRequest struct {
	Name string `json:"name"`
}

func (r *CreatePortfolioRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// TransactionRequest is the body of POST /api/portfolios/{id}/transactions.
type TransactionRequest struct {
	Kind      performance.TransactionKind `json:"kind"`
	Symbol    string                      `json:"symbol"`
	AssetName string                      `json:"asset_name"`
	Date      string                      `json:"date"` // YYYY-MM-DD
	Quantity  decimal.Decimal             `json:"quantity"`
	UnitPrice decimal.Decimal             `json:"unit_price"`
}

func (r *TransactionRequest) Validate() error {
	switch r.Kind {
	case performance.Buy, performance.Sell:
	default:
		return fmt.Errorf("kind must be BUY or SELL")
	}
	if r.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if !r.Quantity.IsPositive() {
		return fmt.Errorf("quantity must be positive")
	}
	if !r.UnitPrice.IsPositive() {
		return fmt.Errorf("unit_price must be positive")
	}
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD")
	}
	return nil
}

// BenchmarkRequest is the body of POST /api/benchmark/performance.
type BenchmarkRequest struct {
	Symbol   string                 `json:"symbol"`
	Period   string                 `json:"period"`
	EndDate  string                 `json:"end_date,omitempty"` // YYYY-MM-DD
	Schedule []ScheduleEntryRequest `json:"schedule"`
}

// ScheduleEntryRequest is one dated signed amount: Buys positive, Sells
// negative.
type ScheduleEntryRequest struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Amount float64 `json:"amount"`
}

func (r *BenchmarkRequest) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if len(r.Schedule) == 0 {
		return fmt.Errorf("schedule is required")
	}
	for i, entry := range r.Schedule {
		if _, err := time.Parse("2006-01-02", entry.Date); err != nil {
			return fmt.Errorf("schedule[%d].date must be YYYY-MM-DD", i)
		}
		if entry.Amount == 0 {
			return fmt.Errorf("schedule[%d].amount must be non-zero", i)
		}
	}
	return nil
}
