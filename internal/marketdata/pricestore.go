package marketdata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"portfolioinsight/internal/utils"
)

// StoreGateway serves price history from the daily_prices table populated
// by the scraper. It is the gateway of choice for symbols Yahoo does not
// cover (local exchanges the scraper collects).
type StoreGateway struct {
	db     *sql.DB
	logger utils.Logger
}

func NewStoreGateway(db *sql.DB, logger utils.Logger) *StoreGateway {
	return &StoreGateway{db: db, logger: logger}
}

func (g *StoreGateway) FetchHistory(ctx context.Context, symbol, rng, interval string) ([]Bar, error) {
	query := `
		SELECT date, open, high, low, close, volume
		FROM daily_prices
		WHERE symbol = $1
		ORDER BY date ASC
	`
	args := []interface{}{symbol}

	if rng != "" && rng != RangeMax {
		since, err := rangeStart(rng)
		if err != nil {
			return nil, err
		}
		query = `
			SELECT date, open, high, low, close, volume
			FROM daily_prices
			WHERE symbol = $1 AND date >= $2
			ORDER BY date ASC
		`
		args = append(args, since)
	}

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily prices for %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []Bar
	for rows.Next() {
		var b Bar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan daily price: %w", err)
		}
		b.Date = b.Date.UTC().Truncate(24 * time.Hour)
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func (g *StoreGateway) FetchLatestPrice(ctx context.Context, symbol string) (float64, error) {
	var price float64
	err := g.db.QueryRowContext(ctx, `
		SELECT close
		FROM daily_prices
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT 1
	`, symbol).Scan(&price)
	if err == sql.ErrNoRows {
		return 0, ErrNoPrice
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query latest price for %s: %w", symbol, err)
	}
	if price <= 0 {
		return 0, ErrNoPrice
	}
	return price, nil
}

func rangeStart(rng string) (time.Time, error) {
	now := time.Now().UTC()
	switch rng {
	case "1mo":
		return now.AddDate(0, -1, 0), nil
	case "3mo":
		return now.AddDate(0, -3, 0), nil
	case "6mo":
		return now.AddDate(0, -6, 0), nil
	case Range1Y:
		return now.AddDate(-1, 0, 0), nil
	case "2y":
		return now.AddDate(-2, 0, 0), nil
	case "5y":
		return now.AddDate(-5, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported history range %q", rng)
	}
}
