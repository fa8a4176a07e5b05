package performance

import (
	"context"
	"sort"
	"sync"
	"time"

	"portfolioinsight/internal/marketdata"
	"portfolioinsight/internal/utils"
)

// anchorBackupDays is how far before a requested period start the builder
// reaches so the first in-period day has a prior value to compute its
// return against.
const anchorBackupDays = 7

// PricePoint is one known closing price for a symbol.
type PricePoint struct {
	Date  time.Time
	Price float64
}

// SeriesBuilder produces daily portfolio valuation series from a
// transaction log and gateway price history. One build feeds every metric
// for a request, so all metrics see an identical series.
type SeriesBuilder struct {
	gateway      marketdata.Gateway
	logger       utils.Logger
	maxStaleDays int
	fetchTimeout time.Duration
}

func NewSeriesBuilder(gateway marketdata.Gateway, logger utils.Logger, maxStaleDays int, fetchTimeout time.Duration) *SeriesBuilder {
	if fetchTimeout <= 0 {
		fetchTimeout = 15 * time.Second
	}
	return &SeriesBuilder{
		gateway:      gateway,
		logger:       logger,
		maxStaleDays: maxStaleDays,
		fetchTimeout: fetchTimeout,
	}
}

// DailyValues walks every calendar day from the period start (or the first
// transaction) through endDate, valuing the holdings reconstructed for that
// day at the last known price on or before it. Weekends and holidays are
// forward-filled from the prior value; days before any price data exist are
// dropped. When startDate is set the series is truncated to it after the
// fill, so the first in-range return is measured against the pre-period
// anchor.
//
// An empty series means "insufficient data", not an error.
func (b *SeriesBuilder) DailyValues(ctx context.Context, transactions []Transaction, startDate *time.Time, endDate time.Time) ([]ValuationPoint, error) {
	if len(transactions) == 0 {
		return nil, nil
	}

	ordered := make([]Transaction, len(transactions))
	copy(ordered, transactions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	end := dateOnly(endDate)
	calcStart := dateOnly(ordered[0].Date)
	if startDate != nil {
		calcStart = dateOnly(*startDate).AddDate(0, 0, -anchorBackupDays)
	}
	if calcStart.After(end) {
		return nil, nil
	}

	histories := b.fetchHistories(ctx, ordered)
	if len(histories) == 0 {
		b.logger.Warn("no price history available for any transacted asset")
		return nil, nil
	}

	var (
		series   []ValuationPoint
		holdings = make(map[string]float64)
		txIdx    = 0
	)
	for day := calcStart; !day.After(end); day = day.AddDate(0, 0, 1) {
		// Apply the transactions dated on or before this day.
		for txIdx < len(ordered) && !dateOnly(ordered[txIdx].Date).After(day) {
			tx := ordered[txIdx]
			q := holdings[tx.Symbol] + tx.SignedQuantity()
			if q < 0 {
				q = 0
			}
			holdings[tx.Symbol] = q
			txIdx++
		}

		value := 0.0
		for sym, qty := range holdings {
			if qty <= quantityEpsilon {
				continue
			}
			price, ok := b.priceAsOf(histories[sym], day)
			if !ok {
				continue
			}
			value += qty * price
		}

		if value == 0 {
			if len(series) == 0 {
				// No valuation history yet; dropping the day avoids a
				// false drawdown from a zero start.
				continue
			}
			value = series[len(series)-1].Value
		}
		series = append(series, ValuationPoint{Date: day, Value: value})
	}

	for i := range series {
		if i == 0 {
			continue
		}
		prev := series[i-1].Value
		if prev > 0 {
			series[i].DailyReturn = series[i].Value/prev - 1
		}
	}

	if startDate != nil {
		cut := dateOnly(*startDate)
		trimmed := series[:0]
		for _, point := range series {
			if !point.Date.Before(cut) {
				trimmed = append(trimmed, point)
			}
		}
		series = trimmed
	}
	return series, nil
}

// PriceSeries fetches and normalizes the full daily close history for one
// symbol. Used by the benchmark replicator, which has no transaction log.
func (b *SeriesBuilder) PriceSeries(ctx context.Context, symbol string) ([]PricePoint, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, b.fetchTimeout)
	defer cancel()

	bars, err := b.gateway.FetchHistory(fetchCtx, symbol, marketdata.RangeMax, marketdata.Interval1D)
	if err != nil {
		return nil, err
	}
	return toPricePoints(bars), nil
}

// fetchHistories requests each asset's full history once, concurrently.
// A failed fetch degrades that asset to "no price data" instead of failing
// the calculation.
func (b *SeriesBuilder) fetchHistories(ctx context.Context, transactions []Transaction) map[string][]PricePoint {
	symbols := make(map[string]struct{})
	for _, tx := range transactions {
		symbols[tx.Symbol] = struct{}{}
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		histories = make(map[string][]PricePoint)
	)
	for sym := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, b.fetchTimeout)
			defer cancel()

			bars, err := b.gateway.FetchHistory(fetchCtx, sym, marketdata.RangeMax, marketdata.Interval1D)
			if err != nil {
				b.logger.Warn("price history fetch failed for %s, excluding from valuation: %v", sym, err)
				return
			}
			points := toPricePoints(bars)
			if len(points) == 0 {
				b.logger.Warn("no price history for %s", sym)
				return
			}

			mu.Lock()
			histories[sym] = points
			mu.Unlock()
		}(sym)
	}
	wg.Wait()
	return histories
}

// priceAsOf finds the last known price on or before day. It never looks
// ahead; before the first known price it reports no data, and prices older
// than the staleness cap are discarded rather than carried forward.
func (b *SeriesBuilder) priceAsOf(points []PricePoint, day time.Time) (float64, bool) {
	if len(points) == 0 {
		return 0, false
	}
	idx := sort.Search(len(points), func(i int) bool {
		return points[i].Date.After(day)
	})
	if idx == 0 {
		return 0, false
	}
	last := points[idx-1]
	if b.maxStaleDays > 0 {
		age := int(day.Sub(last.Date).Hours() / 24)
		if age > b.maxStaleDays {
			return 0, false
		}
	}
	return last.Price, true
}

func toPricePoints(bars []marketdata.Bar) []PricePoint {
	points := make([]PricePoint, 0, len(bars))
	for _, bar := range bars {
		if bar.Close <= 0 {
			continue
		}
		points = append(points, PricePoint{Date: dateOnly(bar.Date), Price: bar.Close})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}
