package performance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"portfolioinsight/internal/marketdata"
	"portfolioinsight/internal/utils"
)

// Store is the persistence capability the engine needs. Implementations
// live in internal/store.
type Store interface {
	PortfolioExists(ctx context.Context, portfolioID, userID uuid.UUID) (bool, error)
	Transactions(ctx context.Context, portfolioID uuid.UUID, through time.Time) ([]Transaction, error)
	Asset(ctx context.Context, assetID uuid.UUID) (*Asset, error)
}

// Config tunes the engine.
type Config struct {
	RiskFreeRatePct float64
	MaxStaleDays    int
	FetchTimeout    time.Duration
}

// Service orchestrates performance calculations: it resolves the requested
// period, loads the ledger, builds one valuation series per request and
// derives every metric from it. All state is request-scoped.
type Service struct {
	store      Store
	gateway    marketdata.Gateway
	builder    *SeriesBuilder
	replicator *Replicator
	logger     utils.Logger
	cfg        Config
}

func NewService(store Store, gateway marketdata.Gateway, logger utils.Logger, cfg Config) *Service {
	if cfg.RiskFreeRatePct == 0 {
		cfg.RiskFreeRatePct = DefaultRiskFreeRatePct
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	return &Service{
		store:      store,
		gateway:    gateway,
		builder:    NewSeriesBuilder(gateway, logger, cfg.MaxStaleDays, cfg.FetchTimeout),
		replicator: NewReplicator(cfg.MaxStaleDays),
		logger:     logger,
		cfg:        cfg,
	}
}

const insufficientHistoryMsg = "not enough history to compute some metrics"

// PortfolioPerformance computes the full metric set for a portfolio over
// the requested period.
func (s *Service) PortfolioPerformance(ctx context.Context, portfolioID, userID uuid.UUID, period Period, endDate time.Time) (*Result, error) {
	end := resolveEnd(endDate)

	exists, err := s.store.PortfolioExists(ctx, portfolioID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check portfolio: %w", err)
	}
	if !exists {
		return nil, ErrPortfolioNotFound
	}

	transactions, err := s.store.Transactions(ctx, portfolioID, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	return s.compute(ctx, transactions, period, end, false)
}

// AssetPerformance computes the same metric set for a single asset within
// a portfolio.
func (s *Service) AssetPerformance(ctx context.Context, portfolioID, assetID, userID uuid.UUID, period Period, endDate time.Time) (*Result, error) {
	end := resolveEnd(endDate)

	exists, err := s.store.PortfolioExists(ctx, portfolioID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check portfolio: %w", err)
	}
	if !exists {
		return nil, ErrPortfolioNotFound
	}

	asset, err := s.store.Asset(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load asset: %w", err)
	}
	if asset == nil {
		return nil, ErrAssetNotFound
	}

	all, err := s.store.Transactions(ctx, portfolioID, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	transactions := make([]Transaction, 0, len(all))
	for _, tx := range all {
		if tx.AssetID == asset.ID {
			transactions = append(transactions, tx)
		}
	}

	result, err := s.compute(ctx, transactions, period, end, true)
	if err != nil {
		return nil, err
	}
	result.AssetSymbol = asset.Symbol
	result.AssetName = asset.Name
	return result, nil
}

// compute runs the shared pipeline over a (possibly filtered) ledger.
// costBasisFallback enables the asset-level tiering of the period baseline:
// market value, then cost basis, then not computable.
func (s *Service) compute(ctx context.Context, transactions []Transaction, period Period, end time.Time, costBasisFallback bool) (*Result, error) {
	result := &Result{
		PeriodLabel: period.String(),
		EndDate:     end,
	}

	if len(transactions) == 0 {
		result.Message = "no transactions recorded"
		return result, nil
	}

	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Date.Before(transactions[j].Date)
	})

	start, hasStart := period.Start(end)
	if hasStart {
		if start.After(end) {
			return nil, ErrInvalidBounds
		}
		start = dateOnly(start)
		result.StartDate = &start
	}
	var startPtr *time.Time
	if hasStart {
		startPtr = &start
	}

	result.CurrentValue = s.currentValue(ctx, transactions, end)

	series, err := s.builder.DailyValues(ctx, transactions, startPtr, end)
	if err != nil {
		return nil, err
	}

	firstTx := dateOnly(transactions[0].Date)
	periodStart := firstTx
	if hasStart {
		periodStart = start
	}
	years := yearsBetween(periodStart, end)

	initial, haveInitial := s.initialValue(transactions, series, start, hasStart, costBasisFallback)

	if haveInitial {
		result.Metrics.CAGR = CAGROrSimpleReturn(initial, result.CurrentValue, years)
	}

	flows := buildCashFlows(transactions, start, hasStart, initial, haveInitial, result.CurrentValue, end)
	result.Metrics.XIRR = XIRR(flows)
	result.Metrics.MWR = result.Metrics.XIRR

	result.Metrics.TWR = TWR(series, years)
	result.Metrics.Volatility = Volatility(series)
	result.Metrics.SharpeRatio = SharpeRatio(result.Metrics.CAGR, result.Metrics.Volatility, s.cfg.RiskFreeRatePct)
	result.Metrics.MaxDrawdown = MaxDrawdown(series)

	if hasNilMetric(result.Metrics) {
		result.Message = insufficientHistoryMsg
	}
	return result, nil
}

// initialValue picks the period baseline. For inception the first
// transaction's amount is the baseline, since no prior market value
// exists. Otherwise it is the market value at the period start, with an
// optional cost-basis fallback tier for sparse asset histories.
func (s *Service) initialValue(transactions []Transaction, series []ValuationPoint, start time.Time, hasStart, costBasisFallback bool) (float64, bool) {
	if !hasStart {
		amount, _ := transactions[0].Amount.Float64()
		return amount, amount > 0
	}

	if len(series) > 0 && series[0].Value > 0 {
		return series[0].Value, true
	}

	if costBasisFallback {
		basis := 0.0
		for _, tx := range transactions {
			if dateOnly(tx.Date).After(start) {
				break
			}
			basis += tx.SignedAmount()
		}
		if basis > 0 {
			s.logger.Warn("no market value at period start, falling back to cost basis %.2f", basis)
			return basis, true
		}
	}
	return 0, false
}

// currentValue sums the live market value of the holdings at end. When a
// live quote is unavailable for an asset its average purchase cost stands
// in, logged as a degraded-data condition.
func (s *Service) currentValue(ctx context.Context, transactions []Transaction, end time.Time) float64 {
	holdings := HoldingsAsOf(transactions, "", end)

	total := 0.0
	for sym, qty := range holdings {
		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
		price, err := s.gateway.FetchLatestPrice(fetchCtx, sym)
		cancel()
		if err != nil || price <= 0 {
			price = averageBuyPrice(transactions, sym)
			s.logger.Warn("live quote unavailable for %s, valuing at cost basis %.2f: %v", sym, price, err)
		}
		total += qty * price
	}
	return total
}

func averageBuyPrice(transactions []Transaction, symbol string) float64 {
	var amount, quantity float64
	for _, tx := range transactions {
		if tx.Symbol != symbol || tx.Kind != Buy {
			continue
		}
		a, _ := tx.Amount.Float64()
		q, _ := tx.Quantity.Float64()
		amount += a
		quantity += q
	}
	if quantity <= 0 {
		return 0
	}
	return amount / quantity
}

// buildCashFlows assembles the signed flow series for XIRR: the period
// baseline enters as a notional outflow at the start, in-period trades
// follow investor convention, and the terminal valuation closes the
// series.
func buildCashFlows(transactions []Transaction, start time.Time, hasStart bool, initial float64, haveInitial bool, currentValue float64, end time.Time) []CashFlow {
	var flows []CashFlow
	if hasStart && haveInitial && initial > 0 {
		flows = append(flows, CashFlow{Date: start, Amount: -initial})
	}
	for _, tx := range transactions {
		day := dateOnly(tx.Date)
		if hasStart && !day.After(start) {
			// Already captured by the baseline value.
			continue
		}
		if day.After(end) {
			continue
		}
		flows = append(flows, CashFlow{Date: day, Amount: tx.CashFlowAmount()})
	}
	flows = append(flows, CashFlow{Date: end, Amount: currentValue})

	sort.SliceStable(flows, func(i, j int) bool {
		return flows[i].Date.Before(flows[j].Date)
	})
	return flows
}

// BenchmarkPerformance runs the pipeline over a hypothetical replication
// of an investment schedule into the benchmark symbol.
func (s *Service) BenchmarkPerformance(ctx context.Context, symbol string, schedule []ScheduleEntry, period Period, endDate time.Time) (*Result, error) {
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}
	if len(schedule) == 0 {
		return nil, ErrEmptySchedule
	}

	end := resolveEnd(endDate)
	result := &Result{
		PeriodLabel: period.String(),
		EndDate:     end,
		AssetSymbol: symbol,
	}

	ordered := make([]ScheduleEntry, len(schedule))
	copy(ordered, schedule)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	prices, err := s.builder.PriceSeries(ctx, symbol)
	if err != nil {
		s.logger.Warn("benchmark price history fetch failed for %s: %v", symbol, err)
	}
	if len(prices) == 0 {
		result.Message = "no price data for benchmark " + symbol
		return result, nil
	}

	start, hasStart := period.Start(end)
	if hasStart {
		if start.After(end) {
			return nil, ErrInvalidBounds
		}
		start = dateOnly(start)
		result.StartDate = &start
	}
	var startPtr *time.Time
	if hasStart {
		startPtr = &start
	}

	currentValue, ok := s.replicator.ValueAsOf(prices, ordered, end)
	if !ok {
		result.Message = "no benchmark price at or before " + end.Format("2006-01-02")
		return result, nil
	}
	result.CurrentValue = currentValue

	initial, haveInitial := s.benchmarkInitialValue(prices, ordered, start, hasStart)

	periodStart := dateOnly(ordered[0].Date)
	if hasStart {
		periodStart = start
	}
	years := yearsBetween(periodStart, end)

	if haveInitial {
		result.Metrics.CAGR = CAGROrSimpleReturn(initial, currentValue, years)
	}

	var flows []CashFlow
	if hasStart && haveInitial && initial > 0 {
		flows = append(flows, CashFlow{Date: start, Amount: -initial})
	}
	for _, entry := range ordered {
		day := dateOnly(entry.Date)
		if hasStart && !day.After(start) {
			continue
		}
		if day.After(end) {
			continue
		}
		flows = append(flows, CashFlow{Date: day, Amount: -entry.Amount})
	}
	flows = append(flows, CashFlow{Date: end, Amount: currentValue})
	sort.SliceStable(flows, func(i, j int) bool {
		return flows[i].Date.Before(flows[j].Date)
	})
	result.Metrics.XIRR = XIRR(flows)
	result.Metrics.MWR = result.Metrics.XIRR

	series := s.replicator.Series(prices, ordered, startPtr, end)
	result.Metrics.TWR = TWR(series, years)
	result.Metrics.Volatility = Volatility(series)
	result.Metrics.SharpeRatio = SharpeRatio(result.Metrics.CAGR, result.Metrics.Volatility, s.cfg.RiskFreeRatePct)
	result.Metrics.MaxDrawdown = MaxDrawdown(series)

	if hasNilMetric(result.Metrics) {
		result.Message = insufficientHistoryMsg
	}
	return result, nil
}

// benchmarkInitialValue is the replicated position's baseline: net
// investment for inception, otherwise the replicated market value at the
// period start with a net-investment fallback for schedules predating the
// price history.
func (s *Service) benchmarkInitialValue(prices []PricePoint, schedule []ScheduleEntry, start time.Time, hasStart bool) (float64, bool) {
	if !hasStart {
		net := NetInvestment(schedule)
		return net, net > 0
	}

	if value, ok := s.replicator.ValueAsOf(prices, schedule, start); ok && value > 0 {
		return value, true
	}

	net := 0.0
	for _, entry := range schedule {
		if dateOnly(entry.Date).After(start) {
			continue
		}
		net += entry.Amount
	}
	return net, net > 0
}

// CompareToBenchmark computes the portfolio result and the result of
// replicating the portfolio's own cash-flow schedule into the benchmark,
// then reports per-metric differences.
func (s *Service) CompareToBenchmark(ctx context.Context, portfolioID, userID uuid.UUID, benchmarkSymbol string, period Period, endDate time.Time) (*Comparison, error) {
	end := resolveEnd(endDate)

	portfolioResult, err := s.PortfolioPerformance(ctx, portfolioID, userID, period, end)
	if err != nil {
		return nil, err
	}

	transactions, err := s.store.Transactions(ctx, portfolioID, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	comparison := &Comparison{Portfolio: portfolioResult}

	schedule := make([]ScheduleEntry, 0, len(transactions))
	for _, tx := range transactions {
		schedule = append(schedule, ScheduleEntry{Date: dateOnly(tx.Date), Amount: tx.SignedAmount()})
	}
	if len(schedule) == 0 {
		comparison.Benchmark = &Result{
			PeriodLabel: period.String(),
			EndDate:     end,
			AssetSymbol: benchmarkSymbol,
			Message:     "no transactions to replicate",
		}
		return comparison, nil
	}

	benchmarkResult, err := s.BenchmarkPerformance(ctx, benchmarkSymbol, schedule, period, end)
	if err != nil {
		return nil, err
	}
	comparison.Benchmark = benchmarkResult

	comparison.Differences = MetricDifferences{
		CAGR: diff(portfolioResult.Metrics.CAGR, benchmarkResult.Metrics.CAGR),
		XIRR: diff(portfolioResult.Metrics.XIRR, benchmarkResult.Metrics.XIRR),
		TWR:  diff(portfolioResult.Metrics.TWR, benchmarkResult.Metrics.TWR),
		MWR:  diff(portfolioResult.Metrics.MWR, benchmarkResult.Metrics.MWR),
	}

	// TWR is the fairest head-to-head measure; CAGR fills in when TWR is
	// not computable on either side.
	if d := comparison.Differences.TWR; d != nil {
		out := *d > 0
		comparison.Outperforming = &out
	} else if d := comparison.Differences.CAGR; d != nil {
		out := *d > 0
		comparison.Outperforming = &out
	}
	return comparison, nil
}

func diff(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	return floatPtr(*a - *b)
}

func hasNilMetric(m Metrics) bool {
	return m.CAGR == nil || m.XIRR == nil || m.TWR == nil || m.MWR == nil ||
		m.Volatility == nil || m.SharpeRatio == nil || m.MaxDrawdown == nil
}

func resolveEnd(endDate time.Time) time.Time {
	if endDate.IsZero() {
		return dateOnly(time.Now().UTC())
	}
	return dateOnly(endDate)
}
