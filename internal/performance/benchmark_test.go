package performance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pricePoints(start time.Time, prices ...float64) []PricePoint {
	out := make([]PricePoint, 0, len(prices))
	for i, p := range prices {
		out = append(out, PricePoint{Date: start.AddDate(0, 0, i), Price: p})
	}
	return out
}

func TestNetInvestmentSumsSignedAmounts(t *testing.T) {
	schedule := []ScheduleEntry{
		{Date: day(0), Amount: 1000},
		{Date: day(30), Amount: -800},
	}
	// A buy and a partial sell net out; summing magnitudes would report
	// 1800 and understate the benchmark's return.
	assert.InDelta(t, 200, NetInvestment(schedule), 1e-9)

	assert.Zero(t, NetInvestment(nil))
}

func TestBenchmarkReturnOnNetInvestment(t *testing.T) {
	// Net 200 invested, worth 300 a year later: +50%, not a loss against
	// the 1800 gross turnover.
	cagr := CAGROrSimpleReturn(200, 300, 1.0)
	require.NotNil(t, cagr)
	assert.InDelta(t, 50, *cagr, 0.5)
}

func TestSharesAsOf(t *testing.T) {
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	prices := pricePoints(base, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 120)
	r := NewReplicator(7)

	schedule := []ScheduleEntry{
		{Date: base, Amount: 1000},
		{Date: base.AddDate(0, 0, 10), Amount: -600},
	}

	assert.InDelta(t, 10, r.SharesAsOf(prices, schedule, base), 1e-9)
	assert.InDelta(t, 10, r.SharesAsOf(prices, schedule, base.AddDate(0, 0, 9)), 1e-9)
	// The sell executes at 120: 10 - 600/120 = 5 shares.
	assert.InDelta(t, 5, r.SharesAsOf(prices, schedule, base.AddDate(0, 0, 10)), 1e-9)

	// Entries before any price data are skipped, not valued at a future
	// price.
	early := []ScheduleEntry{{Date: base.AddDate(0, 0, -30), Amount: 1000}}
	assert.Zero(t, r.SharesAsOf(prices, early, base.AddDate(0, 0, 5)))

	// Overselling clamps at zero.
	oversold := []ScheduleEntry{
		{Date: base, Amount: 1000},
		{Date: base.AddDate(0, 0, 1), Amount: -5000},
	}
	assert.Zero(t, r.SharesAsOf(prices, oversold, base.AddDate(0, 0, 5)))
}

func TestValueAsOf(t *testing.T) {
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	prices := pricePoints(base, 100, 110)
	r := NewReplicator(7)

	schedule := []ScheduleEntry{{Date: base, Amount: 1000}}

	value, ok := r.ValueAsOf(prices, schedule, base.AddDate(0, 0, 1))
	require.True(t, ok)
	assert.InDelta(t, 1100, value, 1e-9)

	_, ok = r.ValueAsOf(prices, schedule, base.AddDate(0, 0, -1))
	assert.False(t, ok)
}

func TestReplicatorSeries(t *testing.T) {
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	prices := pricePoints(base, 100, 110, 110, 121)
	r := NewReplicator(7)

	schedule := []ScheduleEntry{{Date: base, Amount: 1000}}
	series := r.Series(prices, schedule, nil, base.AddDate(0, 0, 3))
	require.Len(t, series, 4)

	assert.InDelta(t, 1000, series[0].Value, 1e-9)
	assert.InDelta(t, 1100, series[1].Value, 1e-9)
	assert.InDelta(t, 1100, series[2].Value, 1e-9)
	assert.InDelta(t, 1210, series[3].Value, 1e-9)

	assert.InDelta(t, 0.10, series[1].DailyReturn, 1e-9)
	assert.Zero(t, series[2].DailyReturn)
	assert.InDelta(t, 0.10, series[3].DailyReturn, 1e-9)
}

func TestReplicatorSeriesEmptyInputs(t *testing.T) {
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	r := NewReplicator(7)

	assert.Nil(t, r.Series(nil, []ScheduleEntry{{Date: base, Amount: 1000}}, nil, base))
	assert.Nil(t, r.Series(pricePoints(base, 100), nil, nil, base))
}
