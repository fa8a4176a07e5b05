package performance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	for _, label := range []string{"3m", "6m", "1y", "2y", "3y", "5y", "ytd", "inception"} {
		p, err := ParsePeriod(label)
		require.NoError(t, err)
		assert.Equal(t, label, p.String())
	}

	p, err := ParsePeriod("  1Y ")
	require.NoError(t, err)
	assert.Equal(t, Period1Y, p)

	p, err = ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodInception, p)

	_, err = ParsePeriod("4y")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = ParsePeriod("weekly")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestPeriodStart(t *testing.T) {
	end := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		period Period
		want   time.Time
	}{
		{Period3M, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{Period6M, time.Date(2023, 12, 15, 0, 0, 0, 0, time.UTC)},
		{Period1Y, time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)},
		{Period2Y, time.Date(2022, 6, 15, 0, 0, 0, 0, time.UTC)},
		{Period3Y, time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC)},
		{Period5Y, time.Date(2019, 6, 15, 0, 0, 0, 0, time.UTC)},
		{PeriodYTD, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		start, ok := tc.period.Start(end)
		require.True(t, ok, tc.period)
		assert.Equal(t, tc.want, start, tc.period)
	}

	_, ok := PeriodInception.Start(end)
	assert.False(t, ok)
}

func TestYearsBetween(t *testing.T) {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.InDelta(t, 2.0, yearsBetween(start, start.AddDate(2, 0, 0)), 0.01)
	assert.InDelta(t, 0.5, yearsBetween(start, start.AddDate(0, 6, 0)), 0.01)
}
