package scraper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioinsight/internal/utils"
)

func TestNewRowsAfter(t *testing.T) {
	// Pages arrive newest first.
	rows := []priceRow{
		{Date: "10/06/2024", ClosePrice: "1.50"},
		{Date: "09/06/2024", ClosePrice: "1.48"},
		{Date: "08/06/2024", ClosePrice: "1.47"},
	}

	latest := time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC)
	fresh, overlap := newRowsAfter(rows, latest)
	assert.True(t, overlap)
	require.Len(t, fresh, 2)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), fresh[0].date)
	assert.Equal(t, "1.48", fresh[1].row.ClosePrice)

	// Nothing stored yet: everything is new, keep paging.
	fresh, overlap = newRowsAfter(rows, time.Time{})
	assert.False(t, overlap)
	assert.Len(t, fresh, 3)

	// Unparseable dates are skipped without ending pagination.
	fresh, overlap = newRowsAfter([]priceRow{
		{Date: "not-a-date"},
		{Date: "07/06/2024", ClosePrice: "1.46"},
	}, time.Time{})
	assert.False(t, overlap)
	require.Len(t, fresh, 1)
	assert.Equal(t, "1.46", fresh[0].row.ClosePrice)
}

func TestCloseIsIdempotent(t *testing.T) {
	cancelled := 0
	s := &Scraper{
		logger: utils.NewAppLogger(),
		cancel: func() { cancelled++ },
	}

	s.Close()
	s.Close()
	assert.Equal(t, 1, cancelled)
	assert.Nil(t, s.cancel)
}

func TestParseNumber(t *testing.T) {
	assert.InDelta(t, 1234.5, parseNumber("1,234.5"), 1e-9)
	assert.InDelta(t, 1.47, parseNumber(" 1.47 "), 1e-9)
	assert.Zero(t, parseNumber("-"))
	assert.Zero(t, parseNumber(""))
	assert.Zero(t, parseNumber("n/a"))
}
