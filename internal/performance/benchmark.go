package performance

import (
	"sort"
	"time"
)

// Replicator models a hypothetical investor who mirrors an investment
// schedule into a single benchmark instrument: every scheduled amount buys
// (or sells) shares at that day's benchmark price.
type Replicator struct {
	maxStaleDays int
}

func NewReplicator(maxStaleDays int) *Replicator {
	return &Replicator{maxStaleDays: maxStaleDays}
}

// NetInvestment is the net capital committed by the schedule. Amounts are
// already sign-correct (Buys positive, Sells negative), so a plain sum
// gives net investment; taking magnitudes here would inflate the cost base.
func NetInvestment(schedule []ScheduleEntry) float64 {
	total := 0.0
	for _, entry := range schedule {
		total += entry.Amount
	}
	return total
}

// SharesAsOf accumulates the hypothetical share count through asOf,
// skipping entries with no available price. Sells in excess of the
// accumulated shares clamp at zero, mirroring holdings reconstruction.
func (r *Replicator) SharesAsOf(prices []PricePoint, schedule []ScheduleEntry, asOf time.Time) float64 {
	ordered := make([]ScheduleEntry, len(schedule))
	copy(ordered, schedule)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	shares := 0.0
	for _, entry := range ordered {
		day := dateOnly(entry.Date)
		if day.After(dateOnly(asOf)) {
			break
		}
		price, ok := r.priceAsOf(prices, day)
		if !ok {
			continue
		}
		shares += entry.Amount / price
		if shares < 0 {
			shares = 0
		}
	}
	return shares
}

// ValueAsOf is the market value of the replicated position at asOf: the
// accumulated shares times the last known price. The boolean reports
// whether a price was available at all.
func (r *Replicator) ValueAsOf(prices []PricePoint, schedule []ScheduleEntry, asOf time.Time) (float64, bool) {
	price, ok := r.priceAsOf(prices, dateOnly(asOf))
	if !ok {
		return 0, false
	}
	return r.SharesAsOf(prices, schedule, asOf) * price, true
}

// Series builds the daily valuation series of the replicated position from
// the first scheduled entry (or startDate, with the usual anchor backup)
// through endDate. The output feeds the same metric calculators as a real
// portfolio.
func (r *Replicator) Series(prices []PricePoint, schedule []ScheduleEntry, startDate *time.Time, endDate time.Time) []ValuationPoint {
	if len(schedule) == 0 || len(prices) == 0 {
		return nil
	}

	ordered := make([]ScheduleEntry, len(schedule))
	copy(ordered, schedule)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	end := dateOnly(endDate)
	calcStart := dateOnly(ordered[0].Date)
	if startDate != nil {
		calcStart = dateOnly(*startDate).AddDate(0, 0, -anchorBackupDays)
	}
	if calcStart.After(end) {
		return nil
	}

	var (
		series []ValuationPoint
		shares = 0.0
		idx    = 0
	)
	for day := calcStart; !day.After(end); day = day.AddDate(0, 0, 1) {
		for idx < len(ordered) && !dateOnly(ordered[idx].Date).After(day) {
			entry := ordered[idx]
			idx++
			price, ok := r.priceAsOf(prices, dateOnly(entry.Date))
			if !ok {
				continue
			}
			shares += entry.Amount / price
			if shares < 0 {
				shares = 0
			}
		}

		value := 0.0
		if shares > quantityEpsilon {
			if price, ok := r.priceAsOf(prices, day); ok {
				value = shares * price
			}
		}
		if value == 0 {
			if len(series) == 0 {
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
	return series
}

func (r *Replicator) priceAsOf(points []PricePoint, day time.Time) (float64, bool) {
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
	if r.maxStaleDays > 0 {
		age := int(day.Sub(last.Date).Hours() / 24)
		if age > r.maxStaleDays {
			return 0, false
		}
	}
	return last.Price, true
}
