package performance

import (
	"sort"
	"time"
)

// quantityEpsilon absorbs floating-point noise from repeated
// fractional-share arithmetic; holdings at or below it are treated as
// closed positions.
const quantityEpsilon = 1e-9

// HoldingsAsOf replays the transaction log through asOf and returns the
// share quantity held per symbol. Pass a non-empty symbol to restrict the
// replay to one asset. Sells in excess of buys (bad data) clamp the
// position at zero rather than going negative.
func HoldingsAsOf(transactions []Transaction, symbol string, asOf time.Time) map[string]float64 {
	ordered := make([]Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if symbol != "" && tx.Symbol != symbol {
			continue
		}
		if tx.Date.After(asOf) {
			continue
		}
		ordered = append(ordered, tx)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	holdings := make(map[string]float64)
	for _, tx := range ordered {
		q := holdings[tx.Symbol] + tx.SignedQuantity()
		if q < 0 {
			q = 0
		}
		holdings[tx.Symbol] = q
	}

	for sym, q := range holdings {
		if q <= quantityEpsilon {
			delete(holdings, sym)
		}
	}
	return holdings
}
