package performance

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	tradingDaysPerYear = 252

	// DefaultRiskFreeRatePct is the annual risk-free rate assumed when the
	// configuration does not override it.
	DefaultRiskFreeRatePct = 2.0
)

// CAGROrSimpleReturn computes the growth from initial to current as a
// percentage. Windows longer than a year are annualized; shorter windows
// report the simple return to avoid extrapolating short-term moves.
// Returns nil when no meaningful initial value exists.
func CAGROrSimpleReturn(initialValue, currentValue, periodYears float64) *float64 {
	if initialValue <= 0 {
		return nil
	}
	if currentValue <= 0 {
		return floatPtr(-100.0)
	}

	totalReturn := currentValue/initialValue - 1
	if periodYears > 1 {
		annualized := math.Pow(1+totalReturn, 1/periodYears) - 1
		return floatPtr(annualized * 100)
	}
	return floatPtr(totalReturn * 100)
}

// XIRR computes the money-weighted annual return of a dated cash-flow
// series, as a percentage. Flows follow investor convention: negative into
// the investment, positive out. Requires at least two flows; series of
// three or more must mix signs. Returns nil when the solver cannot
// converge.
func XIRR(flows []CashFlow) *float64 {
	if len(flows) < 2 {
		return nil
	}
	if len(flows) > 2 {
		var hasNegative, hasPositive bool
		for _, f := range flows {
			if f.Amount < 0 {
				hasNegative = true
			}
			if f.Amount > 0 {
				hasPositive = true
			}
		}
		if !hasNegative || !hasPositive {
			return nil
		}
	}

	rate, ok := solveIRR(flows)
	if !ok {
		return nil
	}
	return floatPtr(rate * 100)
}

// solveIRR finds the rate where the net present value of the flows is zero,
// via Newton's method with a bisection fallback for the cases where Newton
// diverges (steep or flat NPV curves).
func solveIRR(flows []CashFlow) (float64, bool) {
	const (
		maxIterations = 100
		tolerance     = 1e-6
	)

	npv := func(rate float64) (f, df float64) {
		for _, flow := range flows {
			t := flow.Date.Sub(flows[0].Date).Hours() / 24 / 365
			v := math.Pow(1+rate, t)
			f += flow.Amount / v
			df += -t * flow.Amount / math.Pow(1+rate, t+1)
		}
		return f, df
	}

	rate := 0.1
	for i := 0; i < maxIterations; i++ {
		f, df := npv(rate)
		if math.Abs(f) < tolerance {
			if math.IsNaN(rate) || math.IsInf(rate, 0) {
				return 0, false
			}
			return rate, true
		}
		if df == 0 || math.IsNaN(df) {
			break
		}
		next := rate - f/df
		if next <= -1 {
			// Newton stepped out of the solvable domain.
			break
		}
		rate = next
	}

	// Bisection over a wide bracket.
	lo, hi := -0.9999, 10.0
	fLo, _ := npv(lo)
	fHi, _ := npv(hi)
	if fLo*fHi > 0 {
		return 0, false
	}
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		fMid, _ := npv(mid)
		if math.Abs(fMid) < tolerance {
			return mid, true
		}
		if fLo*fMid < 0 {
			hi = mid
		} else {
			lo, fLo = mid, fMid
		}
	}
	return 0, false
}

// TWR geometrically links the daily returns of the valuation series and
// reports the time-weighted return as a percentage, annualized only when
// the window exceeds a year. Falls back to CAGROrSimpleReturn over the
// boundary values when the series is too short to link.
func TWR(series []ValuationPoint, periodYears float64) *float64 {
	if len(series) < 2 {
		if len(series) == 1 {
			return CAGROrSimpleReturn(series[0].Value, series[0].Value, periodYears)
		}
		return nil
	}

	growth := 1.0
	for _, point := range series[1:] {
		growth *= 1 + point.DailyReturn
	}
	if growth <= 0 {
		return floatPtr(-100.0)
	}

	totalReturn := growth - 1
	if periodYears > 1 {
		annualized := math.Pow(1+totalReturn, 1/periodYears) - 1
		return floatPtr(annualized * 100)
	}
	return floatPtr(totalReturn * 100)
}

// Volatility is the annualized standard deviation of daily returns, as a
// percentage. Nil with fewer than two points; a flat series legitimately
// yields zero, which is distinct from "not computable".
func Volatility(series []ValuationPoint) *float64 {
	if len(series) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(series)-1)
	for _, point := range series[1:] {
		returns = append(returns, point.DailyReturn)
	}
	if len(returns) < 2 {
		// A single return observation has no dispersion.
		return floatPtr(0)
	}

	sd := stat.StdDev(returns, nil)
	return floatPtr(sd * math.Sqrt(tradingDaysPerYear) * 100)
}

// SharpeRatio relates excess return to volatility. Both inputs are
// percentages; nil when volatility is missing or zero.
func SharpeRatio(annualizedReturnPct, volatilityPct *float64, riskFreeRatePct float64) *float64 {
	if annualizedReturnPct == nil || volatilityPct == nil || *volatilityPct == 0 {
		return nil
	}
	return floatPtr((*annualizedReturnPct - riskFreeRatePct) / *volatilityPct)
}

// MaxDrawdown is the largest peak-to-trough decline of the series, as a
// positive percentage between 0 and 100. Nil with fewer than two points.
func MaxDrawdown(series []ValuationPoint) *float64 {
	if len(series) < 2 {
		return nil
	}

	peak := series[0].Value
	worst := 0.0
	for _, point := range series {
		if point.Value > peak {
			peak = point.Value
		}
		if peak > 0 {
			dd := (point.Value - peak) / peak
			if dd < worst {
				worst = dd
			}
		}
	}
	return floatPtr(math.Abs(worst) * 100)
}
