package performance

import "errors"

// Validation and identity errors surfaced to callers. "Not enough history"
// conditions are never errors; they come back as nil metrics with a message
// on the Result.
var (
	ErrPortfolioNotFound = errors.New("portfolio not found")
	ErrAssetNotFound     = errors.New("asset not found")
	ErrInvalidPeriod     = errors.New("invalid period")
	ErrInvalidSymbol     = errors.New("benchmark symbol is required")
	ErrEmptySchedule     = errors.New("investment schedule is empty")
	ErrInvalidBounds     = errors.New("end date precedes period start")
)
