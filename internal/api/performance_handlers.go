package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"portfolioinsight/internal/performance"
)

// userID reads the calling user from the X-User-ID header. Authentication
// proper lives in front of this service; the header is the resolved
// identity it forwards.
func userID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.Header.Get("X-User-ID"))
}

// endDate reads an optional end_date query parameter. Zero time means
// "today".
func endDate(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("end_date")
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", raw)
}

// GetPortfolioPerformance handles GET /api/portfolios/{id}/performance.
func (s *Server) GetPortfolioPerformance(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid portfolio ID")
		return
	}
	uid, err := userID(r)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Missing or invalid X-User-ID header")
		return
	}
	period, err := performance.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := endDate(r)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}

	result, err := s.engine.PortfolioPerformance(r.Context(), portfolioID, uid, period, end)
	if err != nil {
		s.respondCalcError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, result)
}

// GetAssetPerformance handles GET /api/portfolios/{id}/assets/{assetId}/performance.
func (s *Server) GetAssetPerformance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	portfolioID, err := uuid.Parse(vars["id"])
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid portfolio ID")
		return
	}
	assetID, err := uuid.Parse(vars["assetId"])
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid asset ID")
		return
	}
	uid, err := userID(r)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Missing or invalid X-User-ID header")
		return
	}
	period, err := performance.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := endDate(r)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}

	result, err := s.engine.AssetPerformance(r.Context(), portfolioID, assetID, uid, period, end)
	if err != nil {
		s.respondCalcError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, result)
}

// PostBenchmarkPerformance handles POST /api/benchmark/performance.
func (s *Server) PostBenchmarkPerformance(w http.ResponseWriter, r *http.Request) {
	var req BenchmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	period, err := performance.ParsePeriod(req.Period)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var end time.Time
	if req.EndDate != "" {
		if end, err = time.Parse("2006-01-02", req.EndDate); err != nil {
			s.respondWithError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
			return
		}
	}

	schedule := make([]performance.ScheduleEntry, 0, len(req.Schedule))
	for _, entry := range req.Schedule {
		date, _ := time.Parse("2006-01-02", entry.Date)
		schedule = append(schedule, performance.ScheduleEntry{Date: date, Amount: entry.Amount})
	}

	result, err := s.engine.BenchmarkPerformance(r.Context(), req.Symbol, schedule, period, end)
	if err != nil {
		s.respondCalcError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, result)
}

// GetBenchmarkComparison handles GET /api/portfolios/{id}/benchmark?symbol=.
func (s *Server) GetBenchmarkComparison(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid portfolio ID")
		return
	}
	uid, err := userID(r)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Missing or invalid X-User-ID header")
		return
	}
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		s.respondWithError(w, http.StatusBadRequest, "symbol query parameter is required")
		return
	}
	period, err := performance.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := endDate(r)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}

	comparison, err := s.engine.CompareToBenchmark(r.Context(), portfolioID, uid, symbol, period, end)
	if err != nil {
		s.respondCalcError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, comparison)
}

// respondCalcError maps engine errors to HTTP statuses.
func (s *Server) respondCalcError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, performance.ErrPortfolioNotFound),
		errors.Is(err, performance.ErrAssetNotFound):
		s.respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, performance.ErrInvalidPeriod),
		errors.Is(err, performance.ErrInvalidSymbol),
		errors.Is(err, performance.ErrEmptySchedule),
		errors.Is(err, performance.ErrInvalidBounds):
		s.respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("Performance calculation failed: %v", err)
		s.respondWithError(w, http.StatusInternalServerError, "Performance calculation failed")
	}
}
