package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"portfolioinsight/internal/performance"
	"portfolioinsight/internal/store"
)

// CreatePortfolio handles POST /api/portfolios.
func (s *Server) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Missing or invalid X-User-ID header")
		return
	}

	var req CreatePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	portfolio := &store.Portfolio{
		ID:        uuid.New(),
		UserID:    uid,
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreatePortfolio(r.Context(), portfolio); err != nil {
		s.logger.Error("Failed to create portfolio: %v", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to create portfolio")
		return
	}

	s.respondWithJSON(w, http.StatusCreated, portfolio)
}

// ListPortfolios handles GET /api/portfolios.
func (s *Server) ListPortfolios(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Missing or invalid X-User-ID header")
		return
	}

	portfolios, err := s.store.Portfolios(r.Context(), uid)
	if err != nil {
		s.logger.Error("Failed to list portfolios: %v", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to list portfolios")
		return
	}
	if portfolios == nil {
		portfolios = []store.Portfolio{}
	}
	s.respondWithJSON(w, http.StatusOK, portfolios)
}

// CreateTransaction handles POST /api/portfolios/{id}/transactions.
func (s *Server) CreateTransaction(w http.ResponseWriter, r *http.Request) {
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

	exists, err := s.store.PortfolioExists(r.Context(), portfolioID, uid)
	if err != nil {
		s.logger.Error("Failed to check portfolio: %v", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to check portfolio")
		return
	}
	if !exists {
		s.respondWithError(w, http.StatusNotFound, "Portfolio not found")
		return
	}

	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	asset, err := s.store.EnsureAsset(r.Context(), req.Symbol, req.AssetName)
	if err != nil || asset == nil {
		s.logger.Error("Failed to resolve asset %s: %v", req.Symbol, err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to resolve asset")
		return
	}

	date, _ := time.Parse("2006-01-02", req.Date)
	tx := &performance.Transaction{
		ID:          uuid.New(),
		PortfolioID: portfolioID,
		AssetID:     asset.ID,
		Symbol:      asset.Symbol,
		Kind:        req.Kind,
		Date:        date,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		Amount:      req.Quantity.Mul(req.UnitPrice),
	}
	if err := s.store.CreateTransaction(r.Context(), tx); err != nil {
		s.logger.Error("Failed to create transaction: %v", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to create transaction")
		return
	}

	s.respondWithJSON(w, http.StatusCreated, tx)
}

// ListTransactions handles GET /api/portfolios/{id}/transactions.
func (s *Server) ListTransactions(w http.ResponseWriter, r *http.Request) {
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

	exists, err := s.store.PortfolioExists(r.Context(), portfolioID, uid)
	if err != nil {
		s.logger.Error("Failed to check portfolio: %v", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to check portfolio")
		return
	}
	if !exists {
		s.respondWithError(w, http.StatusNotFound, "Portfolio not found")
		return
	}

	transactions, err := s.store.Transactions(r.Context(), portfolioID, time.Now().UTC())
	if err != nil {
		s.logger.Error("Failed to list transactions: %v", err)
		s.respondWithError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}
	if transactions == nil {
		transactions = []performance.Transaction{}
	}
	s.respondWithJSON(w, http.StatusOK, transactions)
}
