package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"portfolioinsight/internal/performance"
)

// Memory is an in-memory store used by tests and local experimentation.
type Memory struct {
	mu           sync.RWMutex
	portfolios   map[uuid.UUID]Portfolio
	assets       map[uuid.UUID]performance.Asset
	transactions map[uuid.UUID][]performance.Transaction
}

func NewMemory() *Memory {
	return &Memory{
		portfolios:   make(map[uuid.UUID]Portfolio),
		assets:       make(map[uuid.UUID]performance.Asset),
		transactions: make(map[uuid.UUID][]performance.Transaction),
	}
}

var _ performance.Store = (*Memory)(nil)

func (s *Memory) PortfolioExists(ctx context.Context, portfolioID, userID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.portfolios[portfolioID]
	return ok && p.UserID == userID, nil
}

func (s *Memory) Transactions(ctx context.Context, portfolioID uuid.UUID, through time.Time) ([]performance.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []performance.Transaction
	for _, tx := range s.transactions[portfolioID] {
		if tx.Date.After(through) {
			continue
		}
		out = append(out, tx)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (s *Memory) Asset(ctx context.Context, assetID uuid.UUID) (*performance.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if asset, ok := s.assets[assetID]; ok {
		return &asset, nil
	}
	return nil, nil
}

func (s *Memory) AssetBySymbol(ctx context.Context, symbol string) (*performance.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, asset := range s.assets {
		if asset.Symbol == symbol {
			a := asset
			return &a, nil
		}
	}
	return nil, nil
}

func (s *Memory) EnsureAsset(ctx context.Context, symbol, name string) (*performance.Asset, error) {
	if asset, err := s.AssetBySymbol(ctx, symbol); err != nil || asset != nil {
		return asset, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	asset := performance.Asset{ID: uuid.New(), Symbol: symbol, Name: name}
	s.assets[asset.ID] = asset
	return &asset, nil
}

func (s *Memory) CreatePortfolio(ctx context.Context, p *Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.portfolios[p.ID] = *p
	return nil
}

func (s *Memory) Portfolios(ctx context.Context, userID uuid.UUID) ([]Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Portfolio
	for _, p := range s.portfolios {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Memory) CreateTransaction(ctx context.Context, tx *performance.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx.PortfolioID] = append(s.transactions[tx.PortfolioID], *tx)
	return nil
}
