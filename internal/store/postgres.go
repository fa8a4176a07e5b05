package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"portfolioinsight/internal/performance"
)

// Postgres implements performance.Store plus the portfolio and
// transaction management the API layer needs.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

var _ performance.Store = (*Postgres)(nil)

func (s *Postgres) PortfolioExists(ctx context.Context, portfolioID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM portfolios WHERE id = $1 AND user_id = $2)
	`, portfolioID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check portfolio: %w", err)
	}
	return exists, nil
}

// Transactions returns the full ledger of a portfolio through the given
// date, oldest first. The whole log is loaded, not just the requested
// period, because holdings before a period start depend on every earlier
// trade.
func (s *Postgres) Transactions(ctx context.Context, portfolioID uuid.UUID, through time.Time) ([]performance.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.portfolio_id, t.asset_id, a.symbol, t.kind, t.date,
		       t.quantity, t.unit_price, t.amount
		FROM transactions t
		JOIN assets a ON a.id = t.asset_id
		WHERE t.portfolio_id = $1 AND t.date <= $2
		ORDER BY t.date ASC, t.id ASC
	`, portfolioID, through)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []performance.Transaction
	for rows.Next() {
		var (
			tx                          performance.Transaction
			quantity, unitPrice, amount string
		)
		if err := rows.Scan(&tx.ID, &tx.PortfolioID, &tx.AssetID, &tx.Symbol,
			&tx.Kind, &tx.Date, &quantity, &unitPrice, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if tx.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("bad quantity for transaction %s: %w", tx.ID, err)
		}
		if tx.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("bad unit price for transaction %s: %w", tx.ID, err)
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("bad amount for transaction %s: %w", tx.ID, err)
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func (s *Postgres) Asset(ctx context.Context, assetID uuid.UUID) (*performance.Asset, error) {
	var asset performance.Asset
	err := s.db.QueryRowContext(ctx, `
		SELECT id, symbol, name FROM assets WHERE id = $1
	`, assetID).Scan(&asset.ID, &asset.Symbol, &asset.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query asset: %w", err)
	}
	return &asset, nil
}

func (s *Postgres) AssetBySymbol(ctx context.Context, symbol string) (*performance.Asset, error) {
	var asset performance.Asset
	err := s.db.QueryRowContext(ctx, `
		SELECT id, symbol, name FROM assets WHERE symbol = $1
	`, symbol).Scan(&asset.ID, &asset.Symbol, &asset.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query asset: %w", err)
	}
	return &asset, nil
}

// EnsureAsset returns the asset for symbol, creating it when unknown.
func (s *Postgres) EnsureAsset(ctx context.Context, symbol, name string) (*performance.Asset, error) {
	if asset, err := s.AssetBySymbol(ctx, symbol); err != nil || asset != nil {
		return asset, err
	}
	asset := &performance.Asset{ID: uuid.New(), Symbol: symbol, Name: name}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assets (id, symbol, name) VALUES ($1, $2, $3)
		ON CONFLICT (symbol) DO NOTHING
	`, asset.ID, asset.Symbol, asset.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to insert asset: %w", err)
	}
	// Re-read in case a concurrent insert won the conflict.
	return s.AssetBySymbol(ctx, symbol)
}

func (s *Postgres) CreatePortfolio(ctx context.Context, p *Portfolio) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO portfolios (id, user_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`, p.ID, p.UserID, p.Name, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert portfolio: %w", err)
	}
	return nil
}

func (s *Postgres) Portfolios(ctx context.Context, userID uuid.UUID) ([]Portfolio, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, created_at
		FROM portfolios
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []Portfolio
	for rows.Next() {
		var p Portfolio
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, p)
	}
	return portfolios, rows.Err()
}

func (s *Postgres) CreateTransaction(ctx context.Context, tx *performance.Transaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, portfolio_id, asset_id, kind, date, quantity, unit_price, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, tx.ID, tx.PortfolioID, tx.AssetID, tx.Kind, tx.Date,
		tx.Quantity.String(), tx.UnitPrice.String(), tx.Amount.String())
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}
