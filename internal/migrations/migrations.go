package migrations

import (
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"
)

type Migration struct {
	Version     int
	Description string
	Func        func(*sql.DB) error
}

var Migrations = []Migration{
	{
		Version:     1,
		Description: "Create core schema",
		Func:        createCoreSchema,
	},
	{
		Version:     2,
		Description: "Create daily prices",
		Func:        createDailyPrices,
	},
	// Add future migrations here
}

// CreateMigrationsTable creates the migrations table if it doesn't exist
func CreateMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS schema_migrations (
            version INTEGER PRIMARY KEY,
            description TEXT NOT NULL,
            applied_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
    `)
	return err
}

// RunMigrations runs all pending migrations
func RunMigrations(db *sql.DB) error {
	if err := CreateMigrationsTable(db); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	for _, migration := range Migrations {
		if !applied[migration.Version] {
			log.Infof("Running migration %d: %s", migration.Version, migration.Description)

			if err := migration.Func(db); err != nil {
				return fmt.Errorf("migration %d failed: %w", migration.Version, err)
			}

			_, err := db.Exec(
				"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
				migration.Version,
				migration.Description,
			)
			if err != nil {
				return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
			}

			log.Infof("Migration %d completed successfully", migration.Version)
		}
	}

	return nil
}

func createCoreSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS portfolios (
            id UUID PRIMARY KEY,
            user_id UUID NOT NULL,
            name TEXT NOT NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );

        CREATE TABLE IF NOT EXISTS assets (
            id UUID PRIMARY KEY,
            symbol TEXT NOT NULL UNIQUE,
            name TEXT NOT NULL DEFAULT ''
        );

        CREATE TABLE IF NOT EXISTS transactions (
            id UUID PRIMARY KEY,
            portfolio_id UUID NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
            asset_id UUID NOT NULL REFERENCES assets(id),
            kind TEXT NOT NULL CHECK (kind IN ('BUY', 'SELL')),
            date DATE NOT NULL,
            quantity NUMERIC(20, 8) NOT NULL CHECK (quantity > 0),
            unit_price NUMERIC(20, 8) NOT NULL CHECK (unit_price > 0),
            amount NUMERIC(20, 8) NOT NULL CHECK (amount > 0),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );

        CREATE INDEX IF NOT EXISTS idx_transactions_portfolio_date
            ON transactions (portfolio_id, date);
    `)
	return err
}

func createDailyPrices(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS daily_prices (
            symbol TEXT NOT NULL,
            date DATE NOT NULL,
            open DOUBLE PRECISION NOT NULL DEFAULT 0,
            high DOUBLE PRECISION NOT NULL DEFAULT 0,
            low DOUBLE PRECISION NOT NULL DEFAULT 0,
            close DOUBLE PRECISION NOT NULL,
            volume BIGINT NOT NULL DEFAULT 0,
            PRIMARY KEY (symbol, date)
        );
    `)
	return err
}
