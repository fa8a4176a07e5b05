package main

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"portfolioinsight/internal/api"
	"portfolioinsight/internal/marketdata"
	"portfolioinsight/internal/migrations"
	"portfolioinsight/internal/performance"
	"portfolioinsight/internal/store"
	"portfolioinsight/internal/utils"
	"portfolioinsight/scraper"
)

func main() {
	logger := utils.NewAppLogger()

	config, err := utils.LoadConfig("configs")
	if err != nil {
		logger.Error("Failed to load config: %v", err)
		return
	}
	logger.SetDebug(config.Server.Debug)

	db, err := sql.Open("postgres", config.Database.DSN)
	if err != nil {
		logger.Error("Failed to open database: %v", err)
		return
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database: %v", err)
		return
	}
	logger.Info("Connected to database")

	if err := migrations.RunMigrations(db); err != nil {
		logger.Error("Failed to run migrations: %v", err)
		return
	}

	// Gateway selection: Yahoo for API-covered symbols, the scraped price
	// store for local exchanges.
	var gateway marketdata.Gateway
	timeout := time.Duration(config.MarketData.TimeoutSeconds) * time.Second
	switch config.MarketData.Provider {
	case "store":
		gateway = marketdata.NewStoreGateway(db, logger)
	default:
		gateway = marketdata.NewYahooClient(logger, timeout)
	}

	repo := store.NewPostgres(db)
	engine := performance.NewService(repo, gateway, logger, performance.Config{
		RiskFreeRatePct: config.MarketData.RiskFreeRatePct,
		MaxStaleDays:    config.MarketData.MaxStaleDays,
		FetchTimeout:    timeout,
	})

	var sc *scraper.Scraper
	if config.Scraper.Enabled {
		sc = scraper.NewScraper(logger, config, db)
	}

	server := api.NewServer(logger, config, engine, repo, sc)
	if err := server.Start(); err != nil {
		logger.Error("Server exited with error: %v", err)
	}
}
