package utils

import (
	"fmt"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port  string `mapstructure:"port"`
	Debug bool   `mapstructure:"debug"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	DSN      string
}

// MarketDataConfig holds market data gateway configuration
type MarketDataConfig struct {
	Provider        string  `mapstructure:"provider"` // "yahoo" or "store"
	TimeoutSeconds  int     `mapstructure:"timeout_seconds"`
	MaxStaleDays    int     `mapstructure:"max_stale_days"`
	RiskFreeRatePct float64 `mapstructure:"risk_free_rate_pct"`
}

// ScraperConfig holds scraper configuration
type ScraperConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	BaseURL  string   `mapstructure:"base_url"`
	Tickers  []string `mapstructure:"tickers"`
	Schedule string   `mapstructure:"schedule"` // cron expression
	Timeout  int      `mapstructure:"timeout"`
	MaxPages int      `mapstructure:"max_pages"`
}

// Config holds all configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	MarketData MarketDataConfig `mapstructure:"marketdata"`
	Scraper    ScraperConfig    `mapstructure:"scraper"`
}

// BuildDSN builds the database connection string
func (c *Config) BuildDSN() {
	c.Database.DSN = fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AddConfigPath(".")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("marketdata.provider", "yahoo")
	viper.SetDefault("marketdata.timeout_seconds", 15)
	viper.SetDefault("marketdata.max_stale_days", 7)
	viper.SetDefault("marketdata.risk_free_rate_pct", 2.0)
	viper.SetDefault("scraper.schedule", "0 18 * * 1-5")
	viper.SetDefault("scraper.max_pages", 10)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Build the DSN string
	config.BuildDSN()

	return &config, nil
}
