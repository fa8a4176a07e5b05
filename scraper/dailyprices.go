package scraper

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"portfolioinsight/internal/utils"
)

// priceRow is one scraped table row, as extracted from the page.
type priceRow struct {
	Date       string
	OpenPrice  string
	HighPrice  string
	LowPrice   string
	ClosePrice string
	Volume     string
}

// Scraper collects daily OHLC rows from exchange price pages that offer no
// API and stores them in the daily_prices table, where the store-backed
// market data gateway reads them.
type Scraper struct {
	logger utils.Logger
	config *utils.Config
	db     *sql.DB
	timer  *utils.OpTimer
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScraper(logger utils.Logger, config *utils.Config, db *sql.DB) *Scraper {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.Flag("window-size", "1920,1080"),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			logger.Debug(format, args...)
		}),
	)

	return &Scraper{
		logger: logger,
		config: config,
		db:     db,
		timer:  utils.NewOpTimer(),
		ctx:    ctx,
		cancel: func() {
			ctxCancel()
			allocCancel()
		},
	}
}

// Refresh scrapes every configured ticker and upserts new rows. Failures
// on one ticker do not stop the rest.
func (s *Scraper) Refresh() error {
	tickers := s.config.Scraper.Tickers
	if len(tickers) == 0 {
		s.logger.Debug("scraper: no tickers configured, nothing to do")
		return nil
	}

	s.logger.Info("Refreshing daily prices for %d tickers", len(tickers))

	var failed int
	for i, ticker := range tickers {
		if i > 0 {
			time.Sleep(3 * time.Second)
		}

		err := s.timer.Time("scrape "+ticker, func() error {
			return s.refreshTicker(ticker)
		})
		if err != nil {
			failed++
			s.logger.Error("Failed to refresh %s: %v", ticker, err)
		}
	}

	s.logger.Info("Price refresh completed, %d/%d tickers failed", failed, len(tickers))
	s.logger.Debug("%s", s.timer.Report())

	if failed == len(tickers) {
		return fmt.Errorf("all %d tickers failed to refresh", failed)
	}
	return nil
}

// refreshTicker walks the price table page by page, newest first, until it
// reaches a date already stored, runs out of rows, or hits the configured
// page cap.
func (s *Scraper) refreshTicker(ticker string) error {
	latest, err := s.latestDate(ticker)
	if err != nil {
		return err
	}

	maxPages := s.config.Scraper.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	inserted := 0
	for page := 1; page <= maxPages; page++ {
		if page > 1 {
			time.Sleep(3 * time.Second)
		}

		rows, err := s.scrapePage(ticker, page)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			s.logger.Debug("No rows scraped for %s on page %d", ticker, page)
			break
		}

		fresh, overlap := newRowsAfter(rows, latest)
		for _, row := range fresh {
			if err := s.saveRow(ticker, row.date, row.row); err != nil {
				return err
			}
			inserted++
		}
		if overlap {
			s.logger.Debug("Reached stored history for %s on page %d", ticker, page)
			break
		}
	}

	s.logger.Info("Stored %d new price rows for %s", inserted, ticker)
	return nil
}

type datedRow struct {
	date time.Time
	row  priceRow
}

// newRowsAfter parses a scraped page (newest first) and keeps the rows
// dated strictly after latest. The second return reports whether the page
// reached into already-stored history, which ends pagination. Rows with
// unparseable dates are skipped.
func newRowsAfter(rows []priceRow, latest time.Time) ([]datedRow, bool) {
	var fresh []datedRow
	for _, row := range rows {
		date, err := time.Parse("02/01/2006", row.Date)
		if err != nil {
			continue
		}
		if !latest.IsZero() && !date.After(latest) {
			return fresh, true
		}
		fresh = append(fresh, datedRow{date: date, row: row})
	}
	return fresh, false
}

func (s *Scraper) latestDate(ticker string) (time.Time, error) {
	var latest time.Time
	err := s.db.QueryRow(`
		SELECT date FROM daily_prices WHERE symbol = $1 ORDER BY date DESC LIMIT 1
	`, ticker).Scan(&latest)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest price date for %s: %w", ticker, err)
	}
	return latest, nil
}

func (s *Scraper) saveRow(ticker string, date time.Time, row priceRow) error {
	_, err := s.db.Exec(`
		INSERT INTO daily_prices (symbol, date, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, date) DO UPDATE
		SET open = EXCLUDED.open, high = EXCLUDED.high,
		    low = EXCLUDED.low, close = EXCLUDED.close,
		    volume = EXCLUDED.volume
	`, ticker, date,
		parseNumber(row.OpenPrice), parseNumber(row.HighPrice),
		parseNumber(row.LowPrice), parseNumber(row.ClosePrice),
		int64(parseNumber(row.Volume)))
	if err != nil {
		return fmt.Errorf("failed to save price row for %s: %w", ticker, err)
	}
	return nil
}

func (s *Scraper) scrapePage(ticker string, page int) ([]priceRow, error) {
	timeout := time.Duration(s.config.Scraper.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("%s?currLanguage=en&companyCode=%s&activeTab=0&pageNumber=%d", s.config.Scraper.BaseURL, ticker, page)

	err := chromedp.Run(ctx,
		network.Enable(),
		network.SetCacheDisabled(true),
		emulation.SetUserAgentOverride("Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0 Safari/537.36"),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.WaitVisible("#dispTable", chromedp.ByID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load price page for %s: %w", ticker, err)
	}

	var rows []priceRow
	err = chromedp.Run(ctx,
		chromedp.Evaluate(`
			(() => {
				const rows = document.querySelectorAll("#dispTable tbody tr");
				if (!rows || rows.length === 0) return null;

				const data = [];
				for (const row of rows) {
					const cells = row.querySelectorAll("td");
					if (cells.length < 10) continue;

					data.push({
						Date: cells[9].textContent.trim(),
						OpenPrice: cells[7].textContent.trim(),
						HighPrice: cells[6].textContent.trim(),
						LowPrice: cells[5].textContent.trim(),
						ClosePrice: cells[8].textContent.trim(),
						Volume: cells[1].textContent.trim()
					});
				}
				return data.length > 0 ? data : null;
			})()
		`, &rows),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to extract price rows for %s: %w", ticker, err)
	}
	return rows, nil
}

// Close tears down the browser. Cancelling the chromedp context shuts the
// browser process down; Close is safe to call more than once.
func (s *Scraper) Close() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func parseNumber(raw string) float64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" || cleaned == "-" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}
