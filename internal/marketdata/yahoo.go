package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portfolioinsight/internal/utils"
)

const defaultYahooBaseURL = "https://query2.finance.yahoo.com"

// YahooClient fetches daily history and quotes from the Yahoo Finance v8
// chart endpoint.
type YahooClient struct {
	cli     *http.Client
	baseURL string
	logger  utils.Logger
}

func NewYahooClient(logger utils.Logger, timeout time.Duration) *YahooClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &YahooClient{
		cli:     &http.Client{Timeout: timeout},
		baseURL: defaultYahooBaseURL,
		logger:  logger,
	}
}

// chartResponse mirrors the subset of the v8 chart payload we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

func (c *YahooClient) fetchChart(ctx context.Context, symbol, rng, interval string) (*chartResponse, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(interval), url.QueryEscape(rng))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "portfolioinsight/1.0")

	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo http %d for %s", resp.StatusCode, symbol)
	}

	var raw chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

// FetchHistory returns the daily bars for symbol over the requested range.
// Days Yahoo reports with a zero close (halts, partial data) are skipped.
func (c *YahooClient) FetchHistory(ctx context.Context, symbol, rng, interval string) ([]Bar, error) {
	raw, err := c.fetchChart(ctx, symbol, rng, interval)
	if err != nil {
		return nil, err
	}
	if len(raw.Chart.Result) == 0 {
		c.logger.Debug("yahoo: no result for %s", symbol)
		return nil, nil
	}

	r := raw.Chart.Result[0]
	if len(r.Indicators.Quote) == 0 {
		return nil, nil
	}
	q := r.Indicators.Quote[0]

	bars := make([]Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(q.Close) || q.Close[i] <= 0 {
			continue
		}
		bar := Bar{
			Date:  time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Close: q.Close[i],
		}
		if i < len(q.Open) {
			bar.Open = q.Open[i]
		}
		if i < len(q.High) {
			bar.High = q.High[i]
		}
		if i < len(q.Low) {
			bar.Low = q.Low[i]
		}
		if i < len(q.Volume) {
			bar.Volume = q.Volume[i]
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// FetchLatestPrice returns the most recent market price for symbol,
// falling back to the last non-zero close when the meta quote is missing.
func (c *YahooClient) FetchLatestPrice(ctx context.Context, symbol string) (float64, error) {
	raw, err := c.fetchChart(ctx, symbol, "1d", "1m")
	if err != nil {
		return 0, err
	}
	if len(raw.Chart.Result) == 0 {
		return 0, ErrNoPrice
	}

	r := raw.Chart.Result[0]
	price := r.Meta.RegularMarketPrice

	if price <= 0 && len(r.Indicators.Quote) > 0 {
		closes := r.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] > 0 {
				price = closes[i]
				break
			}
		}
	}

	if price <= 0 {
		return 0, ErrNoPrice
	}
	return price, nil
}
