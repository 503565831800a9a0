package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/navaex/portal/internal/db"
	"github.com/navaex/portal/internal/logger"
)

type providerQuote struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	Buy  float64 `json:"buy"`
	Sell float64 `json:"sell"`
}

// fetchQuotes pulls the upstream rate feed.
func fetchQuotes(ctx context.Context, url string) ([]providerQuote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates provider: status %d", resp.StatusCode)
	}
	var payload struct {
		Quotes []providerQuote `json:"quotes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Quotes, nil
}

func storeQuotes(ctx context.Context, quotes []providerQuote) error {
	for _, q := range quotes {
		if q.Code == "" {
			continue
		}
		_, err := db.Conn.Exec(ctx, `
            INSERT INTO currencies (code, name, buy_price, sale_price, updated_at)
            VALUES ($1, COALESCE(NULLIF($2, ''), $1), $3, $4, NOW())
            ON CONFLICT (code) DO UPDATE
            SET buy_price = EXCLUDED.buy_price,
                sale_price = EXCLUDED.sale_price,
                updated_at = NOW()`,
			q.Code, q.Name, q.Buy, q.Sell)
		if err != nil {
			return err
		}
	}
	return nil
}

// StartRefresher polls the upstream provider on an interval and upserts
// the currency table. A no-op when NAVAEX_RATES_URL is unset; admin
// upserts remain the only rate source then.
func StartRefresher(ctx context.Context) {
	url := os.Getenv("NAVAEX_RATES_URL")
	if url == "" {
		logger.L.Info("rates refresher disabled (NAVAEX_RATES_URL not set)")
		return
	}
	interval := 5 * time.Minute
	if v := os.Getenv("RATES_REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			interval = d
		}
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			refreshCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			quotes, err := fetchQuotes(refreshCtx, url)
			if err == nil {
				err = storeQuotes(refreshCtx, quotes)
			}
			cancel()
			if err != nil {
				logger.L.Warn("rate refresh failed", zap.Error(err))
			} else {
				logger.L.Debug("rate table refreshed", zap.Int("quotes", len(quotes)))
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}
