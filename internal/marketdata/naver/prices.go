package naver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/aegis-backtest/internal/marketdata"
)

// FetchDailyPrices fetches daily bars for a symbol from the Naver chart API.
// ⭐ SSOT: 일별 시세 수집은 이 함수에서만
func (c *Client) FetchDailyPrices(ctx context.Context, symbol string, from, to time.Time) ([]marketdata.DailyPrice, error) {
	fromStr := strings.ReplaceAll(from.Format("2006-01-02"), "-", "")
	toStr := strings.ReplaceAll(to.Format("2006-01-02"), "-", "")

	fullURL := fmt.Sprintf(
		"%s/siseJson.naver?symbol=%s&requestType=1&startTime=%s&endTime=%s&timeframe=day",
		c.cfg.ChartBaseURL, symbol, fromStr, toStr,
	)

	resp, err := c.http.Get(ctx, fullURL, c.defaultHeaders())
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	prices, err := parseChartResponse(symbol, string(body))
	if err != nil {
		return nil, fmt.Errorf("parse response failed: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(prices),
	}).Debug("Fetched daily prices")
	return prices, nil
}

// chartRowRe matches one ["YYYYMMDD", open, high, low, close, volume] row.
var chartRowRe = regexp.MustCompile(`\["?(\d{8})"?,\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+)`)

// parseChartResponse parses the quasi-JSON array the chart endpoint returns.
func parseChartResponse(symbol, body string) ([]marketdata.DailyPrice, error) {
	body = strings.ReplaceAll(strings.TrimSpace(body), "'", "\"")

	matches := chartRowRe.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no price rows in response")
	}

	prices := make([]marketdata.DailyPrice, 0, len(matches))
	for _, m := range matches {
		dateStr := m[1][:4] + "-" + m[1][4:6] + "-" + m[1][6:8]
		tradeDate, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}

		prices = append(prices, marketdata.DailyPrice{
			Symbol: symbol,
			Date:   tradeDate,
			Open:   toFloat(m[2]),
			High:   toFloat(m[3]),
			Low:    toFloat(m[4]),
			Close:  toFloat(m[5]),
			Volume: toInt64(m[6]),
		})
	}
	return prices, nil
}

func toFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func toInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
