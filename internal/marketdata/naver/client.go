package naver

import (
	"github.com/wonny/aegis-backtest/pkg/config"
	"github.com/wonny/aegis-backtest/pkg/httputil"
	"github.com/wonny/aegis-backtest/pkg/logger"
)

// Client fetches daily market data from Naver Finance.
// ⭐ SSOT: Naver Finance 호출은 이 패키지를 통해서만
type Client struct {
	http   *httputil.Client
	cfg    config.NaverConfig
	logger *logger.Logger
}

// NewClient creates a rate-limited Naver Finance client.
func NewClient(cfg config.NaverConfig, log *logger.Logger) *Client {
	return &Client{
		http:   httputil.New(log).WithRateLimit(cfg.RatePerSec),
		cfg:    cfg,
		logger: log.WithField("module", "naver"),
	}
}

// defaultHeaders mimic a browser; the chart endpoint rejects bare clients.
func (c *Client) defaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		"Referer":    c.cfg.BaseURL + "/",
	}
}
