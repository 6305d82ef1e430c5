package httputil

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/aegis-backtest/pkg/logger"
)

// Client is an HTTP client wrapper with retry and rate limiting
// ⭐ SSOT: 외부 데이터 소스 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient  *http.Client
	logger      *logger.Logger
	retryConfig RetryConfig
	limiter     *rate.Limiter
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Enabled      bool
}

// New creates a new HTTP client
// ⭐ SSOT: http.Client 인스턴스는 여기서만 생성
func New(log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
		retryConfig: RetryConfig{
			MaxRetries:   3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     10 * time.Second,
			Enabled:      true,
		},
	}
}

// WithTimeout sets a custom request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithRetry configures retry behavior
func (c *Client) WithRetry(maxRetries int, initialDelay time.Duration) *Client {
	c.retryConfig.MaxRetries = maxRetries
	c.retryConfig.InitialDelay = initialDelay
	c.retryConfig.Enabled = true
	return c
}

// WithRateLimit throttles outgoing requests to n per second.
// 외부 포털 차단 방지
func (c *Client) WithRateLimit(perSecond float64) *Client {
	if perSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return c
}

// Get performs a GET request with optional headers.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.do(req)
}

// do executes a request honoring the rate limiter and retry policy.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	attempts := 1
	if c.retryConfig.Enabled {
		attempts += c.retryConfig.MaxRetries
	}

	delay := c.retryConfig.InitialDelay
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(req.Context()); err != nil {
				return nil, err
			}
		}

		resp, err := c.httpClient.Do(req)
		if err == nil && resp.StatusCode < http.StatusInternalServerError {
			return resp, nil
		}

		if err != nil {
			lastErr = err
		} else {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
		}

		if attempt < attempts-1 {
			c.logger.WithFields(map[string]interface{}{
				"url":     req.URL.String(),
				"attempt": attempt + 1,
				"error":   lastErr.Error(),
			}).Warn("HTTP request failed, retrying")

			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.retryConfig.MaxDelay {
				delay = c.retryConfig.MaxDelay
			}
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", attempts, lastErr)
}
