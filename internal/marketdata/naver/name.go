package naver

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FetchStockName scrapes the listing page for a symbol's display name.
// 시세 API에는 종목명이 없어서 메인 페이지에서 추출
func (c *Client) FetchStockName(ctx context.Context, symbol string) (string, error) {
	fullURL := fmt.Sprintf("%s/item/main.naver?code=%s", c.cfg.BaseURL, symbol)

	resp, err := c.http.Get(ctx, fullURL, c.defaultHeaders())
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse HTML failed: %w", err)
	}

	name := strings.TrimSpace(doc.Find(".wrap_company h2 a").First().Text())
	if name == "" {
		return "", fmt.Errorf("stock name not found for %s", symbol)
	}

	return name, nil
}
