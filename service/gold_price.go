package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fintrack/config"
)

// GoldPriceClient 实时金价接口（RapidAPI / goldapi 兼容）
type GoldPriceClient struct {
	url     string
	apiKey  string
	apiHost string
	client  *http.Client
	now     func() time.Time
}

// NewGoldPriceClient 创建金价客户端
func NewGoldPriceClient(cfg config.ProviderConfig) *GoldPriceClient {
	return &GoldPriceClient{
		url:     cfg.BaseURL,
		apiKey:  cfg.APIKey,
		apiHost: cfg.APIHost,
		client:  &http.Client{Timeout: cfg.Timeout()},
		now:     time.Now,
	}
}

type goldPriceResponse struct {
	Price        float64 `json:"price"`          // 每金衡盎司
	PriceGram24k float64 `json:"price_gram_24k"` // 每克 24K
	Currency     string  `json:"currency"`
	Timestamp    int64   `json:"timestamp"`
}

// GoldPrice 查询当前金价，换算为每克与每 tola
func (c *GoldPriceClient) GoldPrice(ctx context.Context) (*GoldQuote, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: gold api_key", ErrNotConfigured)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	if c.apiHost != "" {
		req.Header.Set("X-RapidAPI-Key", c.apiKey)
		req.Header.Set("X-RapidAPI-Host", c.apiHost)
	} else {
		req.Header.Set("x-access-token", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	var resp goldPriceResponse
	if err := doJSON(c.client, req, &resp); err != nil {
		return nil, err
	}
	return quoteFromResponse(resp, c.now())
}

func quoteFromResponse(resp goldPriceResponse, now time.Time) (*GoldQuote, error) {
	perGram := resp.PriceGram24k
	if perGram <= 0 && resp.Price > 0 {
		perGram = resp.Price / GramsPerTroyOunce
	}
	if perGram <= 0 {
		return nil, fmt.Errorf("%w: 金价数据为空", ErrProviderUnavailable)
	}

	currency := strings.ToUpper(resp.Currency)
	if currency == "" {
		currency = "PKR"
	}
	date := now
	if resp.Timestamp > 0 {
		date = time.Unix(resp.Timestamp, 0)
	}
	return &GoldQuote{
		PricePerGram: round2(perGram),
		PricePerTola: round2(perGram * GramsPerTola),
		Currency:     currency,
		Date:         dateOnly(date),
	}, nil
}
