package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/config"
)

// PolygonClient Polygon.io 行情接口
type PolygonClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewPolygonClient 创建 Polygon 客户端
func NewPolygonClient(cfg config.ProviderConfig) *PolygonClient {
	return &PolygonClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout()},
	}
}

type polygonAgg struct {
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
	Timestamp int64   `json:"t"` // 毫秒
}

type polygonAggsResponse struct {
	Status       string       `json:"status"`
	ResultsCount int          `json:"resultsCount"`
	Results      []polygonAgg `json:"results"`
}

func (c *PolygonClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if c.apiKey == "" {
		return fmt.Errorf("%w: polygon api_key", ErrNotConfigured)
	}
	if query == nil {
		query = url.Values{}
	}
	query.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	return doJSON(c.client, req, out)
}

// PreviousClose 上一交易日收盘价
func (c *PolygonClient) PreviousClose(ctx context.Context, ticker string) (float64, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	var resp polygonAggsResponse
	path := fmt.Sprintf("/v2/aggs/ticker/%s/prev", url.PathEscape(ticker))
	if err := c.get(ctx, path, url.Values{"adjusted": {"true"}}, &resp); err != nil {
		return 0, err
	}
	if len(resp.Results) == 0 || resp.Results[0].Close <= 0 {
		return 0, fmt.Errorf("%w: %s 无收盘价数据", ErrProviderUnavailable, ticker)
	}
	return resp.Results[0].Close, nil
}

// DailyBars 区间日线（含首尾日期）
func (c *PolygonClient) DailyBars(ctx context.Context, ticker string, from, to time.Time) ([]StockBar, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	var resp polygonAggsResponse
	path := fmt.Sprintf("/v2/aggs/ticker/%s/range/1/day/%s/%s",
		url.PathEscape(ticker), from.Format("2006-01-02"), to.Format("2006-01-02"))
	query := url.Values{
		"adjusted": {"true"},
		"sort":     {"asc"},
		"limit":    {"5000"},
	}
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, err
	}

	bars := make([]StockBar, 0, len(resp.Results))
	for _, r := range resp.Results {
		bars = append(bars, StockBar{
			Date:   dateOnly(time.UnixMilli(r.Timestamp)),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	return bars, nil
}

// SearchTickers 按关键字检索股票代码
func (c *PolygonClient) SearchTickers(ctx context.Context, query string, limit int) ([]TickerInfo, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	var resp struct {
		Results []struct {
			Ticker          string `json:"ticker"`
			Name            string `json:"name"`
			Market          string `json:"market"`
			Locale          string `json:"locale"`
			PrimaryExchange string `json:"primary_exchange"`
			CurrencyName    string `json:"currency_name"`
		} `json:"results"`
	}
	q := url.Values{
		"search": {strings.TrimSpace(query)},
		"active": {"true"},
		"limit":  {strconv.Itoa(limit)},
	}
	if err := c.get(ctx, "/v3/reference/tickers", q, &resp); err != nil {
		return nil, err
	}

	out := make([]TickerInfo, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, TickerInfo{
			Ticker:          r.Ticker,
			Name:            r.Name,
			Market:          r.Market,
			Locale:          r.Locale,
			PrimaryExchange: r.PrimaryExchange,
			CurrencyName:    r.CurrencyName,
		})
	}
	return out, nil
}
