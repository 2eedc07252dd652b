package service

import (
	"context"
	"time"
)

const (
	// GramsPerTola 1 tola 对应的克数
	GramsPerTola = 11.6638038
	// GramsPerTroyOunce 1 金衡盎司对应的克数
	GramsPerTroyOunce = 31.1034768
)

// GoldQuote 金价报价
type GoldQuote struct {
	PricePerGram float64
	PricePerTola float64
	Currency     string
	Date         time.Time
}

// StockBar 股票日线
type StockBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// TickerInfo 股票代码检索结果
type TickerInfo struct {
	Ticker          string `json:"ticker"`
	Name            string `json:"name"`
	Market          string `json:"market"`
	Locale          string `json:"locale"`
	PrimaryExchange string `json:"primary_exchange"`
	CurrencyName    string `json:"currency_name"`
}

// ExchangeRate 汇率
type ExchangeRate struct {
	Base   string
	Target string
	Rate   float64
	Date   time.Time
}

// GoldPriceProvider 金价数据源
type GoldPriceProvider interface {
	GoldPrice(ctx context.Context) (*GoldQuote, error)
}

// StockPriceProvider 股票行情数据源
type StockPriceProvider interface {
	PreviousClose(ctx context.Context, ticker string) (float64, error)
	DailyBars(ctx context.Context, ticker string, from, to time.Time) ([]StockBar, error)
}

// TickerSearcher 股票代码检索
type TickerSearcher interface {
	SearchTickers(ctx context.Context, query string, limit int) ([]TickerInfo, error)
}

// CurrencyRateProvider 汇率数据源，返回以 base 计价的全部汇率
type CurrencyRateProvider interface {
	Rates(ctx context.Context, base string) ([]ExchangeRate, error)
}
