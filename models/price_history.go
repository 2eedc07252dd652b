package models

import (
	"time"
)

// GoldPriceHistory 金价缓存（按日期唯一）
type GoldPriceHistory struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Date         time.Time `json:"date" gorm:"type:date;not null;uniqueIndex"`
	PricePerTola float64   `json:"price_per_tola" gorm:"type:decimal(14,2);not null"`
	PricePerGram float64   `json:"price_per_gram" gorm:"type:decimal(14,2);not null"`
	Currency     string    `json:"currency" gorm:"size:3;not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (GoldPriceHistory) TableName() string {
	return "gold_price_history"
}

// StockPriceHistory 股票日线缓存（ticker + date 唯一）
type StockPriceHistory struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Ticker    string    `json:"ticker" gorm:"size:16;not null;uniqueIndex:idx_stock_ticker_date"`
	Date      time.Time `json:"date" gorm:"type:date;not null;uniqueIndex:idx_stock_ticker_date"`
	Open      float64   `json:"open" gorm:"type:decimal(14,4)"`
	High      float64   `json:"high" gorm:"type:decimal(14,4)"`
	Low       float64   `json:"low" gorm:"type:decimal(14,4)"`
	Close     float64   `json:"close" gorm:"type:decimal(14,4);not null"`
	Volume    float64   `json:"volume"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (StockPriceHistory) TableName() string {
	return "stock_price_history"
}

// CurrencyExchangeHistory 汇率缓存（base + target + date 唯一）
type CurrencyExchangeHistory struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	BaseCurrency   string    `json:"base_currency" gorm:"size:3;not null;uniqueIndex:idx_fx_pair_date"`
	TargetCurrency string    `json:"target_currency" gorm:"size:3;not null;uniqueIndex:idx_fx_pair_date"`
	Date           time.Time `json:"date" gorm:"type:date;not null;uniqueIndex:idx_fx_pair_date"`
	Rate           float64   `json:"rate" gorm:"type:decimal(20,8);not null"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (CurrencyExchangeHistory) TableName() string {
	return "currency_exchange_history"
}
