package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LatestGoldPrice 最近一次缓存的金价
func LatestGoldPrice(db *gorm.DB) (*models.GoldPriceHistory, error) {
	var row models.GoldPriceHistory
	if err := db.Order("date DESC").First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// SaveGoldPrice 按日期 upsert 金价
func SaveGoldPrice(db *gorm.DB, q *GoldQuote) (*models.GoldPriceHistory, error) {
	row := models.GoldPriceHistory{
		Date:         dateOnly(q.Date),
		PricePerTola: round2(q.PricePerTola),
		PricePerGram: round2(q.PricePerGram),
		Currency:     q.Currency,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"price_per_tola", "price_per_gram", "currency", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("保存金价失败: %w", err)
	}
	return &row, nil
}

// GoldPriceHistory 查询 since 之后的金价缓存，按日期升序
func GoldPriceHistory(db *gorm.DB, since time.Time) ([]models.GoldPriceHistory, error) {
	var rows []models.GoldPriceHistory
	if err := db.Where("date >= ?", dateOnly(since)).Order("date ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询金价历史失败: %w", err)
	}
	return rows, nil
}

// ResolveGoldPricePerTola 优先使用缓存的最新金价，没有缓存时实时查询并写入缓存
func ResolveGoldPricePerTola(ctx context.Context, db *gorm.DB, provider GoldPriceProvider) (float64, error) {
	latest, err := LatestGoldPrice(db)
	if err == nil {
		return latest.PricePerTola, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("查询金价缓存失败: %w", err)
	}
	if provider == nil {
		return 0, ErrNotConfigured
	}

	q, err := provider.GoldPrice(ctx)
	if err != nil {
		return 0, err
	}
	if _, err := SaveGoldPrice(db, q); err != nil {
		logrus.WithError(err).Warn("金价缓存写入失败")
	}
	return q.PricePerTola, nil
}

// SaveStockBars 批量 upsert 股票日线
func SaveStockBars(db *gorm.DB, ticker string, bars []StockBar) error {
	if len(bars) == 0 {
		return nil
	}
	ticker = strings.ToUpper(ticker)
	rows := make([]models.StockPriceHistory, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, models.StockPriceHistory{
			Ticker: ticker,
			Date:   dateOnly(b.Date),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticker"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume", "updated_at"}),
	}).CreateInBatches(&rows, 200).Error; err != nil {
		return fmt.Errorf("保存股票行情失败: %w", err)
	}
	return nil
}

// StockHistory 查询股票日线：先实时拉取区间数据并写入缓存，失败时退回缓存
func StockHistory(ctx context.Context, db *gorm.DB, provider StockPriceProvider, ticker string, from, to time.Time) ([]models.StockPriceHistory, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if provider != nil {
		bars, err := provider.DailyBars(ctx, ticker, from, to)
		if err == nil {
			if err := SaveStockBars(db, ticker, bars); err != nil {
				logrus.WithError(err).WithField("ticker", ticker).Warn("股票行情缓存写入失败")
			}
		} else {
			logrus.WithError(err).WithField("ticker", ticker).Warn("实时行情获取失败，使用缓存")
		}
	}

	var rows []models.StockPriceHistory
	if err := db.Where("ticker = ? AND date >= ? AND date <= ?", ticker, dateOnly(from), dateOnly(to)).
		Order("date ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询股票行情失败: %w", err)
	}
	return rows, nil
}

// SaveExchangeRates 批量 upsert 汇率
func SaveExchangeRates(db *gorm.DB, rates []ExchangeRate) error {
	if len(rates) == 0 {
		return nil
	}
	rows := make([]models.CurrencyExchangeHistory, 0, len(rates))
	for _, r := range rates {
		rows = append(rows, models.CurrencyExchangeHistory{
			BaseCurrency:   r.Base,
			TargetCurrency: r.Target,
			Date:           dateOnly(r.Date),
			Rate:           r.Rate,
		})
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "base_currency"}, {Name: "target_currency"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "updated_at"}),
	}).CreateInBatches(&rows, 200).Error; err != nil {
		return fmt.Errorf("保存汇率失败: %w", err)
	}
	return nil
}

// Conversion 货币换算结果
type Conversion struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    float64   `json:"amount"`
	Rate      float64   `json:"rate"`
	Converted float64   `json:"converted"`
	RateDate  time.Time `json:"rate_date"`
}

// ConvertCurrency 货币换算：优先使用当天缓存汇率，否则实时拉取并缓存，实时失败时退回最近一次缓存
func ConvertCurrency(ctx context.Context, db *gorm.DB, provider CurrencyRateProvider, from, to string, amount float64, now time.Time) (*Conversion, error) {
	from, to = strings.ToUpper(strings.TrimSpace(from)), strings.ToUpper(strings.TrimSpace(to))
	conv := &Conversion{From: from, To: to, Amount: amount}
	if from == to {
		conv.Rate = 1
		conv.Converted = round2(amount)
		conv.RateDate = dateOnly(now)
		return conv, nil
	}

	var cached models.CurrencyExchangeHistory
	err := db.Where("base_currency = ? AND target_currency = ?", from, to).Order("date DESC").First(&cached).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询汇率缓存失败: %w", err)
	}
	hasCache := err == nil

	if !hasCache || cached.Date.Before(dateOnly(now)) {
		if rate, ok := fetchRate(ctx, db, provider, from, to); ok {
			cached, hasCache = rate, true
		}
	}
	if !hasCache {
		return nil, fmt.Errorf("%w: 无法获取 %s/%s 汇率", ErrProviderUnavailable, from, to)
	}

	conv.Rate = cached.Rate
	conv.Converted = round2(amount * cached.Rate)
	conv.RateDate = cached.Date
	return conv, nil
}

func fetchRate(ctx context.Context, db *gorm.DB, provider CurrencyRateProvider, from, to string) (models.CurrencyExchangeHistory, bool) {
	if provider == nil {
		return models.CurrencyExchangeHistory{}, false
	}
	rates, err := provider.Rates(ctx, from)
	if err != nil {
		logrus.WithError(err).WithField("base", from).Warn("实时汇率获取失败")
		return models.CurrencyExchangeHistory{}, false
	}
	if err := SaveExchangeRates(db, rates); err != nil {
		logrus.WithError(err).Warn("汇率缓存写入失败")
	}
	for _, r := range rates {
		if r.Target == to {
			return models.CurrencyExchangeHistory{
				BaseCurrency:   r.Base,
				TargetCurrency: r.Target,
				Date:           dateOnly(r.Date),
				Rate:           r.Rate,
			}, true
		}
	}
	return models.CurrencyExchangeHistory{}, false
}
