package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	RefreshUpdated = "updated"
	RefreshSkipped = "skipped"
	RefreshFailed  = "failed"
)

// RefreshResult 单个资产的刷新结果
type RefreshResult struct {
	AssetID       uint    `json:"asset_id"`
	AssetType     string  `json:"asset_type"`
	PreviousValue float64 `json:"previous_value"`
	CurrentValue  float64 `json:"current_value"`
	Status        string  `json:"status"`
	Error         string  `json:"error,omitempty"`
}

// RefreshSummary 刷新汇总
type RefreshSummary struct {
	Updated int             `json:"updated"`
	Skipped int             `json:"skipped"`
	Failed  int             `json:"failed"`
	Results []RefreshResult `json:"results"`
}

// AssetRefresher 按最新行情重新估值黄金与股票资产。
// 单个资产失败只记录结果并保留原值，不影响其他资产
type AssetRefresher struct {
	db          *gorm.DB
	gold        GoldPriceProvider
	stocks      StockPriceProvider
	concurrency int
	now         func() time.Time
}

// NewAssetRefresher 创建资产刷新器，gold / stocks 可为 nil
func NewAssetRefresher(db *gorm.DB, gold GoldPriceProvider, stocks StockPriceProvider) *AssetRefresher {
	return &AssetRefresher{db: db, gold: gold, stocks: stocks, concurrency: 4, now: time.Now}
}

// GoldValue 按单位计算黄金价值，默认单位为 tola
func GoldValue(quantity float64, unit string, q *GoldQuote) float64 {
	qty := decimal.NewFromFloat(quantity)
	var v decimal.Decimal
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "gram", "grams", "g":
		v = qty.Mul(decimal.NewFromFloat(q.PricePerGram))
	case "ounce", "oz":
		v = qty.Mul(decimal.NewFromFloat(q.PricePerGram)).Mul(decimal.NewFromFloat(GramsPerTroyOunce))
	default:
		v = qty.Mul(decimal.NewFromFloat(q.PricePerTola))
	}
	return v.Round(2).InexactFloat64()
}

// RefreshUser 刷新某个用户的全部资产
func (r *AssetRefresher) RefreshUser(ctx context.Context, userID uint) (*RefreshSummary, error) {
	var assets []models.Asset
	if err := r.db.WithContext(ctx).Preload("AssetType").Where("user_id = ?", userID).Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("查询资产失败: %w", err)
	}
	return r.refresh(ctx, assets), nil
}

// RefreshAll 刷新全部用户的黄金与股票资产（定时任务）
func (r *AssetRefresher) RefreshAll(ctx context.Context) (*RefreshSummary, error) {
	var assets []models.Asset
	err := r.db.WithContext(ctx).Preload("AssetType").
		Joins("JOIN asset_types ON asset_types.id = assets.asset_type_id").
		Where("asset_types.name IN ?", []string{models.AssetTypeGold, models.AssetTypeStock}).
		Find(&assets).Error
	if err != nil {
		return nil, fmt.Errorf("查询资产失败: %w", err)
	}
	return r.refresh(ctx, assets), nil
}

func (r *AssetRefresher) refresh(ctx context.Context, assets []models.Asset) *RefreshSummary {
	// 金价每轮只查询一次
	var quote *GoldQuote
	var goldErr error
	for _, a := range assets {
		if assetTypeName(a) == models.AssetTypeGold {
			quote, goldErr = r.goldQuote(ctx)
			break
		}
	}

	results := make([]RefreshResult, len(assets))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, a := range assets {
		i, a := i, a
		g.Go(func() error {
			results[i] = r.refreshOne(ctx, a, quote, goldErr)
			return nil
		})
	}
	_ = g.Wait()

	summary := &RefreshSummary{Results: results}
	for _, res := range results {
		switch res.Status {
		case RefreshUpdated:
			summary.Updated++
		case RefreshFailed:
			summary.Failed++
		default:
			summary.Skipped++
		}
	}
	logrus.WithFields(logrus.Fields{
		"updated": summary.Updated,
		"skipped": summary.Skipped,
		"failed":  summary.Failed,
	}).Info("资产估值刷新完成")
	return summary
}

func (r *AssetRefresher) goldQuote(ctx context.Context) (*GoldQuote, error) {
	if r.gold == nil {
		return nil, ErrNotConfigured
	}
	q, err := r.gold.GoldPrice(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := SaveGoldPrice(r.db.WithContext(ctx), q); err != nil {
		logrus.WithError(err).Warn("金价缓存写入失败")
	}
	return q, nil
}

func (r *AssetRefresher) refreshOne(ctx context.Context, a models.Asset, quote *GoldQuote, goldErr error) RefreshResult {
	res := RefreshResult{
		AssetID:       a.ID,
		AssetType:     assetTypeName(a),
		PreviousValue: a.CurrentValue,
		CurrentValue:  a.CurrentValue,
		Status:        RefreshSkipped,
	}

	var value float64
	switch res.AssetType {
	case models.AssetTypeGold:
		if goldErr != nil {
			return failed(res, goldErr)
		}
		value = GoldValue(a.Quantity, a.AssetDetails.Unit, quote)
	case models.AssetTypeStock:
		ticker := strings.TrimSpace(a.AssetDetails.Ticker)
		if ticker == "" {
			return failed(res, errMissingTicker)
		}
		if r.stocks == nil {
			return failed(res, ErrNotConfigured)
		}
		price, err := r.stocks.PreviousClose(ctx, ticker)
		if err != nil {
			return failed(res, err)
		}
		value = decimal.NewFromFloat(a.Quantity).Mul(decimal.NewFromFloat(price)).Round(2).InexactFloat64()
	default:
		return res
	}

	now := r.now()
	if err := r.db.WithContext(ctx).Model(&models.Asset{}).Where("id = ?", a.ID).
		Updates(map[string]interface{}{"current_value": value, "last_refreshed_at": now}).Error; err != nil {
		return failed(res, err)
	}
	res.CurrentValue = value
	res.Status = RefreshUpdated
	return res
}

var errMissingTicker = errors.New("缺少股票代码")

// refreshErrorMessage 返回给客户端的失败原因，外部服务的原始错误只写日志
func refreshErrorMessage(err error) string {
	switch {
	case errors.Is(err, errMissingTicker):
		return errMissingTicker.Error()
	case errors.Is(err, ErrNotConfigured):
		return ErrNotConfigured.Error()
	default:
		return "估值获取失败，已保留原值"
	}
}

func failed(res RefreshResult, err error) RefreshResult {
	logrus.WithError(err).WithField("asset_id", res.AssetID).Warn("资产估值刷新失败，保留原值")
	res.Status = RefreshFailed
	res.Error = refreshErrorMessage(err)
	return res
}

func assetTypeName(a models.Asset) string {
	if a.AssetType == nil {
		return ""
	}
	return a.AssetType.Name
}
