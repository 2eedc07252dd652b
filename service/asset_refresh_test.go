package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGold struct {
	quote *GoldQuote
	err   error
}

func (f *fakeGold) GoldPrice(ctx context.Context) (*GoldQuote, error) {
	return f.quote, f.err
}

type fakeStocks struct {
	prices map[string]float64
}

func (f *fakeStocks) PreviousClose(ctx context.Context, ticker string) (float64, error) {
	p, ok := f.prices[ticker]
	if !ok {
		return 0, ErrProviderUnavailable
	}
	return p, nil
}

func (f *fakeStocks) DailyBars(ctx context.Context, ticker string, from, to time.Time) ([]StockBar, error) {
	return nil, ErrProviderUnavailable
}

func TestGoldValue(t *testing.T) {
	q := &GoldQuote{PricePerGram: 21434.30, PricePerTola: 250000}
	assert.Equal(t, 500000.0, GoldValue(2, "tola", q))
	assert.Equal(t, 500000.0, GoldValue(2, "", q))
	assert.Equal(t, 214343.0, GoldValue(10, "Gram", q))
}

func TestAssetRefresher_BestEffort(t *testing.T) {
	db, mock := setupMockDB(t)

	// 只有成功估值的股票会写库
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `assets` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r := NewAssetRefresher(db,
		&fakeGold{err: errors.New("gold api down")},
		&fakeStocks{prices: map[string]float64{"AAPL": 150}},
	)

	assets := []models.Asset{
		{ID: 1, AssetType: &models.AssetType{Name: models.AssetTypeCash}, CurrentValue: 1000},
		{ID: 2, AssetType: &models.AssetType{Name: models.AssetTypeStock}, Quantity: 10, CurrentValue: 1200,
			AssetDetails: models.AssetDetails{Ticker: "AAPL"}},
		{ID: 3, AssetType: &models.AssetType{Name: models.AssetTypeStock}, Quantity: 5, CurrentValue: 800},
		{ID: 4, AssetType: &models.AssetType{Name: models.AssetTypeGold}, Quantity: 2, CurrentValue: 400000,
			AssetDetails: models.AssetDetails{Unit: "tola"}},
	}

	summary := r.refresh(context.Background(), assets)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 2, summary.Failed)

	require.Len(t, summary.Results, 4)
	assert.Equal(t, RefreshSkipped, summary.Results[0].Status)
	assert.Equal(t, RefreshUpdated, summary.Results[1].Status)
	assert.Equal(t, 1500.0, summary.Results[1].CurrentValue)
	assert.Equal(t, 1200.0, summary.Results[1].PreviousValue)
	assert.Equal(t, RefreshFailed, summary.Results[2].Status)
	assert.Equal(t, "缺少股票代码", summary.Results[2].Error)
	// 失败时保留原值
	assert.Equal(t, RefreshFailed, summary.Results[3].Status)
	assert.Equal(t, 400000.0, summary.Results[3].CurrentValue)
	// 外部服务的原始错误不返回给客户端
	assert.Equal(t, "估值获取失败，已保留原值", summary.Results[3].Error)
	assert.NotContains(t, summary.Results[3].Error, "gold api down")

	require.NoError(t, mock.ExpectationsWereMet())
}
