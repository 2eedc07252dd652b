package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_Add(t *testing.T) {
	s := NewScheduler()
	noop := func(ctx context.Context) error { return nil }

	require.NoError(t, s.Add("daily", "0 0 6 * * *", noop))
	require.NoError(t, s.Add("disabled", "", noop))
	assert.Error(t, s.Add("broken", "not a cron", noop))
	assert.Equal(t, 1, s.Len())

	s.Start()
	s.Stop()
}

type fakeRates struct {
	rates []ExchangeRate
	err   error
}

func (f *fakeRates) Rates(ctx context.Context, base string) ([]ExchangeRate, error) {
	return f.rates, f.err
}

func TestRefreshPriceCaches(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `gold_price_history`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	gold := &fakeGold{quote: &GoldQuote{PricePerGram: 21500, PricePerTola: 250771.78, Currency: "PKR", Date: time.Now()}}
	err := RefreshPriceCaches(context.Background(), db, gold, &fakeRates{err: errors.New("feed down")}, []string{"PKR"})
	assert.EqualError(t, err, "feed down")
	require.NoError(t, mock.ExpectationsWereMet())
}
