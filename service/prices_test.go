package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertCurrency_SameCurrency(t *testing.T) {
	db, mock := setupMockDB(t)

	conv, err := ConvertCurrency(context.Background(), db, nil, "pkr", "PKR", 1234.567, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1.0, conv.Rate)
	assert.Equal(t, 1234.57, conv.Converted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConvertCurrency_FreshCache(t *testing.T) {
	db, mock := setupMockDB(t)
	today := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT \\* FROM `currency_exchange_history`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "base_currency", "target_currency", "date", "rate"}).
			AddRow(1, "USD", "PKR", today, 280.5))

	conv, err := ConvertCurrency(context.Background(), db, nil, "usd", "pkr", 100, today.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "USD", conv.From)
	assert.Equal(t, "PKR", conv.To)
	assert.Equal(t, 28050.0, conv.Converted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConvertCurrency_FetchesWhenMissing(t *testing.T) {
	db, mock := setupMockDB(t)
	today := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT \\* FROM `currency_exchange_history`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `currency_exchange_history`").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	fx := &fakeRates{rates: []ExchangeRate{
		{Base: "PKR", Target: "USD", Rate: 0.00357, Date: today},
		{Base: "PKR", Target: "EUR", Rate: 0.00345, Date: today},
	}}
	conv, err := ConvertCurrency(context.Background(), db, fx, "PKR", "EUR", 100000, today)
	require.NoError(t, err)
	assert.Equal(t, 0.00345, conv.Rate)
	assert.Equal(t, 345.0, conv.Converted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConvertCurrency_Unavailable(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT \\* FROM `currency_exchange_history`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := ConvertCurrency(context.Background(), db, nil, "PKR", "JPY", 1, time.Now())
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}
