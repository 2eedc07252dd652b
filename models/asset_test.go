package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetDetails_ValueScan(t *testing.T) {
	d := AssetDetails{Unit: "tola", Name: "Wedding gold"}
	v, err := d.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"unit":"tola","name":"Wedding gold"}`, v.(string))

	var got AssetDetails
	require.NoError(t, got.Scan([]byte(v.(string))))
	assert.Equal(t, d, got)

	var fromString AssetDetails
	require.NoError(t, fromString.Scan(`{"ticker":"AAPL"}`))
	assert.Equal(t, "AAPL", fromString.Ticker)

	var empty AssetDetails
	require.NoError(t, empty.Scan(nil))
	assert.Equal(t, AssetDetails{}, empty)
	require.NoError(t, empty.Scan([]byte{}))

	assert.Error(t, empty.Scan(42))
	assert.Error(t, empty.Scan("{not json"))
}

func TestIsValidTransactionType(t *testing.T) {
	assert.True(t, IsValidTransactionType("credit"))
	assert.True(t, IsValidTransactionType("debit"))
	assert.False(t, IsValidTransactionType("refund"))
	assert.False(t, IsValidTransactionType(""))
}

func TestMonthStartOf(t *testing.T) {
	got := MonthStartOf(time.Date(2025, 3, 17, 15, 4, 5, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), got)
}
