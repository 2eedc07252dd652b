package api

import (
	"context"
	"encoding/json"
	"testing"

	"fintrack/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	limit int
}

func (f *fakeSearcher) SearchTickers(_ context.Context, query string, limit int) ([]service.TickerInfo, error) {
	f.limit = limit
	return []service.TickerInfo{{Ticker: "AAPL", Name: "Apple Inc."}}, nil
}

func assetRouter(search service.TickerSearcher) *gin.Engine {
	h := NewAssetHandler(nil, nil, search, nil)
	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/assets", h.Create)
	router.GET("/assets/summary", h.Summary)
	router.GET("/assets/search", h.SearchTickers)
	router.GET("/assets/convert", h.Convert)
	return router
}

func TestAssetHandler_Create(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `asset_types`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "gold"))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `assets`").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	body := `{"asset_type":"gold","quantity":2.5,"purchase_value":550000,"asset_details":{"unit":"Tola"}}`
	w := performJSON(assetRouter(nil), "POST", "/assets", body)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	// 未指定当前价值时等于买入价值
	assert.Equal(t, float64(550000), data["current_value"])
	assert.Equal(t, "tola", data["asset_details"].(map[string]interface{})["unit"])
	assert.Equal(t, "gold", data["asset_type"].(map[string]interface{})["name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetHandler_Create_Validation(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	router := assetRouter(nil)
	for _, body := range []string{
		`{"asset_type":"stock","quantity":10,"purchase_value":1000}`,
		`{"asset_type":"gold","quantity":1,"purchase_value":1000,"asset_details":{"unit":"kg"}}`,
		`{"asset_type":"crypto","quantity":1,"purchase_value":1000}`,
		`{"asset_type":"cash","quantity":-1,"purchase_value":1000}`,
	} {
		w := performJSON(router, "POST", "/assets", body)
		assert.Equal(t, 400, w.Code, body)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetHandler_Summary(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT \\* FROM `assets`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "asset_type_id", "current_value", "asset_details"}).
			AddRow(1, 1, 1, 600000.0, `{"unit":"tola"}`).
			AddRow(2, 1, 2, 150000.0, "").
			AddRow(3, 1, 2, 50000.0, nil))
	mock.ExpectQuery("SELECT \\* FROM `asset_types`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(1, "gold").
			AddRow(2, "cash"))

	w := performJSON(assetRouter(nil), "GET", "/assets/summary", "")

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data service.AssetSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 600000.0, resp.Data.Gold)
	assert.Equal(t, 200000.0, resp.Data.Cash)
	assert.Equal(t, 800000.0, resp.Data.Total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetHandler_SearchTickers(t *testing.T) {
	search := &fakeSearcher{}
	router := assetRouter(search)

	w := performJSON(router, "GET", "/assets/search?q=apple&limit=200", "")
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "AAPL")
	assert.Equal(t, 50, search.limit)

	w = performJSON(router, "GET", "/assets/search?q=%20", "")
	assert.Equal(t, 400, w.Code)
}

func TestAssetHandler_Convert(t *testing.T) {
	router := assetRouter(nil)

	// 同币种不需要查询汇率
	w := performJSON(router, "GET", "/assets/convert?from=pkr&to=PKR&amount=1500.555", "")
	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data service.Conversion `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1.0, resp.Data.Rate)
	assert.Equal(t, 1500.56, resp.Data.Converted)

	for _, path := range []string{
		"/assets/convert?from=USD&to=PKR",
		"/assets/convert?from=USD&to=PKR&amount=-1",
		"/assets/convert?from=US&to=PKR&amount=1",
	} {
		w := performJSON(router, "GET", path, "")
		assert.Equal(t, 400, w.Code, path)
	}
}
