package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"fintrack/config"
	"fintrack/middleware"

	"github.com/stretchr/testify/assert"
)

func testConfig() *config.Config {
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		JWT:    config.JWTConfig{Secret: "router-secret"},
	}
	middleware.InitJWT(cfg)
	return cfg
}

func TestSetupRouter_Health(t *testing.T) {
	r := SetupRouter(testConfig(), Providers{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestSetupRouter_ProtectedRoutesRequireToken(t *testing.T) {
	r := SetupRouter(testConfig(), Providers{})

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/transactions"},
		{http.MethodGet, "/api/budgets"},
		{http.MethodGet, "/api/zakat-tax"},
		{http.MethodPost, "/api/assets/refresh"},
		{http.MethodGet, "/api/calendar"},
		{http.MethodGet, "/api/recurring-payments"},
		{http.MethodGet, "/api/dashboard"},
		{http.MethodPost, "/api/chatbot"},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(route.method, route.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	r := SetupRouter(testConfig(), Providers{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/transactions", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
