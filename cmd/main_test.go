package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stock-lookup/configs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *configs.Config {
	return &configs.Config{
		Port:       3000,
		CORSOrigin: "*",
		DbConfig: configs.DbConfig{
			Dialect:        "postgres",
			ProductsTable:  "products",
			ConnectTimeout: time.Second,
			QueryTimeout:   time.Second,
		},
		Limits: configs.LimitsConfig{MaxConnections: 4},
	}
}

func TestNewService_RejectsBadConfig(t *testing.T) {
	conf := testConfig()
	conf.DbConfig.Dialect = "oracle"
	_, _, err := NewService(conf)
	assert.Error(t, err)

	conf = testConfig()
	conf.DbConfig.ProductsTable = "products;drop"
	_, _, err = NewService(conf)
	assert.Error(t, err)
}

func TestApp_Routes(t *testing.T) {
	conf := testConfig()
	service, cleanup, err := NewService(conf)
	require.NoError(t, err)
	defer cleanup()
	h := App(conf, service)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/test-connection", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"keyword":"x"}`)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"error"`)
}
