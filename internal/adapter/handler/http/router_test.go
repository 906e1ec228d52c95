package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sm8ta/webike_bikeshop_inventory/internal/adapter/logger"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/adapter/memory"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/adapter/prometheus"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/adapter/redis"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/adapter/storage"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/config"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/services"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	log := logger.NewLoggerAdapter("test")
	validate := validator.New()
	cache := redis.NewNopCache()
	images := storage.NewNopImageStore()
	metrics := prometheus.NewPrometheusAdapter()

	bikeService := services.NewBikeService(store, store, nil, images, log, validate, cache, metrics)
	loanerService := services.NewLoanerService(store, images, log, validate, cache)
	dashboardService := services.NewDashboardService(bikeService, loanerService, log)
	exportService := services.NewExportService(bikeService, loanerService, log)

	router, err := NewRouter(
		&config.HTTP{Env: "test", AllowedOrigins: "http://localhost:3000"},
		NewJWTTokenService(testSecret, log),
		NewBikeHandler(bikeService, log, metrics),
		NewLoanerHandler(loanerService, log, metrics),
		NewSettlementHandler(bikeService, log, metrics),
		NewDashboardHandler(dashboardService, exportService, log, metrics),
	)
	require.NoError(t, err)
	return router.Engine()
}

func signToken(t *testing.T, method jwt.SigningMethod, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.MapClaims{
		"id":      uuid.NewString(),
		"user_id": uuid.NewString(),
		"role":    role,
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func do(t *testing.T, router *gin.Engine, method, path, token string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func bikeBody(purchase, sell int64) gin.H {
	return gin.H{
		"brand":         "Orbea",
		"model":         "Alma",
		"type":          "Mountain",
		"size":          "M",
		"purchasePrice": purchase,
		"sellPrice":     sell,
	}
}

func TestAuthMiddleware(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/bikes", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, router, http.MethodGet, "/bikes", "not-a-jwt", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, router, http.MethodGet, "/bikes", signToken(t, jwt.SigningMethodHS256, "owner"), nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, router, http.MethodGet, "/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBikeRoutes(t *testing.T) {
	router := newTestRouter(t)
	editor := signToken(t, jwt.SigningMethodHS256, string(domain.Editor))
	viewer := signToken(t, jwt.SigningMethodHS256, string(domain.Viewer))

	w := do(t, router, http.MethodPost, "/bikes", viewer, bikeBody(50000, 75000), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, router, http.MethodPost, "/bikes", editor, gin.H{"brand": "Orbea"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/bikes", editor, bikeBody(50000, 75000), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var bike domain.InventoryBike
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bike))
	assert.Equal(t, "0001", bike.RefNumber)
	assert.Equal(t, domain.StatusAvailable, bike.Status)

	w = do(t, router, http.MethodGet, "/bikes/next-ref", viewer, nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, router, http.MethodGet, "/bikes/next-ref", editor, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "0002")

	w = do(t, router, http.MethodGet, "/bikes/1", viewer, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/bikes/abc", viewer, nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/bikes/99", viewer, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodGet, "/bikes?search=alma", viewer, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list BikeListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
}

func TestSellBikeRoute(t *testing.T) {
	router := newTestRouter(t)
	editor := signToken(t, jwt.SigningMethodHS256, string(domain.Editor))

	w := do(t, router, http.MethodPost, "/bikes", editor, bikeBody(50000, 75000), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	sale := gin.H{"saleType": "Cash", "cashPortion": 72000}
	key := map[string]string{idempotencyKeyHeader: "sale-1"}

	w = do(t, router, http.MethodPost, "/bikes/1/sell", editor, sale, key)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "sale-1", w.Header().Get(idempotencyKeyHeader))
	var result domain.SaleResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, domain.StatusSold, result.Bike.Status)
	assert.False(t, result.Replayed)

	w = do(t, router, http.MethodPost, "/bikes/1/sell", editor, sale, key)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Replayed)

	w = do(t, router, http.MethodPost, "/bikes/1/sell", editor, sale, map[string]string{idempotencyKeyHeader: "sale-2"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, router, http.MethodPatch, "/bikes/1/status", editor, gin.H{"status": "Available"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, router, http.MethodGet, "/settlements", editor, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sale-1")
}

func TestLoanerRoutes(t *testing.T) {
	router := newTestRouter(t)
	admin := signToken(t, jwt.SigningMethodHS256, string(domain.Admin))

	w := do(t, router, http.MethodPost, "/loaners", admin, gin.H{
		"brand": "BH",
		"model": "Atom",
		"size":  "L",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, router, http.MethodPost, "/loaners/1/loan", admin, gin.H{
		"loanType":   "Loan",
		"loaneeName": "Ana Ruiz",
		"loanReason": "Workshop repair",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var loaner domain.LoanerBike
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loaner))
	assert.Equal(t, domain.LoanerPrestada, loaner.Status)

	w = do(t, router, http.MethodPost, "/loaners/1/loan", admin, gin.H{
		"loanType":       "Rental",
		"loaneeName":     "Luis",
		"rentalDuration": "2 days",
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, router, http.MethodPost, "/loaners/1/return", admin, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loaner))
	assert.Equal(t, domain.LoanerAvailable, loaner.Status)

	w = do(t, router, http.MethodGet, "/loaners?pageSize=5", admin, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDashboardAndExportRoutes(t *testing.T) {
	router := newTestRouter(t)
	editor := signToken(t, jwt.SigningMethodHS256, string(domain.Editor))
	viewer := signToken(t, jwt.SigningMethodHS256, string(domain.Viewer))

	w := do(t, router, http.MethodPost, "/bikes", editor, bikeBody(123456, 200000), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, router, http.MethodGet, "/dashboard", viewer, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dashboard map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dashboard))
	assert.Contains(t, dashboard, "kpis")
	assert.Contains(t, dashboard, "monthly")

	w = do(t, router, http.MethodGet, "/dashboard?year=0", viewer, nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/export/bikes.csv", viewer, nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, router, http.MethodGet, "/export/bikes.csv", editor, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "bikes.csv")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "0001,Orbea,Alma,Mountain,M,1234.56€,2000.00€,Available,"))
}
