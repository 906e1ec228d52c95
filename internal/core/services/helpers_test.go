package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/adapter/logger"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/adapter/memory"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/adapter/redis"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
	"github.com/sm8ta/webike_bikeshop_inventory/internal/core/ports"
	"github.com/stretchr/testify/require"
)

var (
	fixedNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

	admin   = &domain.TokenPayload{ID: uuid.New(), UserID: uuid.New(), Role: domain.Admin}
	editor  = &domain.TokenPayload{ID: uuid.New(), UserID: uuid.New(), Role: domain.Editor}
	viewer  = &domain.TokenPayload{ID: uuid.New(), UserID: uuid.New(), Role: domain.Viewer}
	pending = &domain.TokenPayload{ID: uuid.New(), UserID: uuid.New(), Role: domain.Pending}
)

func cents(v int64) *int64 { return &v }

func str(v string) *string { return &v }

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes []string
}

func (m *recordingMetrics) RecordMetrics(*gin.Context, time.Time) {}

func (m *recordingMetrics) RecordSettlement(saleType string, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, saleType+":"+outcome)
}

type recordingImages struct {
	mu       sync.Mutex
	uploaded int
	deleted  []string
}

func (r *recordingImages) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploaded++
	return fmt.Sprintf("https://img.example.com/bikes/%d.jpg", r.uploaded), nil
}

func (r *recordingImages) Delete(ctx context.Context, url string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, url)
	return true, nil
}

// mapCache is an in-process CachePort for checking invalidation.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}}
}

func (c *mapCache) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, redis.ErrCacheMiss
	}
	return v, nil
}

func (c *mapCache) Set(key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *mapCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

type fixture struct {
	store   *memory.Store
	images  *recordingImages
	metrics *recordingMetrics
	cache   ports.CachePort
	bikes   *BikeService
	loaners *LoanerService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithCache(t, redis.NewNopCache())
}

func newFixtureWithCache(t *testing.T, cache ports.CachePort) *fixture {
	t.Helper()
	store := memory.NewStore()
	images := &recordingImages{}
	metrics := &recordingMetrics{}
	log := logger.NewLoggerAdapter("test")
	validate := validator.New()

	bikes := NewBikeService(store, store, nil, images, log, validate, cache, metrics)
	bikes.now = func() time.Time { return fixedNow }
	loaners := NewLoanerService(store, images, log, validate, cache)
	loaners.now = func() time.Time { return fixedNow }

	return &fixture{
		store:   store,
		images:  images,
		metrics: metrics,
		cache:   cache,
		bikes:   bikes,
		loaners: loaners,
	}
}

func (f *fixture) createBike(t *testing.T, purchase, sell int64) *domain.InventoryBike {
	t.Helper()
	bike, err := f.bikes.CreateBike(context.Background(), admin, &domain.BikeInput{
		Brand:         "Orbea",
		Model:         "Alma",
		Type:          domain.Mountain,
		Size:          "M",
		PurchasePrice: cents(purchase),
		SellPrice:     cents(sell),
	})
	require.NoError(t, err)
	return bike
}

func tradeInDetails(valuation int64) *domain.TradeInDetails {
	return &domain.TradeInDetails{
		Brand:         "Trek",
		Model:         "Marlin 5",
		Type:          domain.Mountain,
		Size:          "L",
		PurchasePrice: cents(valuation),
		SellPrice:     cents(valuation + 15000),
	}
}
