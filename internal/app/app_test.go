package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cratey/cratey/internal/domain"
)

func newTestApp(t *testing.T, cfg Config) *App {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	a, err := NewApp(context.Background(), cfg, db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestMigrateAndSeed(t *testing.T) {
	a := newTestApp(t, Config{BaseURL: "http://shop.test", SeedDemo: true})
	require.NoError(t, a.MigrateAndSeed())
	// second run must not seed twice
	require.NoError(t, a.MigrateAndSeed())

	var n int64
	require.NoError(t, a.DB.Model(&domain.Product{}).Count(&n).Error)
	assert.Equal(t, int64(3), n)

	ctx := context.Background()
	items, total, err := a.ProductUC.List(ctx, domain.ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	for _, p := range items {
		assert.Equal(t, "night-drive", p.ArtistSlug)
	}
}

func TestLibraryUniqueIndex(t *testing.T) {
	a := newTestApp(t, Config{})
	require.NoError(t, a.MigrateAndSeed())
	pid := uuid.New()
	first := &domain.LibraryItem{ID: uuid.New(), BuyerEmail: "fan@example.com", ProductID: pid, OrderID: uuid.New()}
	require.NoError(t, a.DB.Create(first).Error)
	dup := &domain.LibraryItem{ID: uuid.New(), BuyerEmail: "fan@example.com", ProductID: pid, OrderID: uuid.New()}
	assert.Error(t, a.DB.Create(dup).Error)
}

func TestHTTPHandler(t *testing.T) {
	a := newTestApp(t, Config{BaseURL: "http://shop.test", SeedDemo: true})
	require.NoError(t, a.MigrateAndSeed())
	srv := httptest.NewServer(a.HTTPHandler())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(srv.URL + "/api/products")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var body struct {
		Items []map[string]any `json:"items"`
		Total int64            `json:"total"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, int64(3), body.Total)
	assert.Len(t, body.Items, 3)

	res, err = http.Get(srv.URL + "/api/artists/night-drive")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	// no webhook secret configured
	res, err = http.Post(srv.URL+"/webhooks/stripe", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)

	// admin routes are closed without a key
	res, err = http.Get(srv.URL + "/admin/orders")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}
