package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramo-hub-backend/pkg/config"
	"ramo-hub-backend/pkg/database"
	"ramo-hub-backend/pkg/logger"
	"ramo-hub-backend/pkg/server"
	"ramo-hub-backend/pkg/storage"
)

func resetApp(t *testing.T) {
	t.Helper()
	build := newApp
	drop := func() {
		appMu.Lock()
		cachedApp, router = nil, nil
		appMu.Unlock()
	}
	drop()
	t.Cleanup(func() {
		newApp = build
		drop()
	})
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:     "test",
		Port:            "0",
		JWTSecret:       "index-test-secret",
		RefreshPolicy:   config.RefreshGeneration,
		RefreshTimeout:  5 * time.Second,
		RefreshInterval: time.Minute,
		AllowedOrigins:  []string{"*"},
	}
}

func sqliteApp(t *testing.T, cfg *config.Config) *server.App {
	t.Helper()
	db, err := database.NewSQLDatabase(database.DriverSQLite, "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return server.Assemble(cfg, logger.Nop{}, db, storage.NewMemoryStore("https://files.test"))
}

func TestLoadApp_RetriesAfterFailedStart(t *testing.T) {
	resetApp(t)
	cfg := testConfig()

	calls := 0
	newApp = func(ctx context.Context, cfg *config.Config) (*server.App, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("unable to open database file")
		}
		return sqliteApp(t, cfg), nil
	}

	_, _, err := loadApp(context.Background(), cfg)
	require.Error(t, err)

	app, h, err := loadApp(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, app)
	require.NotNil(t, h)

	again, _, err := loadApp(context.Background(), cfg)
	require.NoError(t, err)
	assert.Same(t, app, again)
	assert.Equal(t, 2, calls)
}

func TestRefreshIfStale(t *testing.T) {
	resetApp(t)
	app := sqliteApp(t, testConfig())

	refreshIfStale(context.Background(), app)
	first := app.Hub.Current()
	require.Equal(t, uint64(1), first.Generation)

	// within the interval the published snapshot is reused
	refreshIfStale(context.Background(), app)
	assert.Same(t, first, app.Hub.Current())

	app.Config.RefreshInterval = time.Nanosecond
	time.Sleep(time.Millisecond)
	refreshIfStale(context.Background(), app)
	assert.Greater(t, app.Hub.Current().Generation, first.Generation)
}

func TestLoadApp_ServesRoutes(t *testing.T) {
	resetApp(t)
	newApp = func(ctx context.Context, cfg *config.Config) (*server.App, error) {
		return sqliteApp(t, cfg), nil
	}

	_, h, err := loadApp(context.Background(), testConfig())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
