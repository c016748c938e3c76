package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sahm/internal/config"
)

func testSettings() *config.Settings {
	return &config.Settings{
		Port:                   8080,
		CacheTTL:               time.Minute,
		MaxConcurrentIncidents: 2,
		RequestTimeout:         5 * time.Second,
	}
}

func TestSetupComponents_UnreachableRedisDisablesCache(t *testing.T) {
	settings := testSettings()
	settings.RedisAddr = "127.0.0.1:1"

	components, err := setupComponents(context.Background(), settings)
	require.NoError(t, err)
	defer components.Close()

	assert.Nil(t, components.redis)
	require.NotNil(t, components.handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	components.handler.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSetupComponents_MissingRulesFile(t *testing.T) {
	settings := testSettings()
	settings.RulesFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := setupComponents(context.Background(), settings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load rules")
}
