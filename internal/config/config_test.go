package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "rota", cfg.App.Name)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, []string{"*"}, cfg.API.CORS.Origins)
	assert.Equal(t, 100.0, cfg.API.RateLimit)
	assert.False(t, cfg.Plan.StrictBoundary)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_PATH", "/tmp/rota.db")
	t.Setenv("API_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PLAN_POLICY_FILE", "policy.yaml")
	t.Setenv("PLAN_STRICT_BOUNDARY", "true")
	t.Setenv("APP_ENV", "production")
	t.Setenv("API_RATE_LIMIT", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/rota.db", cfg.Database.DSN())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.API.CORS.Origins)
	assert.Equal(t, "policy.yaml", cfg.Plan.PolicyFile)
	assert.True(t, cfg.Plan.StrictBoundary)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2.5, cfg.API.RateLimit)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_NegativeRateLimit(t *testing.T) {
	t.Setenv("API_RATE_LIMIT", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	c := DatabaseConfig{Driver: DriverPostgres, Host: "db", Port: 5432, User: "u", Password: "p", Name: "rota", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=rota sslmode=disable", c.DSN())
}
