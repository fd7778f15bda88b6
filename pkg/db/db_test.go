package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KarthikeyanM3011/Hudle.ai/config"
)

func TestConnectionString(t *testing.T) {
	cfg := DefaultConfig()
	cfg.User = "svc user"
	cfg.Password = "p@ss/word"
	cfg.Host = "db.internal"
	cfg.Database = "huddle"

	cs := cfg.ConnectionString()

	assert.Contains(t, cs, "postgres://")
	assert.Contains(t, cs, "svc+user")
	assert.Contains(t, cs, "db.internal:5432/huddle")
	assert.Contains(t, cs, "sslmode=disable")
	assert.NotContains(t, cs, "p@ss/word", "credentials must be escaped")
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Host = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MaxConns = 1
	cfg.MinConns = 10
	assert.Error(t, cfg.Validate())
}

func TestCheckNilPool(t *testing.T) {
	status := Check(context.Background(), nil)

	require.Error(t, status.Error)
	assert.False(t, status.Healthy)
}

func TestPingNilPool(t *testing.T) {
	assert.Error(t, Ping(context.Background(), nil))
}

func TestFromAppConfig(t *testing.T) {
	cfg := FromAppConfig(config.DatabaseConfig{
		Host:     "pg.internal",
		Port:     6543,
		Database: "huddle_prod",
		User:     "huddle",
		Password: "secret",
		MaxConns: 50,
	})

	assert.Equal(t, "pg.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "huddle_prod", cfg.Database)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, int32(50), cfg.MaxConns)
	// Unset fields keep defaults.
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.Equal(t, int32(5), cfg.MinConns)
}
