package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "farms-ledger", cfg.App.Name)
	assert.Equal(t, 25, cfg.DB.MaxConns)
	assert.False(t, cfg.DB.Migrate)
	assert.False(t, cfg.Ledger.AllowBackorder)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 10*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("LEDGER_ALLOW_BACKORDER", "true")
	v.Set("REDIS_ADDR", "localhost:6379")
	v.Set("CACHE_TTL_MINUTES", "3")
	v.Set("DB_MAX_CONNS", "8")
	v.Set("HTTP_PORT", 9090)
	v.Set("SMS_NOTIFY_NUMBERS", " 919000000001, ,919000000002")

	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.True(t, cfg.Ledger.AllowBackorder)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 3*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, 8, cfg.DB.MaxConns)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, []string{"919000000001", "919000000002"}, cfg.SMS.Numbers)
}

func TestFromViper_Invalid(t *testing.T) {
	cases := map[string]map[string]any{
		"min mayor que max": {"DB_MIN_CONNS": 10, "DB_MAX_CONNS": 5},
		"ttl cero":          {"CACHE_TTL_MINUTES": 0},
		"sms sin api key":   {"SMS_ENABLED": true},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			v := viper.New()
			for k, val := range values {
				v.Set(k, val)
			}
			_, err := FromViper(v)
			assert.Error(t, err)
		})
	}
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "farms", Password: "p@ss:word", DBName: "farms", SSLMode: "disable"}
	assert.Equal(t, "postgres://farms:p%40ss%3Aword@db:5432/farms?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
