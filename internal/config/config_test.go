package config

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppConfig_Defaults(t *testing.T) {
	t.Setenv("SESSION_SECRET_KEY", "s3cret")

	cfg, err := LoadAppConfig()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "session", cfg.SessionCookieName)
	assert.False(t, cfg.SessionCookieSecure)
	assert.Equal(t, "@every 1h", cfg.SessionSweepSchedule)
	assert.Equal(t, 10, cfg.LoginRateLimit)
	assert.Equal(t, 15*time.Minute, cfg.LoginRateWindow)
	assert.Empty(t, cfg.RabbitMQURL)
}

func TestLoadAppConfig_Overrides(t *testing.T) {
	t.Setenv("SESSION_SECRET_KEY", "s3cret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SESSION_TTL", "12h")
	t.Setenv("SESSION_COOKIE_SECURE", "true")
	t.Setenv("REDIS_DB", "3")

	cfg, err := LoadAppConfig()

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.SessionCookieSecure)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoadAppConfig_Invalid(t *testing.T) {
	t.Setenv("SESSION_SECRET_KEY", "")
	_, err := LoadAppConfig()
	assert.Error(t, err)

	t.Setenv("SESSION_SECRET_KEY", "s3cret")
	t.Setenv("SESSION_TTL", "-1h")
	_, err = LoadAppConfig()
	assert.Error(t, err)
}

func TestAppConfig_Location(t *testing.T) {
	cfg := &AppConfig{Timezone: "UTC"}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	cfg.Timezone = "Mars/Olympus_Mons"
	_, err = cfg.Location()
	assert.Error(t, err)
}

func TestLoadDBConfig(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "control")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "control_room")

	cfg, err := LoadDBConfig()

	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=control password=pw dbname=control_room sslmode=disable", cfg.DSN())
}

func TestLoadDBConfig_Missing(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")

	_, err := LoadDBConfig()
	assert.Error(t, err)
}

func TestNewRedisClient_Disabled(t *testing.T) {
	assert.Nil(t, NewRedisClient(&AppConfig{}))
}

func TestAutoMigrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS sessions")).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	require.NoError(t, AutoMigrate(context.Background(), mock))

	mock.ExpectExec(regexp.QuoteMeta("dg_operations_signature_complete")).
		WillReturnError(errors.New("permission denied"))
	assert.Error(t, AutoMigrate(context.Background(), mock))

	assert.NoError(t, mock.ExpectationsWereMet())
}
