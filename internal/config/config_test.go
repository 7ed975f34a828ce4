package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CLOUDINARY_API_KEY", "key")
	t.Setenv("CLOUDINARY_API_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.ServerPort)
	assert.Equal(t, "videostream", cfg.MongoDB)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenExpiry)
	assert.Equal(t, 240*time.Hour, cfg.RefreshTokenExpiry)
	assert.Equal(t, 2, cfg.UploadRetries)
	assert.Equal(t, 10, cfg.LoginRatePerMinute)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "5m")
	t.Setenv("LOGIN_RATE_BURST", "20")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenExpiry)
	assert.Equal(t, 20, cfg.LoginRateBurst)
}

func TestLoadFailsWithoutRequiredSecrets(t *testing.T) {
	setRequired(t)
	// t.Setenv registered the restore; unset to simulate a missing secret.
	os.Unsetenv("ACCESS_TOKEN_SECRET")

	_, err := Load()
	assert.Error(t, err)
}
