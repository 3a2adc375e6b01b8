package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig(t *testing.T) {
	t.Setenv("REPOSITORIES_POSTGRES_HOST", "db.internal")
	t.Setenv("JWT_SECRETKEY", "from-env")

	cfg, err := InitConfig()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Repositories.Postgres.Host)
	assert.Equal(t, "from-env", cfg.JWT.SecretKey)
	assert.Equal(t, 15*time.Minute, cfg.JWT.VerifyEmailTTL)
	assert.Equal(t, 30*time.Minute, cfg.JWT.ResetPasswordTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.HERE.CacheTTL)
	assert.Equal(t, "ml", cfg.Bot.Provider)
}
