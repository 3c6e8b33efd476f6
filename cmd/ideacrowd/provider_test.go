package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/ideacrowd/internal/config"
	"github.com/jask/ideacrowd/internal/secrets"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("IDEACROWD_CONFIG", filepath.Join(t.TempDir(), "config.toml"))
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Database.Path = filepath.Join(t.TempDir(), "db", "ideacrowd.db")
	return cfg
}

func TestOpenProviderDemo(t *testing.T) {
	cfg := testConfig(t)
	o, err := openProvider(context.Background(), &cfg, true, zerolog.Nop())
	require.NoError(t, err)
	defer o.close()

	assert.Equal(t, "demo", o.name)
	require.NoError(t, o.auth.SignIn(context.Background(), "ada@example.com", "pw"))
	assert.Equal(t, "ada@example.com", o.provider.CurrentSession().Identity)
}

func TestOpenProviderDemoSessionsExpire(t *testing.T) {
	cfg := testConfig(t)
	cfg.Identity.SessionTTL = 30 * time.Millisecond
	o, err := openProvider(context.Background(), &cfg, true, zerolog.Nop())
	require.NoError(t, err)
	defer o.close()

	require.NoError(t, o.auth.SignIn(context.Background(), "ada@example.com", "pw"))
	require.Eventually(t, func() bool { return o.provider.CurrentSession() == nil }, time.Second, 5*time.Millisecond)
}

func TestOpenProviderLocalGeneratesSecret(t *testing.T) {
	cfg := testConfig(t)
	o, err := openProvider(context.Background(), &cfg, false, zerolog.Nop())
	require.NoError(t, err)
	defer o.close()

	assert.Equal(t, "local", o.name)
	assert.Empty(t, cfg.Identity.TokenSecret, "generated secret must not land in the config")
	stored, err := secrets.Open(filepath.Dir(config.Path())).Get("token_secret")
	require.NoError(t, err)
	assert.Len(t, stored, 64)

	ctx := context.Background()
	require.NoError(t, o.auth.SignUp(ctx, "ada@example.com", "a long enough password"))
	require.NotNil(t, o.provider.CurrentSession())
	require.NoError(t, o.provider.SignOut(ctx))
	assert.Nil(t, o.provider.CurrentSession())
}

func TestOpenProviderRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Identity.Provider = "redis"
	cfg.Redis.Addr = mr.Addr()

	o, err := openProvider(context.Background(), &cfg, false, zerolog.Nop())
	require.NoError(t, err)
	defer o.close()
	assert.Equal(t, "redis "+mr.Addr(), o.name)

	require.NoError(t, o.auth.SignUp(context.Background(), "ada@example.com", "a long enough password"))
	require.Eventually(t, func() bool { return o.provider.CurrentSession() != nil }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, mr.Exists(cfg.Redis.Key))
}

func TestOpenProviderRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	cfg := testConfig(t)
	cfg.Identity.Provider = "redis"
	cfg.Redis.Addr = addr

	_, err := openProvider(context.Background(), &cfg, false, zerolog.Nop())
	require.Error(t, err)
}
