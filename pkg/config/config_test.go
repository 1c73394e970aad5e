// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		envEnvFile, envListenAddr, envMetricsAddr, envLogLevel,
		envServerReadTimeout, envServerWriteTimeout, envServerIdleTimeout,
		envGracefulShutdown, envMaxBodyBytes,
	} {
		// Setenv registers the restore; unset so dotenv files can populate the key.
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultListenAddr, cfg.ListenAddr)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.ServerReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.ServerWriteTimeout)
	assert.Equal(t, 120*time.Second, cfg.ServerIdleTimeout)
	assert.Equal(t, 10*time.Second, cfg.GracefulShutdownTimeout)
	assert.Equal(t, int64(10<<20), cfg.MaxBodyBytes)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(envListenAddr, "0.0.0.0:9000")
	t.Setenv(envMetricsAddr, "127.0.0.1:9100")
	t.Setenv(envLogLevel, "DEBUG")
	t.Setenv(envServerWriteTimeout, "5s")
	t.Setenv(envServerIdleTimeout, "not-a-duration")
	t.Setenv(envMaxBodyBytes, "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.ListenAddr)
	assert.Equal(t, "127.0.0.1:9100", cfg.MetricsAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.ServerWriteTimeout)
	assert.Equal(t, defaultServerIdleTimeout, cfg.ServerIdleTimeout, "unparsable durations fall back")
	assert.Zero(t, cfg.MaxBodyBytes)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]struct {
		key   string
		value string
	}{
		"log level":     {envLogLevel, "loud"},
		"body size":     {envMaxBodyBytes, "lots"},
		"negative size": {envMaxBodyBytes, "-1"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "relay.env")
	require.NoError(t, os.WriteFile(path, []byte("RELAY_LISTEN_ADDR=127.0.0.1:7070\n"), 0o600))
	t.Setenv(envEnvFile, path)

	got, loaded := LoadEnvFile()
	require.True(t, loaded)
	assert.Equal(t, path, got)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7070", cfg.ListenAddr)
}

func TestLoadEnvFileMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv(envEnvFile, filepath.Join(t.TempDir(), "absent.env"))

	_, loaded := LoadEnvFile()
	assert.False(t, loaded)
}
