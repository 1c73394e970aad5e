// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	envEnvFile                = "RELAY_ENV_FILE"
	envListenAddr             = "RELAY_LISTEN_ADDR"
	envMetricsAddr            = "RELAY_METRICS_ADDR"
	envLogLevel               = "RELAY_LOG_LEVEL"
	envServerReadTimeout      = "RELAY_SERVER_READ_TIMEOUT"
	envServerWriteTimeout     = "RELAY_SERVER_WRITE_TIMEOUT"
	envServerIdleTimeout      = "RELAY_SERVER_IDLE_TIMEOUT"
	envGracefulShutdown       = "RELAY_GRACEFUL_SHUTDOWN"
	envMaxBodyBytes           = "RELAY_MAX_BODY_BYTES"
	defaultEnvFile            = ".env"
	defaultListenAddr         = "127.0.0.1:8080"
	defaultLogLevel           = "info"
	defaultServerReadTimeout  = 30 * time.Second
	defaultServerWriteTimeout = 60 * time.Second
	defaultServerIdleTimeout  = 120 * time.Second
	defaultGracefulShutdown   = 10 * time.Second
	defaultMaxBodyBytes       = 10 << 20
)

// Config captures the settings of the hosting process. The relay operation
// itself takes everything it needs from the inbound request.
type Config struct {
	ListenAddr string
	// MetricsAddr is the listener for /metrics; empty disables it.
	MetricsAddr             string
	LogLevel                string
	ServerReadTimeout       time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	GracefulShutdownTimeout time.Duration
	// MaxBodyBytes caps the inbound body; zero means unlimited.
	MaxBodyBytes int64
}

// LoadEnvFile populates the process environment from a dotenv file. The path
// comes from RELAY_ENV_FILE and defaults to .env. Variables already present in
// the environment win. It reports whether a file was loaded.
func LoadEnvFile() (string, bool) {
	path := getString(envEnvFile, defaultEnvFile)
	if err := godotenv.Load(path); err != nil {
		return path, false
	}
	return path, true
}

// Load reads configuration from environment variables and validates it.
func Load() (Config, error) {
	maxBody, err := getInt64(envMaxBodyBytes, defaultMaxBodyBytes)
	if err != nil {
		return Config{}, err
	}
	if maxBody < 0 {
		return Config{}, fmt.Errorf("%s must not be negative, got %d", envMaxBodyBytes, maxBody)
	}

	cfg := Config{
		ListenAddr:              getString(envListenAddr, defaultListenAddr),
		MetricsAddr:             strings.TrimSpace(os.Getenv(envMetricsAddr)),
		LogLevel:                strings.ToLower(getString(envLogLevel, defaultLogLevel)),
		ServerReadTimeout:       getDuration(envServerReadTimeout, defaultServerReadTimeout),
		ServerWriteTimeout:      getDuration(envServerWriteTimeout, defaultServerWriteTimeout),
		ServerIdleTimeout:       getDuration(envServerIdleTimeout, defaultServerIdleTimeout),
		GracefulShutdownTimeout: getDuration(envGracefulShutdown, defaultGracefulShutdown),
		MaxBodyBytes:            maxBody,
	}

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", envLogLevel, err)
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getInt64(key string, fallback int64) (int64, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}
