// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envPort               = "PORT"
	envUpstreamURL        = "USERS_UPSTREAM_URL"
	envUpstreamToken      = "USERS_UPSTREAM_TOKEN"
	envRequestTimeout     = "USERS_REQUEST_TIMEOUT"
	envLogLevel           = "USERS_LOG_LEVEL"
	envServerReadTimeout  = "USERS_SERVER_READ_TIMEOUT"
	envServerWriteTimeout = "USERS_SERVER_WRITE_TIMEOUT"
	envServerIdleTimeout  = "USERS_SERVER_IDLE_TIMEOUT"
	envGracefulShutdown   = "USERS_GRACEFUL_SHUTDOWN"

	// defaultUpstreamURL points at the Backendless data table that owns the
	// user records. The proxy never persists anything locally.
	defaultUpstreamURL = "https://strongquestion-us.backendless.app/api/data/users1"

	defaultPort               = 5000
	defaultRequestTimeout     = 15 * time.Second
	defaultLogLevel           = "info"
	defaultServerReadTimeout  = 30 * time.Second
	defaultServerWriteTimeout = 30 * time.Second
	defaultServerIdleTimeout  = 120 * time.Second
	defaultGracefulShutdown   = 10 * time.Second
)

// Config captures runtime settings for the proxy.
type Config struct {
	ListenAddr              string
	Upstream                *url.URL
	UpstreamToken           string
	RequestTimeout          time.Duration
	LogLevel                string
	ServerReadTimeout       time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	GracefulShutdownTimeout time.Duration
}

// Load reads configuration from environment variables and validates required
// values. A .env file in the working directory is honoured when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	upstreamRaw := getString(envUpstreamURL, defaultUpstreamURL)

	upstream, err := url.Parse(upstreamRaw)
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", envUpstreamURL, err)
	}
	if !upstream.IsAbs() {
		return Config{}, fmt.Errorf("%s must be absolute (scheme://host)", envUpstreamURL)
	}

	cfg := Config{
		ListenAddr:              fmt.Sprintf("0.0.0.0:%d", getInt(envPort, defaultPort)),
		Upstream:                upstream,
		UpstreamToken:           strings.TrimSpace(os.Getenv(envUpstreamToken)),
		RequestTimeout:          getDuration(envRequestTimeout, defaultRequestTimeout),
		LogLevel:                strings.ToLower(getString(envLogLevel, defaultLogLevel)),
		ServerReadTimeout:       getDuration(envServerReadTimeout, defaultServerReadTimeout),
		ServerWriteTimeout:      getDuration(envServerWriteTimeout, defaultServerWriteTimeout),
		ServerIdleTimeout:       getDuration(envServerIdleTimeout, defaultServerIdleTimeout),
		GracefulShutdownTimeout: getDuration(envGracefulShutdown, defaultGracefulShutdown),
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
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
