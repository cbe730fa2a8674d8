// In file: cmd/gateway/config.go
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dileep-u-k/hn-gateway/internal/hackernews"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// ServerConfig holds the settings of the gateway process itself.
type ServerConfig struct {
	Port                string        `yaml:"port"`
	Transport           string        `yaml:"transport"`
	LogLevel            string        `yaml:"log_level"`
	RedisAddr           string        `yaml:"redis_addr"`
	CORSOrigins         []string      `yaml:"cors_origins"`
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
}

// AppConfig holds all configuration for the gateway, loaded from config.yaml and the environment.
type AppConfig struct {
	Server   ServerConfig      `yaml:"server"`
	Upstream hackernews.Config `yaml:"upstream"`
}

func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:                "8000",
			Transport:           TransportHTTP,
			LogLevel:            "info",
			CORSOrigins:         []string{"*"},
			HealthCheckInterval: 5 * time.Minute,
		},
		Upstream: hackernews.DefaultConfig(),
	}
}

// LoadConfig loads configuration from a .env file, an optional YAML file and
// environment variables, in increasing order of precedence.
func LoadConfig() (*AppConfig, error) {
	// In Docker (GIN_MODE=release) configuration comes straight from the environment.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			logrus.Debug("No .env file found for local development.")
		}
	}

	cfg := defaultAppConfig()

	path := os.Getenv("CONFIG_FILE")
	explicit := path != ""
	if !explicit {
		path = "config.yaml"
	}
	if err := cfg.loadFile(path, explicit); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays the YAML file at path. A missing default file is not an error.
func (c *AppConfig) loadFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *AppConfig) applyEnv() error {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.Transport, "MCP_TRANSPORT")
	setString(&c.Server.LogLevel, "LOG_LEVEL")
	setString(&c.Server.RedisAddr, "REDIS_ADDR")
	setString(&c.Upstream.APIBase, "HN_API_BASE")
	setString(&c.Upstream.SearchURL, "HN_SEARCH_URL")

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Server.CORSOrigins = origins
	}

	if v := os.Getenv("HEALTH_CHECK_INTERVAL"); v != "" {
		if v == "0" {
			c.Server.HealthCheckInterval = 0
		} else {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid HEALTH_CHECK_INTERVAL %q: %w", v, err)
			}
			c.Server.HealthCheckInterval = d
		}
	}

	if v := os.Getenv("HN_REQUESTS_PER_SECOND"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid HN_REQUESTS_PER_SECOND %q: %w", v, err)
		}
		c.Upstream.RequestsPerSecond = rps
	}

	if v := os.Getenv("HN_MAX_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid HN_MAX_CONCURRENCY %q: %w", v, err)
		}
		c.Upstream.MaxConcurrency = n
	}
	return nil
}

func (c *AppConfig) validate() error {
	switch c.Server.Transport {
	case TransportHTTP, TransportStdio:
	default:
		return fmt.Errorf("MCP_TRANSPORT must be %q or %q, got %q", TransportHTTP, TransportStdio, c.Server.Transport)
	}
	if _, err := logrus.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if c.Server.HealthCheckInterval < 0 {
		return fmt.Errorf("HEALTH_CHECK_INTERVAL must not be negative")
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
