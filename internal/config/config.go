package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// DatabaseURL selects the storage engine. postgres:// and postgresql:// URLs
	// use PostgreSQL; anything else is treated as a SQLite path.
	// Empty means <baseDir>/abacus.db.
	DatabaseURL string `json:"database_url,omitempty"`

	// Host and Port are the HTTP listen address.
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`

	// StaticDir holds the prebuilt frontend bundle. Missing is fine.
	StaticDir string `json:"static_dir,omitempty"`

	// CORSOrigin is sent as Access-Control-Allow-Origin on every response.
	CORSOrigin string `json:"cors_origin,omitempty"`

	// LogLevel is a logrus level name (debug, info, warn, error).
	LogLevel string `json:"log_level,omitempty"`

	// LogFormat is "text" or "json".
	LogFormat string `json:"log_format,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// envOverlay is the subset of Config settable through the environment.
type envOverlay struct {
	DatabaseURL    string `env:"DATABASE_URL"`
	Host           string `env:"HOST"`
	Port           int    `env:"PORT"`
	StaticDir      string `env:"STATIC_DIR"`
	CORSOrigin     string `env:"CORS_ORIGIN"`
	LogLevel       string `env:"LOG_LEVEL"`
	LogFormat      string `env:"LOG_FORMAT"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns int    `env:"DB_MAX_IDLE_CONNS"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:       "0.0.0.0",
		Port:       5000,
		StaticDir:  filepath.Join("dist", "public"),
		CORSOrigin: "*",
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load builds the configuration from defaults, baseDir/config.json,
// .env files (baseDir/.env, then ./.env) and the process environment.
// Later sources win. Variables already set in the environment are never
// overwritten by .env files.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}

	if err := loadEnvFiles(filepath.Join(baseDir, ".env"), ".env"); err != nil {
		return nil, err
	}

	env, err := decodeEnv()
	if err != nil {
		return nil, err
	}

	return Merge(cfg, env), nil
}

// loadEnvFiles loads each existing dotenv file into the process environment.
func loadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// decodeEnv reads the environment overlay. Returns zero config if no
// variables are set. A value that does not parse is an error.
func decodeEnv() (*Config, error) {
	var env envOverlay
	if err := envdecode.StrictDecode(&env); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}
	return &Config{
		DatabaseURL:    env.DatabaseURL,
		Host:           env.Host,
		Port:           env.Port,
		StaticDir:      env.StaticDir,
		CORSOrigin:     env.CORSOrigin,
		LogLevel:       env.LogLevel,
		LogFormat:      env.LogFormat,
		DBMaxOpenConns: env.DBMaxOpenConns,
		DBMaxIdleConns: env.DBMaxIdleConns,
	}, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		DatabaseURL:    pickString(overlay.DatabaseURL, base.DatabaseURL),
		Host:           pickString(overlay.Host, base.Host),
		Port:           pickInt(overlay.Port, base.Port),
		StaticDir:      pickString(overlay.StaticDir, base.StaticDir),
		CORSOrigin:     pickString(overlay.CORSOrigin, base.CORSOrigin),
		LogLevel:       pickString(overlay.LogLevel, base.LogLevel),
		LogFormat:      pickString(overlay.LogFormat, base.LogFormat),
		DBMaxOpenConns: pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns: pickInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func pickString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
