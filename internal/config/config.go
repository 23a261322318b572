// Package config loads pagebuilder.yaml and PAGEBUILDER_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "pagebuilder.yaml"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config is the full runtime configuration.
type Config struct {
	Store StoreConfig `mapstructure:"store"`
	Log   LogConfig   `mapstructure:"log"`
	HTTP  HTTPConfig  `mapstructure:"http"`
	MCP   MCPConfig   `mapstructure:"mcp"`
}

// StoreConfig selects and configures the snapshot store.
type StoreConfig struct {
	Backend string       `mapstructure:"backend"`
	Dir     string       `mapstructure:"dir"`
	Redis   RedisConfig  `mapstructure:"redis"`
	SQLite  SQLiteConfig `mapstructure:"sqlite"`
	// EncryptionKey is a hex encoded AES-256 key. Empty disables encryption.
	EncryptionKey string `mapstructure:"encryption_key"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

// MCPConfig configures the MCP server. Port 0 means stdio transport.
type MCPConfig struct {
	Port int `mapstructure:"port"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend: BackendFile,
			Dir:     ".pagebuilder/documents",
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "pagebuilder:doc:"},
			SQLite:  SQLiteConfig{Path: ".pagebuilder/documents.sqlite"},
		},
		Log:  LogConfig{Level: "info", Format: "text"},
		HTTP: HTTPConfig{Port: 8080},
	}
}

// envKeys maps environment variables to dotted config paths.
var envKeys = map[string]string{
	"PAGEBUILDER_STORE_BACKEND":        "store.backend",
	"PAGEBUILDER_STORE_DIR":            "store.dir",
	"PAGEBUILDER_STORE_ENCRYPTION_KEY": "store.encryption_key",
	"PAGEBUILDER_REDIS_ADDR":           "store.redis.addr",
	"PAGEBUILDER_REDIS_PASSWORD":       "store.redis.password",
	"PAGEBUILDER_REDIS_DB":             "store.redis.db",
	"PAGEBUILDER_REDIS_PREFIX":         "store.redis.prefix",
	"PAGEBUILDER_REDIS_TTL":            "store.redis.ttl",
	"PAGEBUILDER_SQLITE_PATH":          "store.sqlite.path",
	"PAGEBUILDER_LOG_LEVEL":            "log.level",
	"PAGEBUILDER_LOG_FORMAT":           "log.format",
	"PAGEBUILDER_LOG_FILE":             "log.file",
	"PAGEBUILDER_HTTP_PORT":            "http.port",
	"PAGEBUILDER_MCP_PORT":             "mcp.port",
}

// Load reads path (or DefaultFile when path is empty) on top of Default and
// applies environment overrides. A missing default file is not an error; a
// missing explicit path is.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	raw := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	for env, key := range envKeys {
		if v, ok := lookup(env); ok {
			set(raw, key, v)
		}
	}

	cfg := Default()
	if err := Decode(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Decode merges a generic map (from YAML, flags or env) into out.
// Scalars are weakly typed so "8080" fills an int and "1h" a duration.
func Decode(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		Result:           out,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Set assigns value at a dotted path, e.g. "store.backend".
func Set(raw map[string]any, key string, value any) {
	set(raw, key, value)
}

func set(raw map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	node := raw
	for _, p := range parts[:len(parts)-1] {
		child, ok := node[p].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[p] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = value
}

// Validate rejects values no component can act on.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.HTTP.Port)
	}
	if c.MCP.Port < 0 || c.MCP.Port > 65535 {
		return fmt.Errorf("invalid mcp port %d", c.MCP.Port)
	}
	return nil
}
