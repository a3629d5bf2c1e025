package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/surveyflow/pkg/layout"
)

// EnvPrefix prefixes every environment override, e.g. SURVEYFLOW_SERVER_ADDR.
const EnvPrefix = "SURVEYFLOW_"

// DefaultFile is read when no explicit path is given and it exists.
const DefaultFile = "surveyflow.yaml"

// Store drivers.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the process configuration shared by the CLI, HTTP and MCP front ends.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	MCP       MCPConfig       `mapstructure:"mcp"`
	Store     StoreConfig     `mapstructure:"store"`
	Surveys   SurveysConfig   `mapstructure:"surveys"`
	Condition ConditionConfig `mapstructure:"condition"`
	History   HistoryConfig   `mapstructure:"history"`
	Layout    layout.Options  `mapstructure:"layout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type MCPConfig struct {
	Transport string `mapstructure:"transport"`
	Port      int    `mapstructure:"port"`
}

type StoreConfig struct {
	Driver  string        `mapstructure:"driver"`
	Path    string        `mapstructure:"path"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`

	// EncryptionKey seals stored sessions with AES-256-GCM when set; base64
	// or 32 raw bytes. FallbackKeys still decrypt after a rotation.
	EncryptionKey string   `mapstructure:"encryption_key"`
	FallbackKeys  []string `mapstructure:"fallback_keys"`
	// MaskFields are regular expressions; answers of matching fields are
	// stored as "***".
	MaskFields    []string `mapstructure:"mask_fields"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type SurveysConfig struct {
	Dir string `mapstructure:"dir"`
}

type ConditionConfig struct {
	Sandbox bool `mapstructure:"sandbox"`
}

type HistoryConfig struct {
	Capacity int `mapstructure:"capacity"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		MCP:   MCPConfig{Transport: "stdio", Port: 8081},
		Store: StoreConfig{
			Driver:  StoreMemory,
			Path:    ".surveyflow/sessions",
			LockTTL: 30 * time.Second,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "surveyflow:session:",
			},
		},
		Surveys: SurveysConfig{Dir: "surveys"},
		History: HistoryConfig{Capacity: 50},
		Layout:  layout.DefaultOptions(),
	}
}

// envKeys maps environment variables to configuration paths.
var envKeys = map[string]string{
	"LOG_LEVEL":              "log.level",
	"LOG_FORMAT":             "log.format",
	"SERVER_ADDR":            "server.addr",
	"SERVER_READ_TIMEOUT":    "server.read_timeout",
	"SERVER_WRITE_TIMEOUT":   "server.write_timeout",
	"SERVER_CORS_ORIGINS":    "server.cors_origins",
	"MCP_TRANSPORT":          "mcp.transport",
	"MCP_PORT":               "mcp.port",
	"STORE_DRIVER":           "store.driver",
	"STORE_PATH":             "store.path",
	"STORE_LOCK_TTL":         "store.lock_ttl",
	"STORE_ENCRYPTION_KEY":   "store.encryption_key",
	"STORE_FALLBACK_KEYS":    "store.fallback_keys",
	"STORE_MASK_FIELDS":      "store.mask_fields",
	"REDIS_ADDR":             "store.redis.addr",
	"REDIS_PASSWORD":         "store.redis.password",
	"REDIS_DB":               "store.redis.db",
	"REDIS_PREFIX":           "store.redis.prefix",
	"REDIS_TTL":              "store.redis.ttl",
	"SURVEYS_DIR":            "surveys.dir",
	"CONDITION_SANDBOX":      "condition.sandbox",
	"HISTORY_CAPACITY":       "history.capacity",
	"LAYOUT_DIRECTION":       "layout.direction",
	"LAYOUT_DIMENSION_AWARE": "layout.dimension_aware",
}

// Load builds the configuration from defaults, the YAML file at path and
// SURVEYFLOW_* environment variables, in increasing precedence. An empty path
// reads DefaultFile when present.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	raw := map[string]any{}

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	for env, key := range envKeys {
		if v, ok := lookup(EnvPrefix + env); ok {
			var value any = v
			if listKeys[key] {
				value = splitList(v)
			}
			set(raw, key, value)
		}
	}

	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: must be text or json, got %q", c.Log.Format))
	}
	switch c.MCP.Transport {
	case "stdio", "sse":
	default:
		errs = append(errs, fmt.Errorf("mcp.transport: must be stdio or sse, got %q", c.MCP.Transport))
	}
	switch c.Layout.Direction {
	case layout.TopBottom, layout.LeftRight:
	default:
		errs = append(errs, fmt.Errorf("layout.direction: must be TB or LR, got %q", c.Layout.Direction))
	}
	if c.History.Capacity < 1 {
		errs = append(errs, fmt.Errorf("history.capacity: must be positive"))
	}
	return errors.Join(errs...)
}

var listKeys = map[string]bool{
	"server.cors_origins": true,
	"store.fallback_keys": true,
	"store.mask_fields":   true,
}

func set(m map[string]any, dotted string, value any) {
	parts := strings.Split(dotted, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
