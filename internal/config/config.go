package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Storage drivers for the entries repository.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config contains runtime configuration required by the service.
type Config struct {
	Addr string

	StorageDriver    string
	DBURL            string
	RedisURL         string
	RedisMaxEntries  int
	MemoryMaxEntries int

	TelescopeEnabled bool
	APIKeys          map[string]string // apiKey -> client name

	PayloadPolicy   string
	RegisterHooks   bool
	RoutePattern    string
	MechanismMarker string
	Components      map[string]string // component name -> class

	ResponseSizeLimitKB int
	HiddenHeaders       []string
	HiddenParameters    []string
	IgnorePaths         []string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from an optional config.yaml and the environment.
// Environment variables win; keys are the upper-cased names below.
// TELESCOPE_API_KEYS format: "name1:key1,name2:key2"
func Load(configPath string) (Config, error) {
	v := viper.New()

	v.SetDefault("addr", ":8080")
	v.SetDefault("storage_driver", DriverMemory)
	v.SetDefault("redis_max_entries", 1000)
	v.SetDefault("memory_max_entries", 1000)
	v.SetDefault("telescope_enabled", true)
	v.SetDefault("payload_policy", "params")
	v.SetDefault("livewire_register_hooks", true)
	v.SetDefault("livewire_route_pattern", "*livewire.*")
	v.SetDefault("livewire_mechanism_marker", "livewire/mechanisms")
	v.SetDefault("response_size_limit_kb", 64)
	v.SetDefault("hidden_headers", "authorization,php-auth-pw,cookie")
	v.SetDefault("hidden_parameters", "password,password_confirmation")
	v.SetDefault("ignore_paths", "/telescope/**,/health,/ready")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	apiKeys, err := parseAPIKeys(v.GetString("telescope_api_keys"))
	if err != nil {
		return Config{}, err
	}

	components, err := parsePairs(v.GetString("livewire_components"))
	if err != nil {
		return Config{}, fmt.Errorf(`LIVEWIRE_COMPONENTS must be "name:class,name:class": %w`, err)
	}

	cfg := Config{
		Addr:                strings.TrimSpace(v.GetString("addr")),
		StorageDriver:       strings.ToLower(strings.TrimSpace(v.GetString("storage_driver"))),
		DBURL:               strings.TrimSpace(v.GetString("db_url")),
		RedisURL:            strings.TrimSpace(v.GetString("redis_url")),
		RedisMaxEntries:     v.GetInt("redis_max_entries"),
		MemoryMaxEntries:    v.GetInt("memory_max_entries"),
		TelescopeEnabled:    v.GetBool("telescope_enabled"),
		APIKeys:             apiKeys,
		PayloadPolicy:       strings.TrimSpace(v.GetString("payload_policy")),
		RegisterHooks:       v.GetBool("livewire_register_hooks"),
		RoutePattern:        strings.TrimSpace(v.GetString("livewire_route_pattern")),
		MechanismMarker:     strings.TrimSpace(v.GetString("livewire_mechanism_marker")),
		Components:          components,
		ResponseSizeLimitKB: v.GetInt("response_size_limit_kb"),
		HiddenHeaders:       splitList(v.GetString("hidden_headers")),
		HiddenParameters:    splitList(v.GetString("hidden_parameters")),
		IgnorePaths:         splitList(v.GetString("ignore_paths")),
		LogLevel:            v.GetString("log_level"),
		LogFormat:           v.GetString("log_format"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// maxResponseSizeLimitKB matches the response capture bound in package events;
// a larger limit could never be reached.
const maxResponseSizeLimitKB = 1024

func (c Config) validate() error {
	switch c.StorageDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.DBURL == "" {
			return errors.New("DB_URL required for postgres storage")
		}
	case DriverRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL required for redis storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.ResponseSizeLimitKB <= 0 {
		return errors.New("RESPONSE_SIZE_LIMIT_KB must be positive")
	}
	if c.ResponseSizeLimitKB > maxResponseSizeLimitKB {
		return fmt.Errorf("RESPONSE_SIZE_LIMIT_KB must not exceed %d", maxResponseSizeLimitKB)
	}
	return nil
}

func parseAPIKeys(raw string) (map[string]string, error) {
	pairs, err := parsePairs(raw)
	if err != nil {
		return nil, fmt.Errorf(`TELESCOPE_API_KEYS must be "name:key,name:key": %w`, err)
	}

	apiKeys := make(map[string]string, len(pairs))
	for name, key := range pairs {
		apiKeys[key] = name
	}

	// Local dev fallback so the dashboard API works out-of-the-box.
	if len(apiKeys) == 0 {
		apiKeys["telescope-key-123"] = "local"
	}
	return apiKeys, nil
}

// parsePairs reads "left:right,left:right" into left -> right.
func parsePairs(raw string) (map[string]string, error) {
	out := map[string]string{}
	for _, p := range splitList(raw) {
		parts := strings.SplitN(p, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed pair %q", p)
		}
		left := strings.TrimSpace(parts[0])
		right := strings.TrimSpace(parts[1])
		if left == "" || right == "" {
			return nil, fmt.Errorf("malformed pair %q", p)
		}
		out[left] = right
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
