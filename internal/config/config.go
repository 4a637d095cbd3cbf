// Package config loads process configuration from defaults, an optional
// YAML file and STOREFRONT_* environment variables, in increasing order of
// precedence.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/storefront/internal/engine"
	"github.com/roach88/storefront/internal/rules"
	"github.com/roach88/storefront/internal/store"
)

// EnvPrefix prefixes every configuration environment variable.
const EnvPrefix = "STOREFRONT"

// Config is the process configuration.
type Config struct {
	// Host is the interface services listen on.
	Host string `mapstructure:"host"`

	// Backend names the store backend: memory or sqlite.
	Backend string `mapstructure:"backend"`

	// SuccessRate is the probability that a simulated payment capture or
	// notification delivery succeeds.
	SuccessRate float64 `mapstructure:"success_rate"`

	// Seed loads each collection's seed records at start.
	Seed bool `mapstructure:"seed"`

	// Rules is an optional CUE file replacing the built-in rule table.
	Rules string `mapstructure:"rules"`

	// Ports overrides default listening ports by collection.
	Ports map[string]int `mapstructure:"ports"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Host:        "",
		Backend:     store.BackendMemory,
		SuccessRate: engine.DefaultSuccessRate,
		Seed:        true,
		Ports:       map[string]int{},
	}
}

// Load reads configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (*Config, error) {
	def := Default()

	v := viper.New()
	v.SetDefault("host", def.Host)
	v.SetDefault("backend", def.Backend)
	v.SetDefault("success_rate", def.SuccessRate)
	v.SetDefault("seed", def.Seed)
	v.SetDefault("rules", def.Rules)
	v.SetDefault("ports", def.Ports)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Ports == nil {
		cfg.Ports = map[string]int{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Backend {
	case store.BackendMemory, store.BackendSQLite:
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", store.BackendMemory, store.BackendSQLite, c.Backend)
	}
	if c.SuccessRate < 0 || c.SuccessRate > 1 {
		return fmt.Errorf("success_rate must be within [0, 1], got %v", c.SuccessRate)
	}
	for collection, port := range c.Ports {
		if port < 0 || port > 65535 {
			return fmt.Errorf("ports.%s: %d is not a valid port", collection, port)
		}
	}
	return nil
}

// Port resolves the listening port of an entity.
//
// Precedence: the entity's own variable (e.g. USERS_PORT), then PORT when
// only one service runs in the process, then the config file's ports
// entry, then the entity's default port.
func (c *Config) Port(entity *rules.Entity, single bool, getenv func(string) string) (int, error) {
	if entity.PortEnv != "" {
		if raw := getenv(entity.PortEnv); raw != "" {
			return parsePort(entity.PortEnv, raw)
		}
	}
	if single {
		if raw := getenv("PORT"); raw != "" {
			return parsePort("PORT", raw)
		}
	}
	if port, ok := c.Ports[entity.Collection]; ok {
		return port, nil
	}
	return entity.Port, nil
}

func parsePort(name, raw string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || port < 0 || port > 65535 {
		return 0, fmt.Errorf("%s=%q is not a valid port", name, raw)
	}
	return port, nil
}
