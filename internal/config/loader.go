package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for all service settings.
const envPrefix = "GEOMVAL"

// newViper builds a viper instance with the service conventions: YAML files,
// GEOMVAL_ env prefix, automatic env binding, and "." → "_" key mapping so
// "database.host" resolves from GEOMVAL_DATABASE_HOST.
// configKeys lists every settable key.  Viper only surfaces environment
// values through Unmarshal for keys it knows about, so each one is bound
// explicitly.
var configKeys = []string{
	"server.port", "server.mode", "server.read_timeout",
	"server.write_timeout", "server.shutdown_timeout",
	"database.host", "database.port", "database.user", "database.password",
	"database.db_name", "database.ssl_mode", "database.max_conns",
	"database.min_conns", "database.conn_max_lifetime", "database.migration_path",
	"redis.addr", "redis.password", "redis.db", "redis.pool_size",
	"redis.dial_timeout", "redis.read_timeout", "redis.write_timeout",
	"redis.default_ttl", "redis.key_prefix",
	"geometry.bond_length_weight", "geometry.bond_angle_weight",
	"geometry.ring_planarity_weight", "geometry.steric_clash_weight",
	"geometry.chirality_weight", "geometry.clash_threshold",
	"refinement.max_iterations", "refinement.step_size",
	"refinement.tolerance", "refinement.divergence_limit",
	"worker.concurrency", "worker.queue_depth", "worker.job_ttl",
	"log.level", "log.format", "log.output",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads the YAML file at configPath, merges GEOMVAL_* environment
// overrides, applies defaults, and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %q: %w", configPath, err)
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from GEOMVAL_* environment variables alone,
// for container deployments that carry no config file.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshalling: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// Watch monitors configPath and invokes onChange with each successfully
// reloaded Config.  A change that fails to parse or validate is dropped so
// the application never observes a broken configuration.  Non-blocking;
// viper manages the watching goroutine.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
}

// MustLoad panics on any load error; for use in main where a configuration
// failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
