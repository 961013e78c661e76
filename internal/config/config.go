// Package config defines the configuration structures for the geometry
// validation service.  Only plain data types and validation live here; file
// and environment loading is in loader.go.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters for validation
// report persistence.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters for the canonical SMILES
// cache.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// GeometryConfig holds the loss term weights and the steric clash threshold.
type GeometryConfig struct {
	BondLengthWeight    float64 `mapstructure:"bond_length_weight"`
	BondAngleWeight     float64 `mapstructure:"bond_angle_weight"`
	RingPlanarityWeight float64 `mapstructure:"ring_planarity_weight"`
	StericClashWeight   float64 `mapstructure:"steric_clash_weight"`
	ChiralityWeight     float64 `mapstructure:"chirality_weight"`
	ClashThreshold      float64 `mapstructure:"clash_threshold"`
}

// RefinementConfig holds gradient-descent refinement parameters.
type RefinementConfig struct {
	MaxIterations int     `mapstructure:"max_iterations"`
	StepSize      float64 `mapstructure:"step_size"`
	Tolerance     float64 `mapstructure:"tolerance"`

	// DivergenceLimit aborts a refinement whose loss exceeds this multiple
	// of the starting loss.
	DivergenceLimit float64 `mapstructure:"divergence_limit"`
}

// WorkerConfig holds refinement job pool parameters.
type WorkerConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	QueueDepth  int           `mapstructure:"queue_depth"`
	JobTTL      time.Duration `mapstructure:"job_ttl"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration for the service.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Geometry   GeometryConfig   `mapstructure:"geometry"`
	Refinement RefinementConfig `mapstructure:"refinement"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Log        LogConfig        `mapstructure:"log"`
}

// DSN renders the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate checks the fully-populated Config and returns the first problem
// found.  Any error is fatal; the application must refuse to start.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be >= 1, got %d", c.Database.MaxConns)
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
	}

	for _, w := range []struct {
		name string
		val  float64
	}{
		{"bond_length_weight", c.Geometry.BondLengthWeight},
		{"bond_angle_weight", c.Geometry.BondAngleWeight},
		{"ring_planarity_weight", c.Geometry.RingPlanarityWeight},
		{"steric_clash_weight", c.Geometry.StericClashWeight},
		{"chirality_weight", c.Geometry.ChiralityWeight},
	} {
		if w.val < 0 {
			return fmt.Errorf("config: geometry.%s must be >= 0, got %g", w.name, w.val)
		}
	}
	if c.Geometry.ClashThreshold <= 0 {
		return fmt.Errorf("config: geometry.clash_threshold must be > 0, got %g", c.Geometry.ClashThreshold)
	}

	if c.Refinement.MaxIterations < 1 {
		return fmt.Errorf("config: refinement.max_iterations must be >= 1, got %d", c.Refinement.MaxIterations)
	}
	if c.Refinement.StepSize <= 0 {
		return fmt.Errorf("config: refinement.step_size must be > 0, got %g", c.Refinement.StepSize)
	}
	if c.Refinement.Tolerance < 0 {
		return fmt.Errorf("config: refinement.tolerance must be >= 0, got %g", c.Refinement.Tolerance)
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be >= 1, got %d", c.Worker.Concurrency)
	}
	if c.Worker.QueueDepth < 1 {
		return fmt.Errorf("config: worker.queue_depth must be >= 1, got %d", c.Worker.QueueDepth)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
