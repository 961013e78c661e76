package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "geomval"
	DefaultDBMaxConns = 25

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisTTL       = 24 * time.Hour
	DefaultRedisKeyPrefix = "geomval:"

	DefaultBondLengthWeight    = 1.0
	DefaultBondAngleWeight     = 0.5
	DefaultRingPlanarityWeight = 0.3
	DefaultStericClashWeight   = 0.2
	DefaultChiralityWeight     = 0.2
	DefaultClashThreshold      = 0.75

	DefaultRefineMaxIterations   = 500
	DefaultRefineStepSize        = 0.01
	DefaultRefineTolerance       = 1e-8
	DefaultRefineDivergenceLimit = 100.0

	DefaultWorkerConcurrency = 4
	DefaultWorkerQueueDepth  = 64
	DefaultJobTTL            = time.Hour

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills zero-value fields in cfg with the service defaults.
// Explicitly configured values are never overwritten.  Call it after
// unmarshalling and before Validate so defaulted fields are never reported
// missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "geomval"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = "migrations"
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.DefaultTTL == 0 {
		cfg.Redis.DefaultTTL = DefaultRedisTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// Geometry weights: zero is a meaningful explicit value for a weight,
	// but an entirely zero section means unset, so defaults apply as a
	// block.
	if cfg.Geometry == (GeometryConfig{}) {
		cfg.Geometry = GeometryConfig{
			BondLengthWeight:    DefaultBondLengthWeight,
			BondAngleWeight:     DefaultBondAngleWeight,
			RingPlanarityWeight: DefaultRingPlanarityWeight,
			StericClashWeight:   DefaultStericClashWeight,
			ChiralityWeight:     DefaultChiralityWeight,
			ClashThreshold:      DefaultClashThreshold,
		}
	}
	if cfg.Geometry.ClashThreshold == 0 {
		cfg.Geometry.ClashThreshold = DefaultClashThreshold
	}

	if cfg.Refinement.MaxIterations == 0 {
		cfg.Refinement.MaxIterations = DefaultRefineMaxIterations
	}
	if cfg.Refinement.StepSize == 0 {
		cfg.Refinement.StepSize = DefaultRefineStepSize
	}
	if cfg.Refinement.Tolerance == 0 {
		cfg.Refinement.Tolerance = DefaultRefineTolerance
	}
	if cfg.Refinement.DivergenceLimit == 0 {
		cfg.Refinement.DivergenceLimit = DefaultRefineDivergenceLimit
	}

	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.QueueDepth == 0 {
		cfg.Worker.QueueDepth = DefaultWorkerQueueDepth
	}
	if cfg.Worker.JobTTL == 0 {
		cfg.Worker.JobTTL = DefaultJobTTL
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
