package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"

	"github.com/motifchem/geomval/internal/config"
)

func TestConfigurePool(t *testing.T) {
	t.Run("applies custom settings", func(t *testing.T) {
		cfg := config.DatabaseConfig{
			MaxConns:        50,
			MinConns:        10,
			ConnMaxLifetime: 2 * time.Hour,
		}
		poolCfg := &pgxpool.Config{}
		configurePool(poolCfg, cfg)

		assert.Equal(t, int32(50), poolCfg.MaxConns)
		assert.Equal(t, int32(10), poolCfg.MinConns)
		assert.Equal(t, 2*time.Hour, poolCfg.MaxConnLifetime)
	})

	t.Run("leaves pgx defaults for zero values", func(t *testing.T) {
		poolCfg := &pgxpool.Config{MaxConns: 25}
		configurePool(poolCfg, config.DatabaseConfig{})
		assert.Equal(t, int32(25), poolCfg.MaxConns)
	})
}

func TestRollbackMigrationRejectsNonPositiveSteps(t *testing.T) {
	assert.Error(t, RollbackMigration("postgres://x", "file://migrations", 0))
	assert.Error(t, RollbackMigration("postgres://x", "file://migrations", -3))
}
