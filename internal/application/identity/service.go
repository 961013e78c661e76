// Package identity provides the application-level service for molecule
// identity operations: SMILES validation, canonicalization, and identity
// comparison.  Canonical forms are cached in Redis keyed by the raw input
// string.
package identity

import (
	"context"

	"github.com/motifchem/geomval/internal/domain/molecule"
	"github.com/motifchem/geomval/internal/infrastructure/database/redis"
	"github.com/motifchem/geomval/internal/infrastructure/monitoring/logging"
	"github.com/motifchem/geomval/internal/infrastructure/monitoring/prometheus"
	"github.com/motifchem/geomval/pkg/errors"
)

// Service defines the molecule identity operations.
type Service interface {
	IsValid(ctx context.Context, smiles string) bool
	Canonical(ctx context.Context, smiles string) (string, error)
	Same(ctx context.Context, a, b string) (bool, error)
	InChIKey(ctx context.Context, smiles string) (string, error)
}

const cacheKeyPrefix = "canonical:"

type serviceImpl struct {
	cache   redis.Cache
	metrics *prometheus.AppMetrics
	log     logging.Logger
}

// Option customises service construction.
type Option func(*serviceImpl)

// WithCache enables canonical-form caching.
func WithCache(cache redis.Cache) Option {
	return func(s *serviceImpl) { s.cache = cache }
}

// WithMetrics enables canonicalization and cache counters.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(s *serviceImpl) { s.metrics = m }
}

// NewService creates a molecule identity service.  Cache and metrics are
// optional.
func NewService(log logging.Logger, opts ...Option) Service {
	s := &serviceImpl{log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *serviceImpl) IsValid(_ context.Context, smiles string) bool {
	return molecule.IsValid(smiles)
}

// Canonical returns the canonical form of smiles, consulting the cache
// first.  Invalid input yields a MOL_001 error rather than an empty string.
func (s *serviceImpl) Canonical(ctx context.Context, smiles string) (string, error) {
	if s.cache != nil {
		var cached string
		if err := s.cache.Get(ctx, cacheKeyPrefix+smiles, &cached); err == nil {
			s.recordCache(true)
			return cached, nil
		} else if err != redis.ErrCacheMiss {
			s.log.Warn("canonical cache read failed",
				logging.String("smiles", smiles), logging.Err(err))
		}
		s.recordCache(false)
	}

	canonical := molecule.CanonicalForm(smiles)
	if canonical == "" {
		s.recordCanonicalization("invalid")
		return "", errors.Newf(errors.ErrCodeMoleculeInvalidSMILES,
			"cannot canonicalize %q", smiles)
	}
	s.recordCanonicalization("ok")

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKeyPrefix+smiles, canonical, 0); err != nil {
			s.log.Warn("canonical cache write failed",
				logging.String("smiles", smiles), logging.Err(err))
		}
	}
	return canonical, nil
}

// Same reports whether two SMILES strings denote the same molecular graph.
// Either input being invalid is an error, matching the strictness of the
// HTTP surface rather than the permissive false of the domain helper.
func (s *serviceImpl) Same(ctx context.Context, a, b string) (bool, error) {
	ca, err := s.Canonical(ctx, a)
	if err != nil {
		return false, err
	}
	cb, err := s.Canonical(ctx, b)
	if err != nil {
		return false, err
	}
	return ca == cb, nil
}

func (s *serviceImpl) InChIKey(ctx context.Context, smiles string) (string, error) {
	key := molecule.InChIKey(smiles)
	if key == "" {
		return "", errors.Newf(errors.ErrCodeMoleculeInvalidSMILES,
			"cannot derive identity key from %q", smiles)
	}
	return key, nil
}

func (s *serviceImpl) recordCache(hit bool) {
	if s.metrics != nil {
		prometheus.RecordCacheAccess(s.metrics, "canonical", hit)
	}
}

func (s *serviceImpl) recordCanonicalization(result string) {
	if s.metrics != nil {
		s.metrics.CanonicalizationsTotal.WithLabelValues(result).Inc()
	}
}
