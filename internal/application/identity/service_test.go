package identity

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motifchem/geomval/internal/infrastructure/database/redis"
	"github.com/motifchem/geomval/internal/infrastructure/monitoring/logging"
	"github.com/motifchem/geomval/pkg/errors"
)

// memoryCache is an in-memory stand-in for the Redis cache.
type memoryCache struct {
	data map[string][]byte
	gets int
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.gets++
	data, ok := c.data[key]
	if !ok {
		return redis.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.sets++
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = data
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memoryCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := c.data[key]
	return ok, nil
}

func (c *memoryCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration,
	loader func(ctx context.Context) (interface{}, error)) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	}
	v, err := loader(ctx)
	if err != nil {
		return err
	}
	if err := c.Set(ctx, key, v, ttl); err != nil {
		return err
	}
	return c.Get(ctx, key, dest)
}

func (c *memoryCache) DeleteByPrefix(_ context.Context, _ string) (int64, error) { return 0, nil }
func (c *memoryCache) Ping(_ context.Context) error                              { return nil }

func TestIsValid(t *testing.T) {
	svc := NewService(logging.NewNop())
	ctx := context.Background()

	assert.True(t, svc.IsValid(ctx, "CCO"))
	assert.True(t, svc.IsValid(ctx, "c1ccccc1"))
	assert.False(t, svc.IsValid(ctx, "C(("))
	assert.False(t, svc.IsValid(ctx, ""))
}

func TestCanonicalInvalidSMILES(t *testing.T) {
	svc := NewService(logging.NewNop())

	_, err := svc.Canonical(context.Background(), "C1CC")
	assert.True(t, errors.IsCode(err, errors.ErrCodeMoleculeInvalidSMILES))
}

func TestCanonicalEquivalentInputsAgree(t *testing.T) {
	svc := NewService(logging.NewNop())
	ctx := context.Background()

	a, err := svc.Canonical(ctx, "CCO")
	require.NoError(t, err)
	b, err := svc.Canonical(ctx, "OCC")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCanonicalUsesCache(t *testing.T) {
	cache := newMemoryCache()
	svc := NewService(logging.NewNop(), WithCache(cache))
	ctx := context.Background()

	first, err := svc.Canonical(ctx, "OCC")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	second, err := svc.Canonical(ctx, "OCC")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	// Second call was served from the cache: no additional write.
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 2, cache.gets)
}

func TestSame(t *testing.T) {
	svc := NewService(logging.NewNop())
	ctx := context.Background()

	same, err := svc.Same(ctx, "CCO", "OCC")
	require.NoError(t, err)
	assert.True(t, same)

	same, err = svc.Same(ctx, "CCO", "CCN")
	require.NoError(t, err)
	assert.False(t, same)

	_, err = svc.Same(ctx, "CCO", "C((")
	assert.True(t, errors.IsCode(err, errors.ErrCodeMoleculeInvalidSMILES))
}

func TestInChIKey(t *testing.T) {
	svc := NewService(logging.NewNop())
	ctx := context.Background()

	key1, err := svc.InChIKey(ctx, "CCO")
	require.NoError(t, err)
	key2, err := svc.InChIKey(ctx, "OCC")
	require.NoError(t, err)
	assert.Equal(t, key1, key2)
	assert.Len(t, key1, 27)

	_, err = svc.InChIKey(ctx, "not smiles!")
	assert.True(t, errors.IsCode(err, errors.ErrCodeMoleculeInvalidSMILES))
}
