package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motifchem/geomval/internal/config"
	"github.com/motifchem/geomval/internal/infrastructure/monitoring/logging"
	"github.com/motifchem/geomval/pkg/errors"
)

type cachedValue struct {
	Canonical string `json:"canonical"`
	Atoms     int    `json:"atoms"`
}

func newTestCache(t *testing.T) (Cache, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	client := &Client{
		rdb: db,
		cfg: config.RedisConfig{KeyPrefix: "geomval:", DefaultTTL: time.Minute},
		log: logging.NewNop(),
	}
	return NewCache(client, logging.NewNop()), mock
}

func TestCacheGetHit(t *testing.T) {
	cache, mock := newTestCache(t)

	want := cachedValue{Canonical: "CCO", Atoms: 9}
	data, _ := json.Marshal(want)
	mock.ExpectGet("geomval:smiles:OCC").SetVal(string(data))

	var got cachedValue
	require.NoError(t, cache.Get(context.Background(), "smiles:OCC", &got))
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheGetMiss(t *testing.T) {
	cache, mock := newTestCache(t)
	mock.ExpectGet("geomval:absent").RedisNil()

	var got cachedValue
	assert.Equal(t, ErrCacheMiss, cache.Get(context.Background(), "absent", &got))
}

func TestCacheSetUsesDefaultTTL(t *testing.T) {
	cache, mock := newTestCache(t)

	val := cachedValue{Canonical: "C", Atoms: 5}
	data, _ := json.Marshal(val)
	mock.ExpectSet("geomval:smiles:C", data, time.Minute).SetVal("OK")

	require.NoError(t, cache.Set(context.Background(), "smiles:C", val, 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheSetExplicitTTL(t *testing.T) {
	cache, mock := newTestCache(t)

	data, _ := json.Marshal("v")
	mock.ExpectSet("geomval:k", data, time.Hour).SetVal("OK")

	require.NoError(t, cache.Set(context.Background(), "k", "v", time.Hour))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheDelete(t *testing.T) {
	cache, mock := newTestCache(t)
	mock.ExpectDel("geomval:a", "geomval:b").SetVal(2)

	require.NoError(t, cache.Delete(context.Background(), "a", "b"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheDeleteNoKeys(t *testing.T) {
	cache, mock := newTestCache(t)
	require.NoError(t, cache.Delete(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheExists(t *testing.T) {
	cache, mock := newTestCache(t)
	mock.ExpectExists("geomval:k").SetVal(1)

	ok, err := cache.Exists(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCacheGetOrSetLoadsOnMiss(t *testing.T) {
	cache, mock := newTestCache(t)

	loaded := cachedValue{Canonical: "CCO", Atoms: 9}
	data, _ := json.Marshal(loaded)
	mock.ExpectGet("geomval:k").RedisNil()
	mock.ExpectSet("geomval:k", data, time.Minute).SetVal("OK")

	var got cachedValue
	calls := 0
	err := cache.GetOrSet(context.Background(), "k", &got, 0,
		func(context.Context) (interface{}, error) {
			calls++
			return loaded, nil
		})
	require.NoError(t, err)
	assert.Equal(t, loaded, got)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheGetOrSetSkipsLoaderOnHit(t *testing.T) {
	cache, mock := newTestCache(t)

	want := cachedValue{Canonical: "CCO"}
	data, _ := json.Marshal(want)
	mock.ExpectGet("geomval:k").SetVal(string(data))

	var got cachedValue
	err := cache.GetOrSet(context.Background(), "k", &got, 0,
		func(context.Context) (interface{}, error) {
			t.Fatal("loader must not run on a cache hit")
			return nil, nil
		})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCacheGetOrSetPropagatesLoaderError(t *testing.T) {
	cache, mock := newTestCache(t)
	mock.ExpectGet("geomval:k").RedisNil()

	var got cachedValue
	err := cache.GetOrSet(context.Background(), "k", &got, 0,
		func(context.Context) (interface{}, error) {
			return nil, errors.New(errors.ErrCodeMoleculeInvalidSMILES, "bad input")
		})
	assert.True(t, errors.IsCode(err, errors.ErrCodeMoleculeInvalidSMILES))
}

func TestCacheDeleteByPrefix(t *testing.T) {
	cache, mock := newTestCache(t)

	mock.ExpectScan(0, "geomval:smiles:*", 100).SetVal([]string{"geomval:smiles:a", "geomval:smiles:b"}, 0)
	mock.ExpectDel("geomval:smiles:a", "geomval:smiles:b").SetVal(2)

	n, err := cache.DeleteByPrefix(context.Background(), "smiles:")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEffectiveTTLJitterStaysWithinBounds(t *testing.T) {
	c := &redisCache{defaultTTL: time.Minute, jitter: true}
	for i := 0; i < 100; i++ {
		ttl := c.effectiveTTL(0)
		assert.GreaterOrEqual(t, ttl, 54*time.Second)
		assert.LessOrEqual(t, ttl, 66*time.Second)
	}
}

func TestClientClosedPing(t *testing.T) {
	db, _ := redismock.NewClientMock()
	client := &Client{rdb: db, log: logging.NewNop()}
	require.NoError(t, client.Close())
	assert.Equal(t, ErrClientClosed, client.Ping(context.Background()))
	// Second close is a no-op.
	assert.NoError(t, client.Close())
}
