// internal/vision/verifier_test.go
package vision

import (
	"context"
	"errors"
	"testing"
	"time"

	"sneakscout/internal/common/logger"
	"sneakscout/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClassifier struct {
	verdict bool
	err     error
	calls   int
}

func (f *fakeClassifier) Classify(_ context.Context, _, _ string) (bool, error) {
	f.calls++
	return f.verdict, f.err
}

func testItem() *models.NormalizedItem {
	return &models.NormalizedItem{
		Title:    "Nike Dunk Low",
		ImageURL: "https://cdn.example.com/panda.jpg",
	}
}

func TestVerifier_NoClassifierPassesEverything(t *testing.T) {
	v := NewVerifier(nil, nil, time.Hour, logger.NewTestLogger(t))
	assert.True(t, v.Verify(context.Background(), testItem(), "Dunk Low"))
}

func TestVerifier_CacheShortCircuitsClassifier(t *testing.T) {
	cls := &fakeClassifier{verdict: false}
	v := NewVerifier(cls, NewMemoryCache(), time.Hour, logger.NewTestLogger(t))
	ctx := context.Background()

	assert.False(t, v.Verify(ctx, testItem(), "Dunk Low"))
	assert.Equal(t, 1, cls.calls)

	// Second call with the same image+model hits the cache.
	assert.False(t, v.Verify(ctx, testItem(), "Dunk Low"))
	assert.Equal(t, 1, cls.calls)

	// A different model is a different cache key.
	v.Verify(ctx, testItem(), "Air Force 1")
	assert.Equal(t, 2, cls.calls)
}

func TestVerifier_ClassifierErrorFailsOpen(t *testing.T) {
	cls := &fakeClassifier{err: errors.New("endpoint down")}
	cache := NewMemoryCache()
	v := NewVerifier(cls, cache, time.Hour, logger.NewTestLogger(t))
	ctx := context.Background()

	assert.True(t, v.Verify(ctx, testItem(), "Dunk Low"))
	assert.Equal(t, 1, cls.calls)

	// The fail-open verdict is persisted like any other outcome, so a
	// flapping endpoint is not hammered within a run.
	verdict, ok, err := cache.Get(ctx, CacheKey(testItem().ImageURL, "Dunk Low"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, verdict)

	assert.True(t, v.Verify(ctx, testItem(), "Dunk Low"))
	assert.Equal(t, 1, cls.calls)
}

func TestVerifier_EmptyImageURLFailsOpen(t *testing.T) {
	cls := &fakeClassifier{verdict: false}
	v := NewVerifier(cls, NewMemoryCache(), time.Hour, logger.NewTestLogger(t))

	item := testItem()
	item.ImageURL = ""
	assert.True(t, v.Verify(context.Background(), item, "Dunk Low"))
	assert.Zero(t, cls.calls)
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisCache(client, "")
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "k1", true, time.Minute))
	verdict, ok, err := cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, verdict)

	require.NoError(t, cache.Set(ctx, "k2", false, time.Minute))
	verdict, ok, err = cache.Get(ctx, "k2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, verdict)

	// Expired entries read as misses.
	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_TTL(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", true, time.Nanosecond))
	time.Sleep(5 * time.Millisecond)
	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "forever", true, 0))
	_, ok, _ = cache.Get(ctx, "forever")
	assert.True(t, ok, "zero ttl means no expiry")
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("https://cdn.example.com/a.jpg", "Dunk Low")
	b := CacheKey("https://cdn.example.com/a.jpg", "MB.05")
	c := CacheKey("https://cdn.example.com/b.jpg", "Dunk Low")

	assert.Len(t, a, 40)
	assert.NotEqual(t, a, b, "model participates in the key")
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, CacheKey("https://cdn.example.com/a.jpg", "Dunk Low"))
}
