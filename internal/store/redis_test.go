package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRedisClient keeps values in a map and mimics go-redis replies.
type mockRedisClient struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newMockRedisClient() *mockRedisClient {
	return &mockRedisClient{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockRedisClient) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return redis.NewStringResult("", m.err)
	}
	value, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (m *mockRedisClient) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return redis.NewStatusResult("", m.err)
	}
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	default:
		m.data[key] = fmt.Sprint(v)
	}
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *mockRedisClient) Ping(_ context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", m.err)
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	client := newMockRedisClient()
	s := NewRedisStore(client, "energy:", time.Hour)
	ctx := context.Background()

	run := sampleRun("r1")
	require.NoError(t, s.SaveRun(ctx, run))

	assert.Contains(t, client.data, "energy:run:r1")
	assert.Contains(t, client.data, "energy:latest")
	assert.Equal(t, time.Hour, client.ttls["energy:run:r1"])

	got, err := s.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.Results, got.Results)

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r1", latest.ID)
}

func TestRedisStore_LatestFollowsLastSave(t *testing.T) {
	s := NewRedisStore(newMockRedisClient(), "p:", 0)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, sampleRun("r1")))
	require.NoError(t, s.SaveRun(ctx, sampleRun("r2")))

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r2", latest.ID)

	older, err := s.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", older.ID)
}

func TestRedisStore_NotFound(t *testing.T) {
	s := NewRedisStore(newMockRedisClient(), "p:", 0)

	_, err := s.LatestRun(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_EmptyCollectionsSurviveRoundTrip(t *testing.T) {
	s := NewRedisStore(newMockRedisClient(), "p:", 0)
	ctx := context.Background()

	run := sampleRun("r1")
	run.Results.Combined = nil
	require.NoError(t, s.SaveRun(ctx, run))

	got, err := s.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.NotNil(t, got.Results.Combined)
	assert.Empty(t, got.Results.Combined)
}

func TestRedisStore_ClientErrors(t *testing.T) {
	client := newMockRedisClient()
	client.err = errors.New("connection refused")
	s := NewRedisStore(client, "p:", 0)
	ctx := context.Background()

	assert.Error(t, s.Ping(ctx))
	assert.Error(t, s.SaveRun(ctx, sampleRun("r1")))

	_, err := s.LatestRun(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
