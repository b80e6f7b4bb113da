package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/bobby-s-dev/energy-site-navigator/internal/models"
)

// RedisClient is the subset of *redis.Client the store needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisStore persists runs as JSON under "<prefix>run:<id>", with the latest
// one also written to "<prefix>latest".
type RedisStore struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client RedisClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) runKey(id string) string {
	return s.prefix + "run:" + id
}

func (s *RedisStore) latestKey() string {
	return s.prefix + "latest"
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) SaveRun(ctx context.Context, run models.AnalysisRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	if err := s.client.Set(ctx, s.runKey(run.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store run %s: %w", run.ID, err)
	}
	if err := s.client.Set(ctx, s.latestKey(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store latest run: %w", err)
	}
	return nil
}

func (s *RedisStore) LatestRun(ctx context.Context) (models.AnalysisRun, error) {
	return s.load(ctx, s.latestKey())
}

func (s *RedisStore) GetRun(ctx context.Context, id string) (models.AnalysisRun, error) {
	return s.load(ctx, s.runKey(id))
}

func (s *RedisStore) load(ctx context.Context, key string) (models.AnalysisRun, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.AnalysisRun{}, ErrNotFound
	}
	if err != nil {
		return models.AnalysisRun{}, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var run models.AnalysisRun
	if err := json.Unmarshal(data, &run); err != nil {
		return models.AnalysisRun{}, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	run.Results = models.NewAnalysisResults(run.Results.Solar, run.Results.Wind, run.Results.Combined)
	return run, nil
}
