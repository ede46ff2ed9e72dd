package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStoreConfig configures the Redis run store.
type RedisStoreConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

const (
	redisRunKeyPrefix = "validus:run:"
	redisRunIndexKey  = "validus:runs"
)

// RedisRunStore persists runs as JSON values with a sorted-set index keyed
// by start time, newest first on listing.
type RedisRunStore struct {
	client *redis.Client
	config *RedisStoreConfig
}

// NewRedisRunStore connects and pings the Redis server.
func NewRedisRunStore(ctx context.Context, config *RedisStoreConfig) (*RedisRunStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return &RedisRunStore{client: client, config: config}, nil
}

// SaveRun stores the run and indexes it by start time.
func (s *RedisRunStore) SaveRun(ctx context.Context, run *Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshaling run: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisRunKeyPrefix+run.ID, data, s.config.TTL)
	pipe.ZAdd(ctx, redisRunIndexKey, &redis.Z{
		Score:  float64(run.StartedAt.UnixNano()),
		Member: run.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("storing run: %w", err)
	}
	return nil
}

// GetRun returns the run by id.
func (s *RedisRunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	data, err := s.client.Get(ctx, redisRunKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching run: %w", err)
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("parsing run: %w", err)
	}
	return &run, nil
}

// ListRuns walks the index newest first, filtering in process. Expired runs
// still present in the index are skipped.
func (s *RedisRunStore) ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error) {
	ids, err := s.client.ZRevRange(ctx, redisRunIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	var out []*Run
	for _, id := range ids {
		run, err := s.GetRun(ctx, id)
		if err != nil {
			continue
		}
		if filter.Ruleset != "" && run.Ruleset != filter.Ruleset {
			continue
		}
		if filter.FailedOnly && !run.Failed {
			continue
		}
		out = append(out, run)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// Close closes the client.
func (s *RedisRunStore) Close() error { return s.client.Close() }
