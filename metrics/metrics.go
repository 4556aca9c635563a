// Package metrics provides the named business metrics that snippets read
// with metric(name).
//
// MemoryStore holds a fixed set of values and suits tests and the CLI.
// RedisStore reads each metric from one field of a Redis hash.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ErrUnknownMetric is returned for metric names the store does not hold.
var ErrUnknownMetric = errors.New("unknown metric")

// Store resolves metric names to values.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Get must honor cancellation and deadlines.
// - Errors: missing metrics return ErrUnknownMetric.
type Store interface {
	Get(ctx context.Context, name string) (float64, error)
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]float64
}

// NewMemoryStore returns a store holding a copy of values.
func NewMemoryStore(values map[string]float64) *MemoryStore {
	m := &MemoryStore{values: make(map[string]float64, len(values))}
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

// Get returns the named metric.
func (m *MemoryStore) Get(ctx context.Context, name string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownMetric, name)
	}
	return v, nil
}

// Set stores a metric value.
func (m *MemoryStore) Set(name string, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = v
}

// Names returns the stored metric names in sorted order.
func (m *MemoryStore) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.values))
	for k := range m.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultRedisKey is the hash holding metric values.
const DefaultRedisKey = "snippetexec:metrics"

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	// Addr is the Redis server address, host:port.
	Addr string

	// Password is optional.
	Password string

	// DB selects the Redis database.
	DB int

	// Key is the hash holding metric values.
	// Default: DefaultRedisKey
	Key string
}

// RedisStore reads metrics from a Redis hash with HGET.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a store connected to the configured server.
func NewRedisStore(cfg RedisConfig) *RedisStore {
	return NewRedisStoreWithClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), cfg.Key)
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// Get returns the named metric from the hash.
func (r *RedisStore) Get(ctx context.Context, name string) (float64, error) {
	raw, err := r.client.HGet(ctx, r.key, name).Result()
	if err == redis.Nil {
		return 0, fmt.Errorf("%w: %s", ErrUnknownMetric, name)
	}
	if err != nil {
		return 0, fmt.Errorf("reading metric %s: %w", name, err)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("metric %s is not a number: %q", name, raw)
	}
	return v, nil
}

// Set writes a metric value into the hash.
func (r *RedisStore) Set(ctx context.Context, name string, v float64) error {
	return r.client.HSet(ctx, r.key, name, strconv.FormatFloat(v, 'f', -1, 64)).Err()
}

// Ping checks the connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
