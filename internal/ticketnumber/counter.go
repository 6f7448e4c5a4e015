package ticketnumber

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

var errBadOffset = errors.New("bad offset")

// RedisCounter keeps one INCR key per year.
type RedisCounter struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisCounter builds a counter under keys "<keyPrefix>:<year>".
func NewRedisCounter(client *redis.Client, keyPrefix string) *RedisCounter {
	if keyPrefix == "" {
		keyPrefix = "ticketnumber"
	}
	return &RedisCounter{client: client, keyPrefix: keyPrefix}
}

func (c *RedisCounter) Add(ctx context.Context, year int, offset int64) (int64, error) {
	if offset < 1 {
		return 0, errBadOffset
	}
	key := fmt.Sprintf("%s:%d", c.keyPrefix, year)
	return c.client.IncrBy(ctx, key, offset).Result()
}

// PostgresCounter keeps one row per year in ticket_number_counters and increments it with an upsert.
type PostgresCounter struct {
	pool *pgxpool.Pool
}

func NewPostgresCounter(pool *pgxpool.Pool) *PostgresCounter {
	return &PostgresCounter{pool: pool}
}

func (c *PostgresCounter) Add(ctx context.Context, year int, offset int64) (int64, error) {
	if offset < 1 {
		return 0, errBadOffset
	}
	const query = `
        INSERT INTO ticket_number_counters (year, counter, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (year) DO UPDATE SET counter = ticket_number_counters.counter + EXCLUDED.counter,
            updated_at = NOW()
        RETURNING counter`
	var counter int64
	if err := c.pool.QueryRow(ctx, query, year, offset).Scan(&counter); err != nil {
		return 0, err
	}
	return counter, nil
}

// MemoryCounter is a process-local counter.
type MemoryCounter struct {
	mu     sync.Mutex
	values map[int]int64
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{values: map[int]int64{}}
}

func (c *MemoryCounter) Add(_ context.Context, year int, offset int64) (int64, error) {
	if offset < 1 {
		return 0, errBadOffset
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[year] += offset
	return c.values[year], nil
}
