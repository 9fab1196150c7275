package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gitlab.connectwisedev.com/inventory-service/models"
	"gitlab.connectwisedev.com/inventory-service/pkg/config"
)

const productKeyPrefix = "product:"

// ProductKey is the Redis key a product is cached under.
func ProductKey(id uuid.UUID) string {
	return productKeyPrefix + id.String()
}

// RedisClient caches products as JSON with a fixed TTL. Every failure is logged and treated as a miss.
type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedisClient initializes and returns a new Redis client
func NewRedisClient(ctx context.Context, cfg config.Redis, log zerolog.Logger) (*RedisClient, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("REDIS_ADDR environment variable not set")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pong, err := client.Ping(pingCtx).Result()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info().Str("addr", cfg.Addr).Str("pong", pong).Msg("Successfully connected to Redis")

	return newRedisClient(client, cfg.TTL, log), nil
}

func newRedisClient(client *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisClient {
	return &RedisClient{client: client, ttl: ttl, log: log.With().Str("component", "cache").Logger()}
}

func versionKey(id uuid.UUID) string {
	return ProductKey(id) + ":version"
}

var errStaleFill = errors.New("product invalidated since read")

// GetProduct returns the cached product, or false on a miss. The version must be handed back to
// SetProduct when the miss is filled.
func (c *RedisClient) GetProduct(ctx context.Context, id uuid.UUID) (models.Product, string, bool) {
	key := ProductKey(id)
	vals, err := c.client.MGet(ctx, key, versionKey(id)).Result()
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("error retrieving product from Redis")
		return models.Product{}, "", false
	}
	version, _ := vals[1].(string)
	raw, ok := vals[0].(string)
	if !ok {
		c.log.Debug().Str("key", key).Msg("cache miss")
		return models.Product{}, version, false
	}

	var p models.Product
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("error unmarshalling product from Redis")
		return models.Product{}, version, false
	}
	c.log.Debug().Str("key", key).Msg("cache hit")
	return p, version, true
}

// SetProduct stores p unless the product was invalidated after version was read.
func (c *RedisClient) SetProduct(ctx context.Context, p models.Product, version string) {
	key := ProductKey(p.ID)
	raw, err := json.Marshal(p)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("error marshalling product for Redis")
		return
	}

	vkey := versionKey(p.ID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vkey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, c.ttl)
			return nil
		})
		return err
	}, vkey)
	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		c.log.Debug().Str("key", key).Msg("skipping stale cache fill")
	default:
		c.log.Warn().Err(err).Str("key", key).Msg("error populating Redis cache")
	}
}

// DeleteProducts drops the given products and bumps their versions so in-flight fills are discarded.
func (c *RedisClient) DeleteProducts(ctx context.Context, ids ...uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ProductKey(id)
	}
	// Versions outlive the entries so a slow fill still sees the bump.
	versionTTL := 2 * c.ttl
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Set(ctx, versionKey(id), uuid.NewString(), versionTTL)
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		c.log.Warn().Err(err).Strs("keys", keys).Msg("error invalidating Redis cache")
	}
}

// Ping checks the connection.
func (c *RedisClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisClient) Close() {
	if c.client != nil {
		c.client.Close()
		c.log.Info().Msg("Redis connection closed.")
	}
}

// Noop is used when no Redis address is configured. Every read misses.
type Noop struct{}

func (Noop) GetProduct(context.Context, uuid.UUID) (models.Product, string, bool) {
	return models.Product{}, "", false
}
func (Noop) SetProduct(context.Context, models.Product, string) {}
func (Noop) DeleteProducts(context.Context, ...uuid.UUID)       {}
