package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"siret-api/internal/company/models"
)

const cacheKeyPrefix = "company:siret:"

// DefaultCacheTTL bounds how long a fetched record may be served from Redis.
const DefaultCacheTTL = 5 * time.Minute

// generationTTL keeps write generations far longer than any in-flight lookup.
const generationTTL = 24 * time.Hour

// fillScript sets KEYS[1] only if the generation in KEYS[2] still equals the
// one read before the store lookup (ARGV[1]); a missing generation is "0".
var fillScript = redis.NewScript(`
local gen = redis.call("GET", KEYS[2])
if not gen then gen = "0" end
if gen ~= ARGV[1] then return 0 end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// CachedStore is a read-through Redis cache in front of another Backend. Only
// non-empty lookups are cached and every write invalidates the identifier's
// entry and bumps its generation. A lookup only fills the cache if no write
// happened since it read the generation, so a slow lookup cannot put back
// rows a concurrent write removed. Redis failures never fail a request: the
// wrapped store answers instead.
type CachedStore struct {
	next   Backend
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// CacheOption configures a CachedStore.
type CacheOption func(*CachedStore)

// WithCacheTTL overrides DefaultCacheTTL.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *CachedStore) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheLogger sets the logger used for fail-open warnings.
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *CachedStore) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCached wraps next with a Redis read-through cache.
func NewCached(next Backend, client *redis.Client, opts ...CacheOption) *CachedStore {
	c := &CachedStore{
		next:   next,
		client: client,
		ttl:    DefaultCacheTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func cacheKey(siret int64) string {
	return cacheKeyPrefix + strconv.FormatInt(siret, 10)
}

func generationKey(siret int64) string {
	return cacheKey(siret) + ":gen"
}

func (c *CachedStore) FindBySiret(ctx context.Context, siret int64) ([]models.Document, error) {
	key := cacheKey(siret)
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		docs, decodeErr := decodeCached(raw)
		if decodeErr == nil {
			return docs, nil
		}
		c.logger.WarnContext(ctx, "discarding undecodable cache entry", "key", key, "error", decodeErr)
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "cache read failed, using store", "key", key, "error", err)
	}

	gen, err := c.client.Get(ctx, generationKey(siret)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		gen = "0"
	case err != nil:
		c.logger.WarnContext(ctx, "cache generation read failed, skipping fill", "key", key, "error", err)
		return c.next.FindBySiret(ctx, siret)
	}

	docs, err := c.next.FindBySiret(ctx, siret)
	if err != nil || len(docs) == 0 {
		return docs, err
	}
	payload, err := json.Marshal(docs)
	if err != nil {
		c.logger.WarnContext(ctx, "cache encode failed", "key", key, "error", err)
		return docs, nil
	}
	keys := []string{key, generationKey(siret)}
	if err := fillScript.Run(ctx, c.client, keys, gen, payload, c.ttl.Milliseconds()).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
	return docs, nil
}

func (c *CachedStore) Insert(ctx context.Context, e *models.Establishment) error {
	err := c.next.Insert(ctx, e)
	c.invalidate(ctx, e.Siret)
	return err
}

func (c *CachedStore) ReplaceAttributes(ctx context.Context, siret int64, attrs models.Attributes) error {
	err := c.next.ReplaceAttributes(ctx, siret, attrs)
	c.invalidate(ctx, siret)
	return err
}

func (c *CachedStore) Delete(ctx context.Context, siret int64) (int64, error) {
	n, err := c.next.Delete(ctx, siret)
	c.invalidate(ctx, siret)
	return n, err
}

func (c *CachedStore) InsertMany(ctx context.Context, docs []models.Document) error {
	err := c.next.InsertMany(ctx, docs)
	siret := make([]int64, 0, len(docs))
	for _, doc := range docs {
		if v, ok := toInt64(doc[models.FieldSiret]); ok {
			siret = append(siret, v)
		}
	}
	c.invalidate(ctx, siret...)
	return err
}

func (c *CachedStore) CreateIndex(ctx context.Context, field string, unique bool) error {
	return c.next.CreateIndex(ctx, field, unique)
}

// invalidate bumps each identifier's generation and drops its entry in one
// transaction.
func (c *CachedStore) invalidate(ctx context.Context, sirets ...int64) {
	if len(sirets) == 0 {
		return
	}
	pipe := c.client.TxPipeline()
	for _, s := range sirets {
		pipe.Incr(ctx, generationKey(s))
		pipe.Expire(ctx, generationKey(s), generationTTL)
		pipe.Del(ctx, cacheKey(s))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.WarnContext(ctx, "cache invalidation failed", "keys", len(sirets), "error", err)
	}
}

// decodeCached keeps numbers as json.Number so identity values render exactly.
func decodeCached(raw []byte) ([]models.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var docs []models.Document
	if err := dec.Decode(&docs); err != nil {
		return nil, err
	}
	return docs, nil
}
