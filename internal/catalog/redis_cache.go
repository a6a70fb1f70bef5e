package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/article-engagement-api/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache is a read-through Redis cache in front of another Catalog. Redis
// failures are logged and the lookup falls through to the next catalog.
type Cache struct {
	next   Catalog
	client *redis.Client
	ttl    time.Duration
	prefix string
	log    zerolog.Logger
}

// NewRedisClient connects to redisURL and checks the connection
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return client, nil
}

// NewCache wraps next with a cache whose entries expire after ttl
func NewCache(next Catalog, client *redis.Client, ttl time.Duration, log zerolog.Logger) *Cache {
	return &Cache{
		next:   next,
		client: client,
		ttl:    ttl,
		prefix: "catalog:article:",
		log:    log.With().Str("component", "catalog_cache").Logger(),
	}
}

func (c *Cache) key(id string) string {
	return c.prefix + id
}

func (c *Cache) GetArticle(ctx context.Context, id string) (*models.ArticleRef, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	switch {
	case err == nil:
		var article models.ArticleRef
		if jsonErr := json.Unmarshal(data, &article); jsonErr == nil {
			return &article, nil
		}
		c.log.Warn().Str("article_id", id).Msg("Discarding unreadable cache entry")
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn().Err(err).Str("article_id", id).Msg("Catalog cache read failed")
	}

	article, err := c.next.GetArticle(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(article); err == nil {
		if err := c.client.Set(ctx, c.key(id), payload, c.ttl).Err(); err != nil {
			c.log.Warn().Err(err).Str("article_id", id).Msg("Catalog cache write failed")
		}
	}

	return article, nil
}

// Invalidate drops the cached entry for id
func (c *Cache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("invalidate article %s: %w", id, err)
	}
	return nil
}
