package iplocate

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"ipdnb/internal/domain"
)

const cacheKeyPrefix = "ipdnb:lookup:"

type Lookuper interface {
	Lookup(ctx context.Context, ip string) (*domain.LookupResult, error)
}

// CachedLookuper keeps recent lookup results in Redis so addresses that were
// allowed on a previous run are not paid for again. A nil Redis client turns
// it into a plain pass-through.
type CachedLookuper struct {
	next  Lookuper
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedLookuper(next Lookuper, client *redis.Client, ttl time.Duration) *CachedLookuper {
	return &CachedLookuper{next: next, redis: client, ttl: ttl}
}

func (c *CachedLookuper) Lookup(ctx context.Context, ip string) (*domain.LookupResult, error) {
	if c.redis == nil || c.ttl <= 0 {
		return c.next.Lookup(ctx, ip)
	}

	if cached, ok := c.get(ctx, ip); ok {
		log.Debug("Lookup served from cache", "ip", ip)
		return cached, nil
	}

	result, err := c.next.Lookup(ctx, ip)
	if err != nil {
		return nil, err
	}

	c.put(ctx, ip, result)
	return result, nil
}

func (c *CachedLookuper) get(ctx context.Context, ip string) (*domain.LookupResult, bool) {
	raw, err := c.redis.Get(ctx, cacheKey(ip)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn("Lookup cache read failed", "ip", ip, "error", err)
		}
		return nil, false
	}

	var result domain.LookupResult
	if err := json.Unmarshal(raw, &result); err != nil {
		log.Warn("Discarding corrupt lookup cache entry", "ip", ip, "error", err)
		return nil, false
	}
	return &result, true
}

func (c *CachedLookuper) put(ctx context.Context, ip string, result *domain.LookupResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		log.Warn("Lookup cache encode failed", "ip", ip, "error", err)
		return
	}
	if err := c.redis.Set(ctx, cacheKey(ip), payload, c.ttl).Err(); err != nil {
		log.Warn("Lookup cache write failed", "ip", ip, "error", err)
	}
}

func cacheKey(ip string) string {
	return cacheKeyPrefix + ip
}
