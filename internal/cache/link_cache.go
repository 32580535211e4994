package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ngo_backend/internal/logger"
	"ngo_backend/internal/services/dto"

	"github.com/redis/go-redis/v9"
)

// LinkCache кэширует только публичное чтение ссылок.
// Состояние журнала (processed, остатки) сюда никогда не попадает.
type LinkCache interface {
	Get(ctx context.Context, slug string) (*dto.DonationLinkResponse, bool)
	Set(ctx context.Context, slug string, link *dto.DonationLinkResponse)
	Invalidate(ctx context.Context, slug string)
}

type RedisLinkCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	logger.Info("Redis connected", "addr", addr)
	return client, nil
}

func NewRedisLinkCache(client *redis.Client, ttl time.Duration) *RedisLinkCache {
	return &RedisLinkCache{client: client, ttl: ttl}
}

func linkKey(slug string) string {
	return "donation_link:" + slug
}

func (c *RedisLinkCache) Get(ctx context.Context, slug string) (*dto.DonationLinkResponse, bool) {
	data, err := c.client.Get(ctx, linkKey(slug)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.CtxWarn(ctx, "link cache get failed", "slug", slug, "error", err.Error())
		}
		return nil, false
	}

	var link dto.DonationLinkResponse
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, false
	}
	return &link, true
}

func (c *RedisLinkCache) Set(ctx context.Context, slug string, link *dto.DonationLinkResponse) {
	data, err := json.Marshal(link)
	if err != nil {
		return
	}
	ttl := c.ttl
	// истекающая ссылка не должна жить в кэше дольше срока
	if link.ExpiresAt != nil {
		if until := time.Until(*link.ExpiresAt); until > 0 && until < ttl {
			ttl = until
		}
	}
	if err := c.client.Set(ctx, linkKey(slug), data, ttl).Err(); err != nil {
		logger.CtxWarn(ctx, "link cache set failed", "slug", slug, "error", err.Error())
	}
}

func (c *RedisLinkCache) Invalidate(ctx context.Context, slug string) {
	if err := c.client.Del(ctx, linkKey(slug)).Err(); err != nil {
		logger.CtxWarn(ctx, "link cache invalidate failed", "slug", slug, "error", err.Error())
	}
}

type NoopLinkCache struct{}

func (NoopLinkCache) Get(context.Context, string) (*dto.DonationLinkResponse, bool) { return nil, false }
func (NoopLinkCache) Set(context.Context, string, *dto.DonationLinkResponse)        {}
func (NoopLinkCache) Invalidate(context.Context, string)                            {}
