// internal/service/checkout/infrastructure/adapter/flow_cache_redis.go
package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"storefront/internal/pkg/redis"
	"storefront/internal/service/checkout/domain"
)

// FlowCacheRedisAdapter 是 port.FlowCache 的 Redis 实现，值为流程的 JSON。
type FlowCacheRedisAdapter struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewFlowCacheRedisAdapter(redisClient *redis.Client, ttl time.Duration) *FlowCacheRedisAdapter {
	return &FlowCacheRedisAdapter{redisClient: redisClient, ttl: ttl}
}

func flowKey(key string) string {
	return fmt.Sprintf("checkout:flow:{%s}", key)
}

func (a *FlowCacheRedisAdapter) Get(ctx context.Context, key string) (*domain.FlowConfig, bool, error) {
	data, err := a.redisClient.GetClient().Get(ctx, flowKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, pkgerrors.Wrapf(err, "redis get %s", key)
	}
	var flow domain.FlowConfig
	if err := json.Unmarshal(data, &flow); err != nil {
		return nil, false, pkgerrors.Wrapf(err, "corrupt cached flow %s", key)
	}
	return &flow, true, nil
}

func (a *FlowCacheRedisAdapter) Set(ctx context.Context, key string, flow *domain.FlowConfig) error {
	data, err := json.Marshal(flow)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to marshal flow %s", flow.ID)
	}
	if err := a.redisClient.GetClient().Set(ctx, flowKey(key), data, a.ttl).Err(); err != nil {
		return pkgerrors.Wrapf(err, "redis set %s", key)
	}
	return nil
}

func (a *FlowCacheRedisAdapter) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	// 集群模式下多个 key 可能不在同一个 slot，逐个删除
	pipe := a.redisClient.GetClient().Pipeline()
	for _, k := range keys {
		pipe.Del(ctx, flowKey(k))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return pkgerrors.Wrap(err, "redis delete flows")
	}
	return nil
}
