// internal/service/checkout/infrastructure/cached_repository.go
package infrastructure

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/metrics"
	"storefront/internal/service/checkout/domain"
	"storefront/internal/service/checkout/domain/port"
)

// fetchTimeout 限制一次共享回源的时间，回源不受单个调用方取消的影响。
const fetchTimeout = 5 * time.Second

// CachedFlowRepository 在另一个 FlowRepository 前面加一层缓存。
// 同一个 key 的并发未命中只会回源一次；缓存故障按未命中处理，不影响结账。
type CachedFlowRepository struct {
	next    domain.FlowRepository
	cache   port.FlowCache
	group   singleflight.Group
	metrics *metrics.CheckoutMetrics
}

// NewCachedFlowRepository 创建带缓存的仓储，m 可以为 nil。
func NewCachedFlowRepository(next domain.FlowRepository, cache port.FlowCache, m *metrics.CheckoutMetrics) *CachedFlowRepository {
	return &CachedFlowRepository{next: next, cache: cache, metrics: m}
}

func (r *CachedFlowRepository) FindByID(ctx context.Context, id string) (*domain.FlowConfig, error) {
	return r.load(ctx, id, func(ctx context.Context) (*domain.FlowConfig, error) {
		return r.next.FindByID(ctx, id)
	})
}

func (r *CachedFlowRepository) FindDefault(ctx context.Context) (*domain.FlowConfig, error) {
	return r.load(ctx, port.DefaultFlowKey, r.next.FindDefault)
}

// List 是后台接口，直接回源。
func (r *CachedFlowRepository) List(ctx context.Context) ([]domain.FlowConfig, error) {
	return r.next.List(ctx)
}

// Save 保存后清理该流程和默认流程别名；切换默认流程时，旧默认流程的缓存也要清理。
func (r *CachedFlowRepository) Save(ctx context.Context, flow *domain.FlowConfig) error {
	keys := []string{flow.ID, port.DefaultFlowKey}
	if flow.IsDefault {
		prev, err := r.next.FindDefault(ctx)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("failed to look up previous default flow")
		} else if prev.ID != flow.ID {
			keys = append(keys, prev.ID)
		}
	}

	if err := r.next.Save(ctx, flow); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("flow_id", flow.ID).Msg("failed to invalidate flow cache")
	}
	return nil
}

func (r *CachedFlowRepository) load(ctx context.Context, key string, fetch func(context.Context) (*domain.FlowConfig, error)) (*domain.FlowConfig, error) {
	flow, ok, err := r.cache.Get(ctx, key)
	switch {
	case err != nil:
		r.observe("error")
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("flow cache lookup failed")
	case ok:
		r.observe("hit")
		return flow, nil
	default:
		r.observe("miss")
	}

	// 回源结果被多个调用方共享，不能因为发起者取消而让其他调用方一起失败。
	// 每个调用方只在自己的 ctx 结束时放弃等待。
	ch := r.group.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		flow, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		if err := r.cache.Set(fetchCtx, key, flow); err != nil {
			logger.Ctx(fetchCtx).Warn().Err(err).Str("key", key).Msg("failed to populate flow cache")
		}
		return flow, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// 共享结果的调用方各自拿一份副本
		out := res.Val.(*domain.FlowConfig).Clone()
		return &out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *CachedFlowRepository) observe(result string) {
	if r.metrics != nil {
		r.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}
