// internal/service/checkout/infrastructure/adapter/flow_cache_memory.go
package adapter

import (
	"context"
	"sync"
	"time"

	"storefront/internal/service/checkout/domain"
)

type memoryEntry struct {
	flow      domain.FlowConfig
	expiresAt time.Time
}

// FlowCacheMemoryAdapter 是进程内的 port.FlowCache 实现，未配置 Redis 时使用。
// 多实例部署时依靠 FlowUpdated 事件清理。
type FlowCacheMemoryAdapter struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewFlowCacheMemoryAdapter(ttl time.Duration) *FlowCacheMemoryAdapter {
	return &FlowCacheMemoryAdapter{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (a *FlowCacheMemoryAdapter) Get(ctx context.Context, key string) (*domain.FlowConfig, bool, error) {
	a.mu.RLock()
	e, ok := a.entries[key]
	a.mu.RUnlock()
	if !ok || (!e.expiresAt.IsZero() && a.now().After(e.expiresAt)) {
		return nil, false, nil
	}
	flow := e.flow.Clone()
	return &flow, true, nil
}

func (a *FlowCacheMemoryAdapter) Set(ctx context.Context, key string, flow *domain.FlowConfig) error {
	e := memoryEntry{flow: flow.Clone()}
	if a.ttl > 0 {
		e.expiresAt = a.now().Add(a.ttl)
	}
	a.mu.Lock()
	a.entries[key] = e
	a.mu.Unlock()
	return nil
}

func (a *FlowCacheMemoryAdapter) Delete(ctx context.Context, keys ...string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, k := range keys {
		delete(a.entries, k)
	}
	return nil
}
