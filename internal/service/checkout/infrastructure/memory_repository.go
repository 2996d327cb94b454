// internal/service/checkout/infrastructure/memory_repository.go
package infrastructure

import (
	"context"
	"sort"
	"sync"

	"storefront/internal/service/checkout/domain"
)

// MemoryFlowRepository 是 FlowRepository 的内存实现，未配置 MySQL 时使用。
// 启动时就包含内置的默认流程。
type MemoryFlowRepository struct {
	mu    sync.RWMutex
	flows map[string]domain.FlowConfig
}

func NewMemoryFlowRepository(seed ...domain.FlowConfig) *MemoryFlowRepository {
	r := &MemoryFlowRepository{flows: make(map[string]domain.FlowConfig)}
	def := domain.DefaultFlow()
	r.flows[def.ID] = def
	for _, f := range seed {
		r.put(f)
	}
	return r
}

func (r *MemoryFlowRepository) FindByID(ctx context.Context, id string) (*domain.FlowConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.flows[id]
	if !ok {
		return nil, domain.ErrFlowNotFound
	}
	out := f.Clone()
	return &out, nil
}

func (r *MemoryFlowRepository) FindDefault(ctx context.Context) (*domain.FlowConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.sortedIDs() {
		if f := r.flows[id]; f.IsDefault {
			out := f.Clone()
			return &out, nil
		}
	}
	def := domain.DefaultFlow()
	return &def, nil
}

func (r *MemoryFlowRepository) List(ctx context.Context) ([]domain.FlowConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	flows := make([]domain.FlowConfig, 0, len(r.flows))
	for _, id := range r.sortedIDs() {
		flows = append(flows, r.flows[id].Clone())
	}
	return flows, nil
}

func (r *MemoryFlowRepository) Save(ctx context.Context, flow *domain.FlowConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(*flow)
	return nil
}

// put 保存流程副本，新的默认流程会取消其他流程的默认标记。调用方持有写锁。
func (r *MemoryFlowRepository) put(flow domain.FlowConfig) {
	if flow.IsDefault {
		for id, f := range r.flows {
			if id != flow.ID && f.IsDefault {
				f.IsDefault = false
				r.flows[id] = f
			}
		}
	}
	r.flows[flow.ID] = flow.Clone()
}

func (r *MemoryFlowRepository) sortedIDs() []string {
	ids := make([]string, 0, len(r.flows))
	for id := range r.flows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
