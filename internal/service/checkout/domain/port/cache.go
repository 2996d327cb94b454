package port

import (
	"context"

	"storefront/internal/service/checkout/domain"
)

// DefaultFlowKey 是默认流程在缓存中的别名，与具体的流程 ID 无关。
const DefaultFlowKey = "_default"

// FlowCache 是流程配置的缓存端口。key 是流程 ID 或 DefaultFlowKey。
type FlowCache interface {
	// Get 未命中时返回 (nil, false, nil)。
	Get(ctx context.Context, key string) (*domain.FlowConfig, bool, error)
	Set(ctx context.Context, key string, flow *domain.FlowConfig) error
	Delete(ctx context.Context, keys ...string) error
}
