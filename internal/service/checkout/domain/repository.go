// internal/service/checkout/domain/repository.go
package domain

import "context"

// FlowRepository 定义了流程配置的持久化接口。
// 它位于领域层，但由基础设施层实现。
type FlowRepository interface {
	// FindByID 找不到时返回 ErrFlowNotFound。
	FindByID(ctx context.Context, id string) (*FlowConfig, error)

	// FindDefault 返回标记为默认的流程，没有时返回 DefaultFlow()。
	FindDefault(ctx context.Context) (*FlowConfig, error)

	List(ctx context.Context) ([]FlowConfig, error)

	// Save 保存一个流程（创建或更新）。
	Save(ctx context.Context, flow *FlowConfig) error
}
