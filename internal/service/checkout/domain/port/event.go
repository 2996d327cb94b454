package port

import (
	"context"
	"storefront/internal/service/checkout/domain"
)

// EventPublisher 是结账事件的出站端口。
type EventPublisher interface {
	PublishCheckoutEvaluated(ctx context.Context, event *domain.CheckoutEvaluated) error
	PublishFlowUpdated(ctx context.Context, event *domain.FlowUpdated) error
}
