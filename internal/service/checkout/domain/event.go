// internal/service/checkout/domain/event.go
package domain

import "time"

// CheckoutEvaluated 在每次结账资格计算后发布，供分析和对账使用。
type CheckoutEvaluated struct {
	EventID          string          `json:"eventId"`
	TraceID          string          `json:"traceId,omitempty"`
	FlowID           string          `json:"flowId"`
	Total            float64         `json:"total"`
	DestinationState string          `json:"destinationState,omitempty"`
	IsGuest          bool            `json:"isGuest"`
	Methods          []PaymentMethod `json:"methods"`
	EvaluatedAt      time.Time       `json:"evaluatedAt"`
}

// FlowUpdated 在后台修改流程配置后发布，其他实例据此清理本地缓存。
type FlowUpdated struct {
	EventID string `json:"eventId"`
	FlowID  string `json:"flowId"`
	// PreviousDefaultID 是被这次保存取消默认标记的流程，没有切换默认流程时为空。
	PreviousDefaultID string    `json:"previousDefaultId,omitempty"`
	UpdatedAt         time.Time `json:"updatedAt"`
}
