// internal/service/checkout/application/dto.go
package application

import "storefront/internal/service/checkout/domain"

// EvaluateRequest 是结账资格计算用例的输入，FlowID 为空时使用默认流程。
type EvaluateRequest struct {
	FlowID  string                 `json:"flowId,omitempty"`
	Context domain.CheckoutContext `json:"context"`
}

// EvaluateResponse 是结账资格计算的结果。
type EvaluateResponse struct {
	EvaluationID string `json:"evaluationId"`
	FlowID       string `json:"flowId"`
	// FallbackUsed 为 true 表示请求的流程不可用，结果来自默认流程。
	FallbackUsed   bool                 `json:"fallbackUsed"`
	Steps          []domain.Step        `json:"steps"`
	ActiveSteps    []domain.Step        `json:"activeSteps"`
	PaymentMethods []domain.PaymentRule `json:"paymentMethods"`
}

// SaveFlowResponse 是后台保存流程配置的结果。
type SaveFlowResponse struct {
	FlowID  string `json:"flowId"`
	Message string `json:"message"`
}
