// internal/service/checkout/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"storefront/internal/pkg/logger"
	"storefront/internal/service/checkout/application"
	"storefront/internal/service/checkout/domain"
)

// maxBodyBytes 限制请求体大小，流程配置通常只有几 KB。
const maxBodyBytes = 1 << 20

// CheckoutHandler 封装了 checkout 服务的 HTTP 处理器
type CheckoutHandler struct {
	service *application.CheckoutService
}

func NewCheckoutHandler(service *application.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *CheckoutHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /checkout/flows/default", h.handleGetDefaultFlow)
	mux.HandleFunc("GET /checkout/flows/list", h.handleListFlows)
	mux.HandleFunc("GET /checkout/flows", h.handleGetFlow)
	mux.HandleFunc("POST /checkout/flows", h.handleSaveFlow)
	mux.HandleFunc("POST /checkout/evaluate", h.handleEvaluate)
}

func (h *CheckoutHandler) handleGetDefaultFlow(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	flow, err := h.service.GetDefaultFlow(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flow)
}

func (h *CheckoutHandler) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	flow, err := h.service.GetFlow(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flow)
}

func (h *CheckoutHandler) handleListFlows(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	flows, err := h.service.ListFlows(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"flows": flows})
}

func (h *CheckoutHandler) handleSaveFlow(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var flow domain.FlowConfig
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&flow); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	resp, err := h.service.SaveFlow(ctx, &flow)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleEvaluate 总是返回 200，资格计算本身不会失败。
func (h *CheckoutHandler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.EvaluateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Evaluate(ctx, &req))
}

// writeError 根据错误类型返回不同的 HTTP 状态码
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var statusCode int
	switch {
	case errors.Is(err, domain.ErrFlowNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidFlow),
		errors.Is(err, domain.ErrInvalidCondition):
		statusCode = http.StatusBadRequest
	case errors.Is(err, domain.ErrFlowLocked):
		statusCode = http.StatusConflict
	default:
		statusCode = http.StatusInternalServerError
		logger.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	http.Error(w, err.Error(), statusCode)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
