package interfaces

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"storefront/internal/service/checkout/application"
	"storefront/internal/service/checkout/domain"
	"storefront/internal/service/checkout/infrastructure"
)

type failingLocker struct{}

func (failingLocker) Lock(context.Context, string) (func() error, error) {
	return nil, errors.New("held by another admin")
}

func newTestMux(opts ...application.Option) *http.ServeMux {
	svc := application.NewCheckoutService(
		infrastructure.NewMemoryFlowRepository(),
		nil,
		noop.NewTracerProvider().Tracer("test"),
		opts...,
	)
	mux := http.NewServeMux()
	NewCheckoutHandler(svc).RegisterRoutes(mux)
	return mux
}

func do(t *testing.T, mux http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandleGetDefaultFlow(t *testing.T) {
	rec := do(t, newTestMux(), http.MethodGet, "/checkout/flows/default", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var flow domain.FlowConfig
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&flow))
	assert.Equal(t, domain.DefaultFlow(), flow)
}

func TestHandleGetFlow(t *testing.T) {
	mux := newTestMux()

	rec := do(t, mux, http.MethodGet, "/checkout/flows?id=default", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, mux, http.MethodGet, "/checkout/flows?id=missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, mux, http.MethodGet, "/checkout/flows", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSaveAndListFlows(t *testing.T) {
	mux := newTestMux()

	flow := domain.DefaultFlow()
	flow.ID = "festive"
	flow.IsDefault = false
	rec := do(t, mux, http.MethodPost, "/checkout/flows", flow)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, mux, http.MethodGet, "/checkout/flows/list", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Flows []domain.FlowConfig `json:"flows"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Flows, 2)
	assert.Equal(t, "festive", body.Flows[1].ID)
}

func TestHandleSaveFlow_ErrorMapping(t *testing.T) {
	t.Run("invalid flow", func(t *testing.T) {
		rec := do(t, newTestMux(), http.MethodPost, "/checkout/flows", domain.FlowConfig{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/checkout/flows", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		newTestMux().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("locked", func(t *testing.T) {
		mux := newTestMux(application.WithLocker(failingLocker{}))
		rec := do(t, mux, http.MethodPost, "/checkout/flows", domain.DefaultFlow())
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHandleEvaluate(t *testing.T) {
	mux := newTestMux()
	restricted := false

	tests := []struct {
		name    string
		req     application.EvaluateRequest
		methods []domain.PaymentMethod
	}{
		{
			name:    "both methods",
			req:     application.EvaluateRequest{Context: domain.CheckoutContext{Total: 999, DestinationState: "Kerala"}},
			methods: []domain.PaymentMethod{domain.PaymentRazorpay, domain.PaymentCOD},
		},
		{
			name:    "above cod limit",
			req:     application.EvaluateRequest{Context: domain.CheckoutContext{Total: 2500}},
			methods: []domain.PaymentMethod{domain.PaymentRazorpay},
		},
		{
			name: "restricted item",
			req: application.EvaluateRequest{Context: domain.CheckoutContext{
				Total: 100,
				Items: []domain.CartItem{{ProductID: "p1", TNShippingEnabled: &restricted}},
			}},
			methods: []domain.PaymentMethod{domain.PaymentRazorpay},
		},
		{
			name:    "unknown flow falls back",
			req:     application.EvaluateRequest{FlowID: "nope", Context: domain.CheckoutContext{Total: 0}},
			methods: []domain.PaymentMethod{domain.PaymentCOD},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, http.MethodPost, "/checkout/evaluate", tt.req)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp application.EvaluateResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.methods, domain.Methods(resp.PaymentMethods))
			assert.Len(t, resp.Steps, 6)
		})
	}
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	rec := do(t, newTestMux(), http.MethodGet, "/checkout/evaluate", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
