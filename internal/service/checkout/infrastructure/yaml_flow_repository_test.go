package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront/internal/service/checkout/domain"
)

const sampleFlows = `
flows:
  - id: guest-express
    name: Guest Express
    steps:
      - id: shipping
        kind: collect_shipping
        label: Shipping Address
        order: 1
      - id: contact
        kind: collect_contact
        label: Contact Details
        order: 2
        conditions:
          - kind: user_logged_in
            flag: false
    paymentRules:
      - method: razorpay
        label: Razorpay
        conditions:
          - kind: min_total
            amount: 1
      - method: cod
        label: Cash on Delivery
        conditions:
          - kind: max_total
            amount: 2000
          - kind: state_is_not
            state: Tamil Nadu
          - kind: expression
            expression: 'size(items) <= 5'
`

func TestParseFlowsYAML(t *testing.T) {
	flows, err := ParseFlowsYAML([]byte(sampleFlows))
	require.NoError(t, err)
	require.Len(t, flows, 1)

	f := flows[0]
	assert.Equal(t, "guest-express", f.ID)
	require.Len(t, f.Steps, 2)
	assert.Equal(t, []domain.Condition{domain.UserLoggedIn(false)}, f.Steps[1].Conditions)
	require.Len(t, f.PaymentRules, 2)
	assert.Equal(t, domain.MinTotal(1), f.PaymentRules[0].Conditions[0])
	assert.Equal(t, domain.StateIsNot("Tamil Nadu"), f.PaymentRules[1].Conditions[1])
	assert.Equal(t, domain.Expression("size(items) <= 5"), f.PaymentRules[1].Conditions[2])

	methods := domain.Methods(domain.EnabledPaymentMethods(f, domain.CheckoutContext{Total: 500, DestinationState: "Kerala"}))
	assert.Equal(t, []domain.PaymentMethod{domain.PaymentRazorpay, domain.PaymentCOD}, methods)
}

func TestParseFlowsYAML_Invalid(t *testing.T) {
	_, err := ParseFlowsYAML([]byte("flows: [ {id: "))
	assert.Error(t, err)

	_, err = ParseFlowsYAML([]byte("flows:\n  - id: x\n    paymentRules:\n      - method: bitcoin\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidFlow)
}

func TestImportFlows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleFlows), 0o644))

	repo := NewMemoryFlowRepository()
	n, err := ImportFlows(context.Background(), repo, path, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	f, err := repo.FindByID(context.Background(), "guest-express")
	require.NoError(t, err)
	assert.Equal(t, "Guest Express", f.Name)

	_, err = ImportFlows(context.Background(), repo, filepath.Join(t.TempDir(), "missing.yaml"), false)
	assert.Error(t, err)
}

func TestImportFlows_KeepsStoredEdits(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flows.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleFlows), 0o644))

	repo := NewMemoryFlowRepository()
	_, err := ImportFlows(ctx, repo, path, false)
	require.NoError(t, err)

	// 后台修改过的流程
	edited, err := repo.FindByID(ctx, "guest-express")
	require.NoError(t, err)
	edited.Name = "Edited by admin"
	require.NoError(t, repo.Save(ctx, edited))

	// 重启时的再次导入跳过已存在的流程
	n, err := ImportFlows(ctx, repo, path, false)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	got, err := repo.FindByID(ctx, "guest-express")
	require.NoError(t, err)
	assert.Equal(t, "Edited by admin", got.Name)

	// 显式要求覆盖时以文件为准
	n, err = ImportFlows(ctx, repo, path, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, err = repo.FindByID(ctx, "guest-express")
	require.NoError(t, err)
	assert.Equal(t, "Guest Express", got.Name)
}
