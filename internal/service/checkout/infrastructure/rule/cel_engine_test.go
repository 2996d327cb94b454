package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront/internal/service/checkout/domain"
)

func boolPtr(b bool) *bool { return &b }

func TestCELEngine_Match(t *testing.T) {
	engine, err := NewCELEngine()
	require.NoError(t, err)

	cc := domain.CheckoutContext{
		Subtotal:           1200,
		ShippingCost:       50,
		Total:              1250,
		DestinationState:   "Karnataka",
		DestinationCountry: "India",
		Items: []domain.CartItem{
			{ProductID: "p1", Category: "books", Tags: []string{"gift"}},
			{ProductID: "p2", Category: "spices", TNShippingEnabled: boolPtr(false)},
		},
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"total threshold", "total >= 1000.0", true},
		{"total below", "total < 1000.0", false},
		{"state", `destination_state == "Karnataka"`, true},
		{"guest", "!is_guest", true},
		{"restricted flag", "has_tn_restricted_item", true},
		{"items exists", `items.exists(i, i.category == "books")`, true},
		{"items all", `items.all(i, i.category == "books")`, false},
		{"tags", `items.exists(i, "gift" in i.tags)`, true},
		{"item count", "size(items) == 2", true},
		{"combined", `subtotal + shipping_cost == total && discount_total == 0.0`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Match(tt.expr, cc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCELEngine_Check(t *testing.T) {
	engine, err := NewCELEngine()
	require.NoError(t, err)

	assert.NoError(t, engine.Check("total > 10.0"))
	assert.Error(t, engine.Check("total >"), "syntax error")
	assert.Error(t, engine.Check("unknown_var == 1"), "undeclared variable")
	assert.Error(t, engine.Check("total + 1.0"), "non-bool result")
}

func TestCELEngine_MatchErrors(t *testing.T) {
	engine, err := NewCELEngine()
	require.NoError(t, err)

	_, err = engine.Match("total >", domain.CheckoutContext{})
	assert.Error(t, err)

	// 运行时错误：空列表取下标
	_, err = engine.Match(`items[0].category == "books"`, domain.CheckoutContext{})
	assert.Error(t, err)
}

func TestCELEngine_FailOpenThroughEvaluator(t *testing.T) {
	engine, err := NewCELEngine()
	require.NoError(t, err)
	ev := domain.NewEvaluator(engine)

	cc := domain.CheckoutContext{Total: 100}
	assert.True(t, ev.EvaluateCondition(domain.Expression("total >= 50.0"), cc))
	assert.False(t, ev.EvaluateCondition(domain.Expression("total >= 500.0"), cc))
	assert.True(t, ev.EvaluateCondition(domain.Expression("not valid cel ("), cc), "broken expressions pass")
}

func TestCELEngine_CachesPrograms(t *testing.T) {
	engine, err := NewCELEngine()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := engine.Match("is_guest", domain.CheckoutContext{IsGuest: true})
		require.NoError(t, err)
	}
	assert.Len(t, engine.programs, 1)
}
