// internal/service/checkout/domain/default_flow.go
package domain

// DefaultFlowID 是全局默认结账流程的 ID。
const DefaultFlowID = "default"

// DefaultFlow 返回全局默认结账流程。每次调用都会构造新的值，调用方可以随意修改副本。
func DefaultFlow() FlowConfig {
	return FlowConfig{
		ID:        DefaultFlowID,
		Name:      "Default Checkout",
		IsDefault: true,
		Steps: []Step{
			{ID: "shipping", Kind: StepCollectShipping, Label: "Shipping Address", Order: 1},
			{ID: "contact", Kind: StepCollectContact, Label: "Contact Details", Order: 2},
			{ID: "review", Kind: StepReviewOrder, Label: "Review Order", Order: 3},
			{ID: "payment_method", Kind: StepSelectPaymentMethod, Label: "Choose Payment Method", Order: 4},
			{ID: "create_order", Kind: StepCreateOrderRecord, Label: "Create Order", Order: 5},
			{ID: "start_payment", Kind: StepStartPaymentGateway, Label: "Start Payment", Order: 6},
		},
		PaymentRules: []PaymentRule{
			{
				Method:      PaymentRazorpay,
				Label:       "UPI / Cards / Wallets (Razorpay)",
				Description: "Pay securely online with UPI, cards, net banking or wallets.",
				Conditions:  []Condition{MinTotal(1)},
			},
			{
				Method:      PaymentCOD,
				Label:       "Cash on Delivery",
				Description: "Pay in cash when the order arrives.",
				Conditions: []Condition{
					MaxTotal(2000),
					StateIsNot("Tamil Nadu"),
					TNShippingRestricted(false),
				},
			},
		},
	}
}
