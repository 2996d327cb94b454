// internal/service/checkout/domain/context.go
package domain

// CartItem 是购物车中的一个商品。
// TNShippingEnabled 显式为 false 表示该商品不能配送到泰米尔纳德邦，nil 或 true 表示不受限。
type CartItem struct {
	ProductID         string   `json:"productId" yaml:"productId"`
	Category          string   `json:"category,omitempty" yaml:"category,omitempty"`
	Tags              []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	TNShippingEnabled *bool    `json:"tnShippingEnabled,omitempty" yaml:"tnShippingEnabled,omitempty"`
}

// IsTNRestricted 判断商品是否受泰米尔纳德邦配送限制。
func (i CartItem) IsTNRestricted() bool {
	return i.TNShippingEnabled != nil && !*i.TNShippingEnabled
}

// CheckoutContext 是一次结账请求的运行时上下文，由购物车服务组装。
// Total 由调用方计算好 (subtotal + shipping - discount)，这里不会重新计算。
type CheckoutContext struct {
	Subtotal           float64    `json:"subtotal"`
	ShippingCost       float64    `json:"shippingCost"`
	DiscountTotal      float64    `json:"discountTotal"`
	Total              float64    `json:"total"`
	DestinationState   string     `json:"destinationState,omitempty"`
	DestinationCountry string     `json:"destinationCountry,omitempty"`
	IsGuest            bool       `json:"isGuest"`
	Items              []CartItem `json:"items"`
}

// HasTNRestrictedItem 判断购物车中是否存在受限商品，空购物车视为没有。
func (c CheckoutContext) HasTNRestrictedItem() bool {
	for _, item := range c.Items {
		if item.IsTNRestricted() {
			return true
		}
	}
	return false
}
