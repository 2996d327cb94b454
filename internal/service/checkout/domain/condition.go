// internal/service/checkout/domain/condition.go
package domain

import (
	"math"
	"strings"
)

// ConditionKind 决定了一个 Condition 的解释方式，与之无关的字段一律忽略。
type ConditionKind string

const (
	ConditionMinTotal             ConditionKind = "min_total"
	ConditionMaxTotal             ConditionKind = "max_total"
	ConditionStateIs              ConditionKind = "state_is"
	ConditionStateIsNot           ConditionKind = "state_is_not"
	ConditionCountryIs            ConditionKind = "country_is"
	ConditionUserLoggedIn         ConditionKind = "user_logged_in"
	ConditionTNShippingRestricted ConditionKind = "tn_shipping_restricted"
	// ConditionExpression 由管理员编写的 CEL 表达式，需要挂载 ExpressionEngine 才会真正求值。
	ConditionExpression ConditionKind = "expression"
)

// defaultCountry 是目的地国家缺省时 country_is 的比较基准。
const defaultCountry = "india"

// Condition 是针对一次结账上下文的单个谓词。
// 可选字段使用指针表达“未设置”，Flag 是三态的 (true / false / nil)。
type Condition struct {
	Kind       ConditionKind `json:"kind" yaml:"kind"`
	Amount     *float64      `json:"amount,omitempty" yaml:"amount,omitempty"`
	State      *string       `json:"state,omitempty" yaml:"state,omitempty"`
	Country    *string       `json:"country,omitempty" yaml:"country,omitempty"`
	Flag       *bool         `json:"flag,omitempty" yaml:"flag,omitempty"`
	Expression string        `json:"expression,omitempty" yaml:"expression,omitempty"`
}

func MinTotal(amount float64) Condition {
	return Condition{Kind: ConditionMinTotal, Amount: &amount}
}

func MaxTotal(amount float64) Condition {
	return Condition{Kind: ConditionMaxTotal, Amount: &amount}
}

func StateIs(state string) Condition {
	return Condition{Kind: ConditionStateIs, State: &state}
}

func StateIsNot(state string) Condition {
	return Condition{Kind: ConditionStateIsNot, State: &state}
}

func CountryIs(country string) Condition {
	return Condition{Kind: ConditionCountryIs, Country: &country}
}

func UserLoggedIn(required bool) Condition {
	return Condition{Kind: ConditionUserLoggedIn, Flag: &required}
}

// TNShippingRestricted 构造泰米尔纳德邦配送限制条件。
// true: 仅在购物车含受限商品时成立；false: 仅在不含受限商品时成立。
func TNShippingRestricted(flag bool) Condition {
	return Condition{Kind: ConditionTNShippingRestricted, Flag: &flag}
}

func Expression(expr string) Condition {
	return Condition{Kind: ConditionExpression, Expression: expr}
}

// Clone 返回不与原值共享指针字段的副本。
func (c Condition) Clone() Condition {
	out := c
	if c.Amount != nil {
		v := *c.Amount
		out.Amount = &v
	}
	if c.State != nil {
		v := *c.State
		out.State = &v
	}
	if c.Country != nil {
		v := *c.Country
		out.Country = &v
	}
	if c.Flag != nil {
		v := *c.Flag
		out.Flag = &v
	}
	return out
}

// Evaluator 对条件求值。零值可直接使用，此时 expression 条件一律放行。
// 求值是纯函数，同一个 Evaluator 可以被多个结账请求并发使用。
type Evaluator struct {
	engine ExpressionEngine
}

// NewEvaluator 创建一个挂载了表达式引擎的 Evaluator，engine 可以为 nil。
func NewEvaluator(engine ExpressionEngine) *Evaluator {
	return &Evaluator{engine: engine}
}

// Engine 返回挂载的表达式引擎，可能为 nil。
func (e *Evaluator) Engine() ExpressionEngine {
	if e == nil {
		return nil
	}
	return e.engine
}

var plainEvaluator = &Evaluator{}

// EvaluateCondition 判断单个条件在给定上下文中是否成立。永远不会失败。
func EvaluateCondition(c Condition, cc CheckoutContext) bool {
	return plainEvaluator.EvaluateCondition(c, cc)
}

// EvaluateAll 判断一组条件是否全部成立，空列表视为成立。
func EvaluateAll(conds []Condition, cc CheckoutContext) bool {
	return plainEvaluator.EvaluateAll(conds, cc)
}

func (e *Evaluator) EvaluateCondition(c Condition, cc CheckoutContext) bool {
	switch c.Kind {
	case ConditionMinTotal:
		min := 0.0
		if c.Amount != nil {
			min = *c.Amount
		}
		return cc.Total >= min

	case ConditionMaxTotal:
		max := math.Inf(1)
		if c.Amount != nil {
			max = *c.Amount
		}
		return cc.Total <= max

	case ConditionStateIs:
		if c.State == nil {
			return true
		}
		return strings.EqualFold(cc.DestinationState, *c.State)

	case ConditionStateIsNot:
		if c.State == nil {
			return true
		}
		return !strings.EqualFold(cc.DestinationState, *c.State)

	case ConditionCountryIs:
		if c.Country == nil {
			return true
		}
		country := cc.DestinationCountry
		if country == "" {
			country = defaultCountry
		}
		return strings.EqualFold(country, *c.Country)

	case ConditionUserLoggedIn:
		mustBeLoggedIn := c.Flag == nil || *c.Flag
		if mustBeLoggedIn {
			return !cc.IsGuest
		}
		return cc.IsGuest

	case ConditionTNShippingRestricted:
		restricted := cc.HasTNRestrictedItem()
		if c.Flag == nil {
			// 未设置 flag 时直接报告限制状态，与其他条件“缺省即成立”的约定不同。
			return restricted
		}
		if *c.Flag {
			return restricted
		}
		return !restricted

	case ConditionExpression:
		if e == nil || e.engine == nil || c.Expression == "" {
			return true
		}
		ok, err := e.engine.Match(c.Expression, cc)
		if err != nil {
			return true
		}
		return ok

	default:
		// 未识别的条件类型放行：新增条件类型不能让旧的结账节点拒绝订单。
		return true
	}
}

func (e *Evaluator) EvaluateAll(conds []Condition, cc CheckoutContext) bool {
	for _, c := range conds {
		if !e.EvaluateCondition(c, cc) {
			return false
		}
	}
	return true
}
