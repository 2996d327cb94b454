// internal/service/checkout/domain/flow.go
package domain

import "sort"

// StepKind 定义了结账流程中的阶段类型。
type StepKind string

const (
	StepCollectShipping     StepKind = "collect_shipping"
	StepCollectContact      StepKind = "collect_contact"
	StepReviewOrder         StepKind = "review_order"
	StepSelectPaymentMethod StepKind = "select_payment_method"
	StepCreateOrderRecord   StepKind = "create_order_record"
	StepStartPaymentGateway StepKind = "start_payment_gateway"
)

// PaymentMethod 是可供选择的支付方式。
type PaymentMethod string

const (
	PaymentRazorpay PaymentMethod = "razorpay"
	PaymentCOD      PaymentMethod = "cod"
	PaymentFree     PaymentMethod = "free"
	PaymentManual   PaymentMethod = "manual"
)

// Step 是结账流程中的一个有序阶段，Conditions 为空时始终生效。
type Step struct {
	ID         string      `json:"id" yaml:"id"`
	Kind       StepKind    `json:"kind" yaml:"kind"`
	Label      string      `json:"label" yaml:"label"`
	Order      int         `json:"order" yaml:"order"`
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// PaymentRule 是一种支付方式及其可用条件。
type PaymentRule struct {
	Method      PaymentMethod `json:"method" yaml:"method"`
	Label       string        `json:"label" yaml:"label"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Conditions  []Condition   `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// FlowConfig 是结账流程配置的聚合根。求值器只读取它，从不修改。
type FlowConfig struct {
	ID           string        `json:"id" yaml:"id"`
	Name         string        `json:"name" yaml:"name"`
	IsDefault    bool          `json:"isDefault" yaml:"isDefault"`
	Steps        []Step        `json:"steps" yaml:"steps"`
	PaymentRules []PaymentRule `json:"paymentRules" yaml:"paymentRules"`
}

// EnabledPaymentMethods 返回在当前上下文中可用的支付规则，保持声明顺序。
func EnabledPaymentMethods(flow FlowConfig, cc CheckoutContext) []PaymentRule {
	return plainEvaluator.EnabledPaymentMethods(flow, cc)
}

// OrderedSteps 返回按 Order 升序稳定排序后的步骤副本。
func OrderedSteps(flow FlowConfig) []Step {
	steps := make([]Step, len(flow.Steps))
	copy(steps, flow.Steps)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	return steps
}

// ActiveSteps 返回有序步骤中条件全部成立的部分。
func ActiveSteps(flow FlowConfig, cc CheckoutContext) []Step {
	return plainEvaluator.ActiveSteps(flow, cc)
}

func (e *Evaluator) EnabledPaymentMethods(flow FlowConfig, cc CheckoutContext) []PaymentRule {
	enabled := make([]PaymentRule, 0, len(flow.PaymentRules))
	for _, rule := range flow.PaymentRules {
		if e.EvaluateAll(rule.Conditions, cc) {
			enabled = append(enabled, rule)
		}
	}
	return enabled
}

func (e *Evaluator) ActiveSteps(flow FlowConfig, cc CheckoutContext) []Step {
	ordered := OrderedSteps(flow)
	active := make([]Step, 0, len(ordered))
	for _, step := range ordered {
		if e.EvaluateAll(step.Conditions, cc) {
			active = append(active, step)
		}
	}
	return active
}

// Methods 提取支付规则中的支付方式，便于日志和事件使用。
func Methods(rules []PaymentRule) []PaymentMethod {
	methods := make([]PaymentMethod, 0, len(rules))
	for _, r := range rules {
		methods = append(methods, r.Method)
	}
	return methods
}

// Clone 返回一个深拷贝，包括条件中的指针字段，仓储用它隔离调用方的修改。
func (f FlowConfig) Clone() FlowConfig {
	out := f
	out.Steps = make([]Step, len(f.Steps))
	for i, s := range f.Steps {
		s.Conditions = cloneConditions(s.Conditions)
		out.Steps[i] = s
	}
	out.PaymentRules = make([]PaymentRule, len(f.PaymentRules))
	for i, r := range f.PaymentRules {
		r.Conditions = cloneConditions(r.Conditions)
		out.PaymentRules[i] = r
	}
	return out
}

func cloneConditions(conds []Condition) []Condition {
	if conds == nil {
		return nil
	}
	out := make([]Condition, len(conds))
	for i, c := range conds {
		out[i] = c.Clone()
	}
	return out
}
