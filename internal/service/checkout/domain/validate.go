// internal/service/checkout/domain/validate.go
package domain

import "fmt"

var knownStepKinds = map[StepKind]bool{
	StepCollectShipping:     true,
	StepCollectContact:      true,
	StepReviewOrder:         true,
	StepSelectPaymentMethod: true,
	StepCreateOrderRecord:   true,
	StepStartPaymentGateway: true,
}

var knownMethods = map[PaymentMethod]bool{
	PaymentRazorpay: true,
	PaymentCOD:      true,
	PaymentFree:     true,
	PaymentManual:   true,
}

// Validate 检查流程配置的完整性，只在后台保存配置时调用。
// 求值器本身从不校验配置，未知的条件类型在求值时直接放行。
func (f FlowConfig) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidFlow)
	}

	ids := make(map[string]bool, len(f.Steps))
	orders := make(map[int]string, len(f.Steps))
	for _, s := range f.Steps {
		if s.ID == "" {
			return fmt.Errorf("%w: step with order %d has no id", ErrInvalidFlow, s.Order)
		}
		if ids[s.ID] {
			return fmt.Errorf("%w: duplicate step id %q", ErrInvalidFlow, s.ID)
		}
		ids[s.ID] = true
		if other, ok := orders[s.Order]; ok {
			return fmt.Errorf("%w: steps %q and %q share order %d", ErrInvalidFlow, other, s.ID, s.Order)
		}
		orders[s.Order] = s.ID
		if !knownStepKinds[s.Kind] {
			return fmt.Errorf("%w: step %q has unknown kind %q", ErrInvalidFlow, s.ID, s.Kind)
		}
	}

	methods := make(map[PaymentMethod]bool, len(f.PaymentRules))
	for _, r := range f.PaymentRules {
		if !knownMethods[r.Method] {
			return fmt.Errorf("%w: unknown payment method %q", ErrInvalidFlow, r.Method)
		}
		if methods[r.Method] {
			return fmt.Errorf("%w: duplicate payment method %q", ErrInvalidFlow, r.Method)
		}
		methods[r.Method] = true
	}
	return nil
}

// Expressions 收集流程中所有 expression 条件的表达式文本。
func (f FlowConfig) Expressions() []string {
	var exprs []string
	collect := func(conds []Condition) {
		for _, c := range conds {
			if c.Kind == ConditionExpression && c.Expression != "" {
				exprs = append(exprs, c.Expression)
			}
		}
	}
	for _, s := range f.Steps {
		collect(s.Conditions)
	}
	for _, r := range f.PaymentRules {
		collect(r.Conditions)
	}
	return exprs
}
