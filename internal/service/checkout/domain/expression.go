// internal/service/checkout/domain/expression.go
package domain

// ExpressionEngine 是表达式条件的求值接口，由基础设施层的规则引擎实现。
// 领域层只关心结果，任何错误都按放行处理。
type ExpressionEngine interface {
	// Match 在给定上下文中对表达式求值，结果必须是布尔值。
	Match(expression string, cc CheckoutContext) (bool, error)
	// Check 只编译表达式，供后台保存配置时校验语法。
	Check(expression string) error
}
