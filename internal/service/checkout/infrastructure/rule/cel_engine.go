// internal/service/checkout/infrastructure/rule/cel_engine.go
package rule

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"
	"storefront/internal/service/checkout/domain"
)

// maxCachedPrograms 限制程序缓存的大小，超过后整体清空重建。
const maxCachedPrograms = 1024

// CELEngine 是 domain.ExpressionEngine 的 CEL 实现。
// 编译后的程序按表达式文本缓存，可以被并发使用。
type CELEngine struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewCELEngine 创建引擎并声明表达式可以使用的变量。
func NewCELEngine() (*CELEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("total", cel.DoubleType),
		cel.Variable("subtotal", cel.DoubleType),
		cel.Variable("shipping_cost", cel.DoubleType),
		cel.Variable("discount_total", cel.DoubleType),
		cel.Variable("destination_state", cel.StringType),
		cel.Variable("destination_country", cel.StringType),
		cel.Variable("is_guest", cel.BoolType),
		cel.Variable("has_tn_restricted_item", cel.BoolType),
		cel.Variable("items", cel.ListType(cel.MapType(cel.StringType, cel.DynType))),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cel environment")
	}
	return &CELEngine{env: env, programs: make(map[string]cel.Program)}, nil
}

// Check 编译表达式并确认结果是布尔值。
func (e *CELEngine) Check(expression string) error {
	_, err := e.program(expression)
	return err
}

// Match 对表达式求值。编译或运行失败时返回错误，由调用方决定如何处理。
func (e *CELEngine) Match(expression string, cc domain.CheckoutContext) (bool, error) {
	prg, err := e.program(expression)
	if err != nil {
		zlog.Warn().Err(err).Str("expression", expression).Msg("cel compile failed")
		return false, err
	}

	out, _, err := prg.Eval(activation(cc))
	if err != nil {
		zlog.Warn().Err(err).Str("expression", expression).Msg("cel evaluation failed")
		return false, errors.Wrapf(err, "evaluate %q", expression)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q returned %T, want bool", expression, out.Value())
	}
	return matched, nil
}

func (e *CELEngine) program(expression string) (cel.Program, error) {
	e.mu.RLock()
	if prg, ok := e.programs[expression]; ok {
		e.mu.RUnlock()
		return prg, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double check
	if prg, ok := e.programs[expression]; ok {
		return prg, nil
	}

	ast, iss := e.env.Compile(expression)
	if iss != nil && iss.Err() != nil {
		return nil, errors.Wrapf(iss.Err(), "compile %q", expression)
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("expression %q has type %s, want bool", expression, t)
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, errors.Wrapf(err, "plan %q", expression)
	}

	if len(e.programs) >= maxCachedPrograms {
		e.programs = make(map[string]cel.Program)
	}
	e.programs[expression] = prg
	return prg, nil
}

func activation(cc domain.CheckoutContext) map[string]interface{} {
	items := make([]map[string]interface{}, 0, len(cc.Items))
	for _, it := range cc.Items {
		tags := it.Tags
		if tags == nil {
			tags = []string{}
		}
		items = append(items, map[string]interface{}{
			"product_id":    it.ProductID,
			"category":      it.Category,
			"tags":          tags,
			"tn_restricted": it.IsTNRestricted(),
		})
	}
	return map[string]interface{}{
		"total":                  cc.Total,
		"subtotal":               cc.Subtotal,
		"shipping_cost":          cc.ShippingCost,
		"discount_total":         cc.DiscountTotal,
		"destination_state":      cc.DestinationState,
		"destination_country":    cc.DestinationCountry,
		"is_guest":               cc.IsGuest,
		"has_tn_restricted_item": cc.HasTNRestrictedItem(),
		"items":                  items,
	}
}
