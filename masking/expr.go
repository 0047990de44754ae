package masking

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// newExpr evaluates an expr-lang expression with the raw value bound to value.
// A nil result produces NULL.
func newExpr(params Params) (Transformer, error) {
	if err := params.allow("expression"); err != nil {
		return nil, err
	}
	code, err := params.String("expression", "")
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, fmt.Errorf("%w: expression is required", ErrInvalidParams)
	}
	program, err := expr.Compile(code, expr.Env(map[string]interface{}{"value": ""}))
	if err != nil {
		return nil, fmt.Errorf("%w: expression: %v", ErrInvalidParams, err)
	}

	return nullSafe(func(value interface{}) (interface{}, error) {
		s, err := text(value)
		if err != nil {
			return nil, err
		}
		out, err := expr.Run(program, map[string]interface{}{"value": s})
		if err != nil {
			return nil, fmt.Errorf("evaluate expression: %w", err)
		}
		return out, nil
	}), nil
}
