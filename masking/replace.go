package masking

import "fmt"

// newReplace substitutes every non-null value with the configured one
func newReplace(params Params) (Transformer, error) {
	if err := params.allow("value", "null"); err != nil {
		return nil, err
	}
	toNull, err := params.Bool("null", false)
	if err != nil {
		return nil, err
	}
	if toNull {
		return newSetNull(nil)
	}
	replacement, ok := params.lookup("value")
	if !ok {
		return nil, fmt.Errorf("%w: value is required", ErrInvalidParams)
	}
	if replacement == nil {
		return newSetNull(nil)
	}
	return nullSafe(func(interface{}) (interface{}, error) {
		return replacement, nil
	}), nil
}

func newSetNull(params Params) (Transformer, error) {
	if err := params.allow(); err != nil {
		return nil, err
	}
	return TransformerFunc(func(interface{}) (interface{}, error) {
		return nil, nil
	}), nil
}
