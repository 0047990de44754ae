package masking

import (
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

// newNoise moves a number by a random share of itself, bounded by ratio
func newNoise(params Params) (Transformer, error) {
	if err := params.allow("ratio", "precision"); err != nil {
		return nil, err
	}
	ratio, err := params.Float("ratio", 0.1)
	if err != nil {
		return nil, err
	}
	if ratio <= 0 || ratio > 1 {
		return nil, fmt.Errorf("%w: ratio must be in (0, 1]", ErrInvalidParams)
	}
	precision, err := params.Int("precision", 2)
	if err != nil {
		return nil, err
	}
	if precision < 0 {
		return nil, fmt.Errorf("%w: precision must not be negative", ErrInvalidParams)
	}

	return nullSafe(func(value interface{}) (interface{}, error) {
		s, err := text(value)
		if err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("noise needs a number: %w", err)
		}
		factor := decimal.NewFromFloat(1 + ratio*(2*rand.Float64()-1))
		return d.Mul(factor).Round(int32(precision)).String(), nil
	}), nil
}
