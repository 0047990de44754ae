package masking

import (
	"fmt"
	"math/rand/v2"

	"github.com/spaolacci/murmur3"
)

// newRandomChoice picks one of the configured values. When deterministic, the pick
// depends only on the raw value and the seed, so equal inputs keep matching after masking.
func newRandomChoice(params Params) (Transformer, error) {
	if err := params.allow("values", "deterministic", "seed"); err != nil {
		return nil, err
	}
	values, err := params.Slice("values")
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: values must not be empty", ErrInvalidParams)
	}
	deterministic, err := params.Bool("deterministic", false)
	if err != nil {
		return nil, err
	}
	seed, err := params.Int("seed", 0)
	if err != nil {
		return nil, err
	}

	if !deterministic {
		return nullSafe(func(interface{}) (interface{}, error) {
			return values[rand.IntN(len(values))], nil
		}), nil
	}
	return nullSafe(func(value interface{}) (interface{}, error) {
		s, err := text(value)
		if err != nil {
			return nil, err
		}
		idx := murmur3.Sum32WithSeed([]byte(s), uint32(seed)) % uint32(len(values))
		return values[idx], nil
	}), nil
}
