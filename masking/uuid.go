package masking

import (
	"fmt"

	"github.com/google/uuid"
)

// newUUID returns random v4 UUIDs, or v5 UUIDs derived from the raw value when deterministic
func newUUID(params Params) (Transformer, error) {
	if err := params.allow("deterministic", "namespace"); err != nil {
		return nil, err
	}
	deterministic, err := params.Bool("deterministic", false)
	if err != nil {
		return nil, err
	}
	namespace := uuid.NameSpaceOID
	if params.has("namespace") {
		s, err := params.String("namespace", "")
		if err != nil {
			return nil, err
		}
		if namespace, err = uuid.Parse(s); err != nil {
			return nil, fmt.Errorf("%w: namespace: %v", ErrInvalidParams, err)
		}
	}

	if !deterministic {
		return nullSafe(func(interface{}) (interface{}, error) {
			return uuid.NewString(), nil
		}), nil
	}
	return nullSafe(func(value interface{}) (interface{}, error) {
		s, err := text(value)
		if err != nil {
			return nil, err
		}
		return uuid.NewSHA1(namespace, []byte(s)).String(), nil
	}), nil
}
