// SPDX-FileCopyrightText: 2024 SUSE LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package masking holds the column value transformers applied while rows are dumped.
package masking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnknownStrategy = errors.New("unknown masking strategy")
	ErrInvalidParams   = errors.New("invalid masking parameters")
)

// Transformer replaces a single cell value. A nil value is SQL NULL.
// Implementations keep no state between calls.
type Transformer interface {
	Transform(value interface{}) (interface{}, error)
}

// TransformerFunc adapts a plain function to Transformer
type TransformerFunc func(value interface{}) (interface{}, error)

func (f TransformerFunc) Transform(value interface{}) (interface{}, error) {
	return f(value)
}

type constructor func(params Params) (Transformer, error)

var strategies = map[string]constructor{
	"replace":       newReplace,
	"set_null":      newSetNull,
	"mask":          newMask,
	"random_choice": newRandomChoice,
	"hash":          newHash,
	"fake":          newFake,
	"uuid":          newUUID,
	"template":      newTemplate,
	"expr":          newExpr,
	"json":          newJSON,
	"noise":         newNoise,
}

// New builds the transformer registered as strategy, validating its parameters
func New(strategy string, params Params) (Transformer, error) {
	build, ok := strategies[strings.ToLower(strategy)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	transformer, err := build(params)
	if err != nil {
		return nil, fmt.Errorf("strategy %s: %w", strategy, err)
	}
	return transformer, nil
}

// Strategies lists the registered strategy names
func Strategies() []string {
	result := make([]string, 0, len(strategies))
	for name := range strategies {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// nullSafe skips the transformation for NULL values
func nullSafe(f func(value interface{}) (interface{}, error)) Transformer {
	return TransformerFunc(func(value interface{}) (interface{}, error) {
		if value == nil {
			return nil, nil
		}
		return f(value)
	})
}
