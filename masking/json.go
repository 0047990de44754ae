package masking

import (
	"errors"
	"fmt"

	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var errInvalidJSON = errors.New("value is not valid JSON")

// jsonAssignment is one entry of the set list
type jsonAssignment struct {
	path  string
	value interface{}
}

// newJSON overwrites or deletes paths inside a JSON document, leaving the rest intact.
// Paths that do not exist are created by set and ignored by delete.
// set is a list of {path, value} entries: configuration loaders fold map keys to lower case,
// which would change the paths.
func newJSON(params Params) (Transformer, error) {
	if err := params.allow("set", "delete"); err != nil {
		return nil, err
	}
	set, err := jsonAssignments(params)
	if err != nil {
		return nil, err
	}
	remove, err := params.StringSlice("delete")
	if err != nil {
		return nil, err
	}
	if len(set) == 0 && len(remove) == 0 {
		return nil, fmt.Errorf("%w: set or delete is required", ErrInvalidParams)
	}

	return nullSafe(func(value interface{}) (interface{}, error) {
		s, err := text(value)
		if err != nil {
			return nil, err
		}
		doc := []byte(s)
		if !gjson.ValidBytes(doc) {
			return nil, errInvalidJSON
		}
		for _, assignment := range set {
			if doc, err = sjson.SetBytes(doc, assignment.path, assignment.value); err != nil {
				return nil, fmt.Errorf("set %s: %w", assignment.path, err)
			}
		}
		for _, path := range remove {
			if !gjson.GetBytes(doc, path).Exists() {
				continue
			}
			if doc, err = sjson.DeleteBytes(doc, path); err != nil {
				return nil, fmt.Errorf("delete %s: %w", path, err)
			}
		}
		return string(doc), nil
	}), nil
}

func jsonAssignments(params Params) ([]jsonAssignment, error) {
	entries, err := params.Slice("set")
	if err != nil {
		return nil, err
	}
	result := make([]jsonAssignment, 0, len(entries))
	for i, entry := range entries {
		fields, err := cast.ToStringMapE(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: set[%d]: %v", ErrInvalidParams, i, err)
		}
		entryParams := Params(fields)
		if err := entryParams.allow("path", "value"); err != nil {
			return nil, fmt.Errorf("set[%d]: %w", i, err)
		}
		path, err := entryParams.String("path", "")
		if err != nil {
			return nil, err
		}
		value, ok := entryParams.lookup("value")
		if path == "" || !ok {
			return nil, fmt.Errorf("%w: set[%d] needs path and value", ErrInvalidParams, i)
		}
		result = append(result, jsonAssignment{path: path, value: value})
	}
	return result, nil
}
