package masking

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Params are the strategy parameters as read from the configuration file
type Params map[string]interface{}

// allow fails on any parameter outside names, so that typos are not silently ignored
func (p Params) allow(names ...string) error {
	unknown := make([]string, 0)
	for key := range p {
		found := false
		for _, name := range names {
			if strings.EqualFold(key, name) {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: unknown parameters %s", ErrInvalidParams, strings.Join(unknown, ", "))
	}
	return nil
}

// lookup is case insensitive: viper lowercases keys read from files
func (p Params) lookup(name string) (interface{}, bool) {
	if v, ok := p[name]; ok {
		return v, true
	}
	for key, v := range p {
		if strings.EqualFold(key, name) {
			return v, true
		}
	}
	return nil, false
}

func (p Params) has(name string) bool {
	_, ok := p.lookup(name)
	return ok
}

func (p Params) String(name string, def string) (string, error) {
	v, ok := p.lookup(name)
	if !ok {
		return def, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidParams, name, err)
	}
	return s, nil
}

func (p Params) Bool(name string, def bool) (bool, error) {
	v, ok := p.lookup(name)
	if !ok {
		return def, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrInvalidParams, name, err)
	}
	return b, nil
}

func (p Params) Int(name string, def int) (int, error) {
	v, ok := p.lookup(name)
	if !ok {
		return def, nil
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidParams, name, err)
	}
	return i, nil
}

func (p Params) Float(name string, def float64) (float64, error) {
	v, ok := p.lookup(name)
	if !ok {
		return def, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidParams, name, err)
	}
	return f, nil
}

func (p Params) Slice(name string) ([]interface{}, error) {
	v, ok := p.lookup(name)
	if !ok {
		return nil, nil
	}
	s, err := cast.ToSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParams, name, err)
	}
	return s, nil
}

func (p Params) StringSlice(name string) ([]string, error) {
	v, ok := p.lookup(name)
	if !ok {
		return nil, nil
	}
	s, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParams, name, err)
	}
	return s, nil
}

// text returns the string form of a cell value as the drivers hand it over
func text(value interface{}) (string, error) {
	switch v := value.(type) {
	case []byte:
		return string(v), nil
	case string:
		return v, nil
	case time.Time:
		return v.Format("2006-01-02 15:04:05.999999"), nil
	}
	return cast.ToStringE(value)
}
