package masking

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

type templateContext struct {
	Value string
}

// newTemplate renders a text/template with the sprig functions; the raw value is .Value
func newTemplate(params Params) (Transformer, error) {
	if err := params.allow("template"); err != nil {
		return nil, err
	}
	source, err := params.String("template", "")
	if err != nil {
		return nil, err
	}
	if source == "" {
		return nil, fmt.Errorf("%w: template is required", ErrInvalidParams)
	}
	tmpl, err := template.New("mask").Funcs(sprig.TxtFuncMap()).Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: template: %v", ErrInvalidParams, err)
	}

	return nullSafe(func(value interface{}) (interface{}, error) {
		s, err := text(value)
		if err != nil {
			return nil, err
		}
		var sb strings.Builder
		if err := tmpl.Execute(&sb, templateContext{Value: s}); err != nil {
			return nil, fmt.Errorf("render template: %w", err)
		}
		return sb.String(), nil
	}), nil
}
