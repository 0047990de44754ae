package masking

import (
	"fmt"
	"strings"
	"unicode/utf8"

	masker "github.com/ggwhite/go-masker"
)

const (
	maskDefault    = "default"
	maskPassword   = "password"
	maskName       = "name"
	maskAddress    = "addr"
	maskEmail      = "email"
	maskMobile     = "mobile"
	maskTelephone  = "tel"
	maskID         = "id"
	maskCreditCard = "credit_card"
	maskURL        = "url"
)

// newMask keeps the shape of the value and hides its content
func newMask(params Params) (Transformer, error) {
	if err := params.allow("type", "char"); err != nil {
		return nil, err
	}
	maskType, err := params.String("type", maskDefault)
	if err != nil {
		return nil, err
	}
	char, err := params.String("char", "x")
	if err != nil {
		return nil, err
	}
	if char == "" {
		return nil, fmt.Errorf("%w: char must not be empty", ErrInvalidParams)
	}

	m := &masker.Masker{}
	var mf func(string) string
	switch strings.ToLower(maskType) {
	case maskDefault:
		mf = func(v string) string {
			return strings.Repeat(char, utf8.RuneCountInString(v))
		}
	case maskPassword:
		mf = m.Password
	case maskName:
		mf = m.Name
	case maskAddress:
		mf = m.Address
	case maskEmail:
		mf = m.Email
	case maskMobile:
		mf = m.Mobile
	case maskTelephone:
		mf = m.Telephone
	case maskID:
		mf = m.ID
	case maskCreditCard:
		mf = m.CreditCard
	case maskURL:
		mf = m.URL
	default:
		return nil, fmt.Errorf("%w: unknown mask type %q", ErrInvalidParams, maskType)
	}

	return nullSafe(func(value interface{}) (interface{}, error) {
		s, err := text(value)
		if err != nil {
			return nil, err
		}
		return mf(s), nil
	}), nil
}
