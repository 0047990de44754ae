package masking

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-faker/faker/v4"
	"github.com/go-faker/faker/v4/pkg/options"
)

type fakerFunc func(opts ...options.OptionFunc) string

var fakers = map[string]fakerFunc{
	"email":       faker.Email,
	"name":        faker.Name,
	"first_name":  faker.FirstName,
	"last_name":   faker.LastName,
	"username":    faker.Username,
	"password":    faker.Password,
	"phone":       faker.Phonenumber,
	"e164_phone":  faker.E164PhoneNumber,
	"url":         faker.URL,
	"domain":      faker.DomainName,
	"ipv4":        faker.IPv4,
	"ipv6":        faker.IPv6,
	"mac_address": faker.MacAddress,
	"word":        faker.Word,
	"sentence":    faker.Sentence,
	"paragraph":   faker.Paragraph,
	"cc_number":   faker.CCNumber,
	"currency":    faker.Currency,
	"timezone":    faker.Timezone,
	"uuid":        faker.UUIDHyphenated,
}

// newFake generates a fresh fake value for every cell
func newFake(params Params) (Transformer, error) {
	if err := params.allow("kind"); err != nil {
		return nil, err
	}
	kind, err := params.String("kind", "")
	if err != nil {
		return nil, err
	}
	generate, ok := fakers[strings.ToLower(kind)]
	if !ok {
		kinds := make([]string, 0, len(fakers))
		for k := range fakers {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		return nil, fmt.Errorf("%w: kind must be one of %s", ErrInvalidParams, strings.Join(kinds, ", "))
	}
	return nullSafe(func(interface{}) (interface{}, error) {
		return generate(), nil
	}), nil
}
