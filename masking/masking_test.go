package masking

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uyuni-project/masked-dump/config"
)

func mustNew(t *testing.T, strategy string, params Params) Transformer {
	t.Helper()
	transformer, err := New(strategy, params)
	require.NoError(t, err)
	return transformer
}

func TestEveryStrategyKeepsNull(t *testing.T) {
	validParams := map[string]Params{
		"replace":       {"value": "redacted"},
		"set_null":      {},
		"mask":          {},
		"random_choice": {"values": []interface{}{"a", "b"}},
		"hash":          {},
		"fake":          {"kind": "email"},
		"uuid":          {},
		"template":      {"template": "x"},
		"expr":          {"expression": `"x"`},
		"json":          {"delete": []string{"a"}},
		"noise":         {},
	}
	require.Len(t, validParams, len(Strategies()))

	for _, strategy := range Strategies() {
		t.Run(strategy, func(t *testing.T) {
			params, ok := validParams[strategy]
			require.True(t, ok)
			result, err := mustNew(t, strategy, params).Transform(nil)
			require.NoError(t, err)
			assert.Nil(t, result)
		})
	}
}

func TestNewRejectsUnknownStrategy(t *testing.T) {
	_, err := New("scramble", nil)
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestNewRejectsInvalidParams(t *testing.T) {
	tests := []struct {
		strategy string
		params   Params
	}{
		{"replace", Params{}},
		{"replace", Params{"value": "x", "vale": "y"}},
		{"set_null", Params{"value": "x"}},
		{"mask", Params{"type": "iban"}},
		{"random_choice", Params{}},
		{"hash", Params{"function": "crc32"}},
		{"hash", Params{"salt": "not hex"}},
		{"fake", Params{"kind": "unicorn"}},
		{"uuid", Params{"namespace": "nope"}},
		{"template", Params{"template": "{{ .Value"}},
		{"expr", Params{"expression": "value +"}},
		{"json", Params{}},
		{"noise", Params{"ratio": 2}},
	}
	for _, test := range tests {
		t.Run(test.strategy, func(t *testing.T) {
			_, err := New(test.strategy, test.params)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestReplace(t *testing.T) {
	transformer := mustNew(t, "replace", Params{"value": "redacted@example.com"})

	result, err := transformer.Transform([]byte("real@x.com"))

	require.NoError(t, err)
	assert.Equal(t, "redacted@example.com", result)

	result, err = mustNew(t, "replace", Params{"null": true}).Transform("x")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestReplaceKeepsEmptyString(t *testing.T) {
	result, err := mustNew(t, "replace", Params{"value": ""}).Transform("secret")

	require.NoError(t, err)
	assert.Equal(t, "", result)
}

func TestMaskDefault(t *testing.T) {
	result, err := mustNew(t, "mask", Params{"char": "*"}).Transform([]byte("héllo"))

	require.NoError(t, err)
	assert.Equal(t, "*****", result)
}

func TestMaskEmail(t *testing.T) {
	result, err := mustNew(t, "mask", Params{"type": "email"}).Transform("ggwhite.chen@gmail.com")

	require.NoError(t, err)
	assert.NotEqual(t, "ggwhite.chen@gmail.com", result)
	assert.Contains(t, result, "@gmail.com")
}

func TestRandomChoiceDeterministic(t *testing.T) {
	values := []interface{}{"red", "green", "blue"}
	transformer := mustNew(t, "random_choice", Params{"values": values, "deterministic": true, "seed": 42})

	first, err := transformer.Transform([]byte("alice"))
	require.NoError(t, err)
	second, err := transformer.Transform("alice")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, values, first)
}

func TestRandomChoice(t *testing.T) {
	values := []interface{}{"red", "green"}
	transformer := mustNew(t, "random_choice", Params{"values": values})

	for i := 0; i < 10; i++ {
		result, err := transformer.Transform("x")
		require.NoError(t, err)
		assert.Contains(t, values, result)
	}
}

func TestHash(t *testing.T) {
	tests := []struct {
		params   Params
		expected string
	}{
		{Params{}, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{Params{"function": "md5"}, "900150983cd24fb0d6963f7d28e17f72"},
		{Params{"function": "sha1", "max_length": 8}, "a9993e36"},
		// the salt is hashed first: "ab" + "abc"
		{Params{"function": "md5", "salt": "6162"}, "6be2b63ee1f08e011cca25e1630fa5f6"},
	}
	for _, test := range tests {
		result, err := mustNew(t, "hash", test.params).Transform([]byte("abc"))
		require.NoError(t, err)
		assert.Equal(t, test.expected, result)
	}
}

func TestHashSiphash(t *testing.T) {
	transformer := mustNew(t, "hash", Params{"function": "siphash", "salt": "00ff"})

	first, err := transformer.Transform("abc")
	require.NoError(t, err)
	second, err := transformer.Transform("abc")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 16)
}

func TestFake(t *testing.T) {
	result, err := mustNew(t, "fake", Params{"kind": "email"}).Transform("real@x.com")

	require.NoError(t, err)
	assert.Contains(t, result, "@")
}

func TestUUIDDeterministic(t *testing.T) {
	transformer := mustNew(t, "uuid", Params{"deterministic": true})

	first, err := transformer.Transform("42")
	require.NoError(t, err)
	second, err := transformer.Transform([]byte("42"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	parsed, err := uuid.Parse(first.(string))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())
}

func TestUUIDRandom(t *testing.T) {
	result, err := mustNew(t, "uuid", nil).Transform("42")
	require.NoError(t, err)

	parsed, err := uuid.Parse(result.(string))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
}

func TestTemplate(t *testing.T) {
	transformer := mustNew(t, "template", Params{"template": `{{ .Value | upper }}-{{ "x" | repeat 3 }}`})

	result, err := transformer.Transform([]byte("abc"))

	require.NoError(t, err)
	assert.Equal(t, "ABC-xxx", result)
}

func TestExpr(t *testing.T) {
	result, err := mustNew(t, "expr", Params{"expression": `"user" + value + "@example.com"`}).Transform([]byte("7"))
	require.NoError(t, err)
	assert.Equal(t, "user7@example.com", result)

	result, err = mustNew(t, "expr", Params{"expression": `len(value)`}).Transform("abcd")
	require.NoError(t, err)
	assert.Equal(t, 4, result)

	result, err = mustNew(t, "expr", Params{"expression": `value == "" ? nil : value`}).Transform("")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestJSON(t *testing.T) {
	transformer := mustNew(t, "json", Params{
		"set":    []interface{}{map[string]interface{}{"path": "name", "value": "x"}},
		"delete": []string{"age", "missing"},
	})

	result, err := transformer.Transform([]byte(`{"name":"alice","age":31}`))

	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x"}`, result.(string))

	_, err = transformer.Transform("not json")
	assert.Error(t, err)
}

func TestJSONSetAppliesInOrder(t *testing.T) {
	transformer := mustNew(t, "json", Params{"set": []interface{}{
		map[string]interface{}{"path": "contact.homeEmail", "value": "first"},
		map[string]interface{}{"path": "contact.homeEmail", "value": "second"},
	}})

	result, err := transformer.Transform(`{"contact":{"homeEmail":"real@x.com"}}`)

	require.NoError(t, err)
	assert.JSONEq(t, `{"contact":{"homeEmail":"second"}}`, result.(string))
}

func TestJSONRejectsInvalidSet(t *testing.T) {
	for name, set := range map[string]interface{}{
		"map form":      map[string]interface{}{"homeEmail": "x"},
		"missing value": []interface{}{map[string]interface{}{"path": "a"}},
		"missing path":  []interface{}{map[string]interface{}{"value": "a"}},
		"unknown key":   []interface{}{map[string]interface{}{"path": "a", "value": "b", "values": "c"}},
		"not an entry":  []interface{}{"a"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := New("json", Params{"set": set})
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestJSONPathsKeepCaseThroughConfigFile(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
database:
  driver: mysql
  dsn: "root@tcp(db:3306)/app"
output:
  path: "-"
tables:
  - name: users
    columns:
      - name: profile
        strategy: json
        params:
          set:
            - path: homeEmail
              value: redacted@example.com
`)))
	cfg, err := config.Load(v)
	require.NoError(t, err)
	column := cfg.Tables[0].Columns[0]

	transformer := mustNew(t, column.Strategy, Params(column.Params))
	result, err := transformer.Transform(`{"homeEmail":"real@x.com"}`)

	require.NoError(t, err)
	assert.JSONEq(t, `{"homeEmail":"redacted@example.com"}`, result.(string))
}

func TestNoise(t *testing.T) {
	transformer := mustNew(t, "noise", Params{"ratio": 0.1, "precision": 2})

	for i := 0; i < 20; i++ {
		result, err := transformer.Transform([]byte("100"))
		require.NoError(t, err)
		d, err := decimal.NewFromString(result.(string))
		require.NoError(t, err)
		assert.True(t, d.GreaterThanOrEqual(decimal.NewFromInt(90)), d.String())
		assert.True(t, d.LessThanOrEqual(decimal.NewFromInt(110)), d.String())
	}

	_, err := transformer.Transform("abc")
	assert.Error(t, err)
}

func TestParamsAreCaseInsensitive(t *testing.T) {
	result, err := mustNew(t, "hash", Params{"Function": "md5", "MAX_LENGTH": 4}).Transform("abc")

	require.NoError(t, err)
	assert.Equal(t, "9001", result)
}
