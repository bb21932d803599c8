package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvFile_Bytes(t *testing.T) {
	f := EnvFile{{Key: "API_KEY", Value: "xyz"}, {Key: "REGION", Value: "eu"}}

	assert.Equal(t, "API_KEY=\"xyz\"\nREGION=\"eu\"\n", string(f.Bytes()))
	assert.Empty(t, EnvFile(nil).Bytes())
}

func TestParseEnvFile(t *testing.T) {
	data := strings.Join([]string{
		`# comment`,
		`API_KEY="xyz"`,
		``,
		`PLAIN=value`,
		`SINGLE='quoted'`,
		`EMPTY=""`,
		`URL="https://x.test/?a=b"`,
		`garbage line`,
		`=novalue`,
	}, "\n")

	f := ParseEnvFile([]byte(data))

	assert.Equal(t, EnvFile{
		{Key: "API_KEY", Value: "xyz"},
		{Key: "PLAIN", Value: "value"},
		{Key: "SINGLE", Value: "'quoted'"},
		{Key: "EMPTY", Value: ""},
		{Key: "URL", Value: "https://x.test/?a=b"},
	}, f)
}

func TestEnvFile_RoundTrip(t *testing.T) {
	f := EnvFile{
		{Key: "A", Value: "1"},
		{Key: "B", Value: "two words"},
		{Key: "C", Value: ""},
		{Key: "D", Value: "secret'"},
		{Key: "E", Value: "'leading"},
		{Key: "F", Value: `ends with quote"`},
		{Key: "G", Value: `""`},
	}

	assert.Equal(t, f, ParseEnvFile(f.Bytes()))
}

func TestEnvFile_GetAndMap(t *testing.T) {
	f := EnvFile{{Key: "A", Value: "1"}, {Key: "A", Value: "2"}, {Key: "B", Value: "3"}}

	v, ok := f.Get("A")
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	_, ok = f.Get("Z")
	assert.False(t, ok)

	assert.Equal(t, map[string]string{"A": "2", "B": "3"}, f.Map())
}

func TestEnvFile_Without(t *testing.T) {
	f := EnvFile{{Key: "X_ACME_TOKEN", Value: "1"}, {Key: "X_OTHER_TOKEN", Value: "2"}}

	out := f.Without(func(k string) bool { return strings.HasPrefix(k, "X_ACME_") })

	assert.Equal(t, EnvFile{{Key: "X_OTHER_TOKEN", Value: "2"}}, out)
	assert.Len(t, f, 2)
}
