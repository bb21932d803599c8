package domain

import (
	"bufio"
	"bytes"
	"strings"
)

// EnvVar is one KEY="VALUE" line of a credential artifact.
type EnvVar struct {
	Key   string
	Value string
}

// EnvFile is the ordered content of a credential artifact. It is the wire
// format only; field values are reconstructed from it by the credential
// service.
//
// Values are written double-quoted and are not escaped: a value containing
// a double quote does not survive a round trip.
type EnvFile []EnvVar

// ParseEnvFile decodes newline-separated KEY="VALUE" lines. Blank lines,
// comments and lines without '=' are ignored.
func ParseEnvFile(data []byte) EnvFile {
	var out EnvFile
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out = append(out, EnvVar{Key: key, Value: unquote(strings.TrimSpace(value))})
	}
	return out
}

// unquote removes one surrounding pair of double quotes.
func unquote(value string) string {
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		return value[1 : len(value)-1]
	}
	return value
}

// Bytes encodes the file. An empty file encodes to no bytes.
func (f EnvFile) Bytes() []byte {
	var b bytes.Buffer
	for _, v := range f {
		b.WriteString(v.Key)
		b.WriteString(`="`)
		b.WriteString(v.Value)
		b.WriteString("\"\n")
	}
	return b.Bytes()
}

// Get returns the last value stored for key.
func (f EnvFile) Get(key string) (string, bool) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i].Key == key {
			return f[i].Value, true
		}
	}
	return "", false
}

// Map returns the variables as a map; later lines win.
func (f EnvFile) Map() map[string]string {
	m := make(map[string]string, len(f))
	for _, v := range f {
		m[v.Key] = v.Value
	}
	return m
}

// Without returns a copy of f with every variable matching drop removed.
func (f EnvFile) Without(drop func(key string) bool) EnvFile {
	out := make(EnvFile, 0, len(f))
	for _, v := range f {
		if !drop(v.Key) {
			out = append(out, v)
		}
	}
	return out
}
