package domain

import (
	"path"
	"sort"
	"strings"
)

// Skill is an installable bundle of files plus declarative metadata.
// It is re-read from its declaration on every query.
type Skill struct {
	// ID is the stable slug (the skill's directory name).
	ID          string
	Name        string
	Description string

	// SourceDir is the directory holding the skill's declaration and files.
	SourceDir string

	Files        []FileMapping
	Fields       []Field
	OAuth        *OAuthDescriptor
	TestCommand  string
	Dependencies []string
}

// NeedsConfig reports whether the skill declares any configuration fields.
func (s *Skill) NeedsConfig() bool {
	return len(s.Fields) > 0
}

// Field returns the declared field with the given name.
func (s *Skill) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.FieldName() == name {
			return f, true
		}
	}
	return nil, false
}

// ListField returns the declared list field with the given name.
func (s *Skill) ListField(name string) (*ListField, bool) {
	f, ok := s.Field(name)
	if !ok {
		return nil, false
	}
	lf, ok := f.(*ListField)
	return lf, ok
}

// EnvPrefix is the upper-cased, underscore-separated form of the skill id
// used to namespace generated variables.
func (s *Skill) EnvPrefix() string {
	return EnvName(s.ID)
}

// SortedSources returns the declared source paths in lexical order.
func (s *Skill) SortedSources() []string {
	sources := make([]string, 0, len(s.Files))
	for _, f := range s.Files {
		sources = append(sources, f.Source)
	}
	sort.Strings(sources)
	return sources
}

// FileMapping maps a source file in the skill directory to a destination
// inside the provider's skill directory.
type FileMapping struct {
	Source      string
	Destination string
}

// ParseFileMapping parses a "src[:dest]" declaration. The destination
// defaults to the base name of the source.
func ParseFileMapping(entry string) FileMapping {
	src, dst, found := strings.Cut(entry, ":")
	if !found || dst == "" {
		return FileMapping{Source: src, Destination: path.Base(src)}
	}
	return FileMapping{Source: src, Destination: dst}
}

// EnvName converts a slug or attribute name to its variable-name form:
// upper case with dashes replaced by underscores.
func EnvName(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, "-", "_"))
}

// NormalizeSlug case-folds a list-item slug and normalizes separators so
// that NormalizeSlug(SlugFromEnv(EnvName(s))) == NormalizeSlug(s).
func NormalizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case r == '-' || r == '_' || r == ' ' || r == '.':
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// SlugFromEnv converts the variable-name form of a slug back to a slug.
func SlugFromEnv(s string) string {
	return NormalizeSlug(strings.ReplaceAll(s, "_", "-"))
}
