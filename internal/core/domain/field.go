package domain

import "sort"

// SlugAttribute is the item attribute holding the item's slug. It names the
// item's namespace and is never stored as a variable of its own.
const SlugAttribute = "slug"

// Field is a configuration field declared by a skill. The set of
// implementations is closed: *ScalarField and *ListField.
type Field interface {
	FieldName() string
	isField()
}

// ScalarField holds one value stored in one named variable.
type ScalarField struct {
	Name   string
	Label  string
	EnvVar string
	Secret bool
}

// FieldName implements Field.
func (f *ScalarField) FieldName() string { return f.Name }

func (*ScalarField) isField() {}

// ListField holds a slug-keyed collection of items, each stored under
// <SKILL>_<EnvKey>_<SLUG>_<ATTRIBUTE>.
type ListField struct {
	Name   string
	Label  string
	EnvKey string

	// Marker is the attribute whose variable proves an item exists. For
	// fields with ItemOAuth it is the refresh-token key.
	Marker string

	ItemFields []ItemField
	ItemOAuth  *OAuthDescriptor
}

// FieldName implements Field.
func (f *ListField) FieldName() string { return f.Name }

func (*ListField) isField() {}

// ItemField describes one attribute of a list item.
type ItemField struct {
	Name       string
	Label      string
	Default    string
	HasDefault bool
	Required   bool
	Secret     bool
}

// Attributes returns the item attributes stored as variables, excluding
// the slug, in declaration order.
func (f *ListField) Attributes() []ItemField {
	attrs := make([]ItemField, 0, len(f.ItemFields))
	for _, it := range f.ItemFields {
		if it.Name == SlugAttribute {
			continue
		}
		attrs = append(attrs, it)
	}
	return attrs
}

// ItemPrefix returns the variable prefix shared by every item of the field
// for the given skill, e.g. "SENTRY_ORG_".
func (f *ListField) ItemPrefix(skill *Skill) string {
	return skill.EnvPrefix() + "_" + f.EnvKey + "_"
}

// SlugPrefix returns the namespace of a single item, e.g. "SENTRY_ORG_ACME_EU_".
func (f *ListField) SlugPrefix(skill *Skill, slug string) string {
	return f.ItemPrefix(skill) + EnvName(NormalizeSlug(slug)) + "_"
}

// DefaultVar returns the variable holding the default-item pointer.
func (f *ListField) DefaultVar(skill *Skill) string {
	return skill.EnvPrefix() + "_DEFAULT_" + f.EnvKey
}

// MarkerSuffix returns the variable suffix used to detect item existence.
func (f *ListField) MarkerSuffix() string {
	if f.ItemOAuth != nil {
		if suffix, ok := f.ItemOAuth.SuffixFor(f.Marker); ok {
			return suffix
		}
	}
	return EnvName(f.Marker)
}

// Suffixes returns every variable suffix that belongs to an item namespace:
// the stored attributes followed by the mapped token suffixes.
func (f *ListField) Suffixes() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, it := range f.Attributes() {
		add(EnvName(it.Name))
	}
	if f.ItemOAuth != nil {
		for _, tm := range f.ItemOAuth.Tokens() {
			add(tm.EnvSuffix)
		}
	}
	return out
}

// TokenMap maps one key of a token response to a variable suffix.
type TokenMap struct {
	Key       string
	EnvSuffix string
}

// OAuthDescriptor declares how to run an authorization-code flow.
type OAuthDescriptor struct {
	AuthURL          string
	TokenURL         string
	Scopes           []string
	ExtraAuthParams  map[string]string
	ExtraTokenParams map[string]string
	NoGrantType      bool
	TokenMapping     map[string]string
}

// DefaultTokenMapping is applied when a descriptor declares none.
var DefaultTokenMapping = map[string]string{
	"access_token":  "ACCESS_TOKEN",
	"refresh_token": "REFRESH_TOKEN",
	"expires_in":    "TOKEN_EXPIRES_IN",
}

// Complete reports whether both endpoints are declared.
func (d *OAuthDescriptor) Complete() bool {
	return d != nil && d.AuthURL != "" && d.TokenURL != ""
}

// Tokens returns the effective token mapping ordered by key.
func (d *OAuthDescriptor) Tokens() []TokenMap {
	mapping := d.TokenMapping
	if len(mapping) == 0 {
		mapping = DefaultTokenMapping
	}
	out := make([]TokenMap, 0, len(mapping))
	for k, v := range mapping {
		out = append(out, TokenMap{Key: k, EnvSuffix: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// SuffixFor returns the variable suffix mapped to a token key.
func (d *OAuthDescriptor) SuffixFor(key string) (string, bool) {
	for _, tm := range d.Tokens() {
		if tm.Key == key {
			return tm.EnvSuffix, true
		}
	}
	return "", false
}
