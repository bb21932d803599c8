package file

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
)

// declaration mirrors skill.json / skill.yaml.
type declaration struct {
	Name         string      `json:"name" yaml:"name"`
	Description  string      `json:"description" yaml:"description"`
	Files        []string    `json:"files" yaml:"files"`
	Fields       []fieldDecl `json:"fields" yaml:"fields"`
	OAuth        *oauthDecl  `json:"oauth" yaml:"oauth"`
	TestCommand  string      `json:"test_command" yaml:"test_command"`
	Dependencies []string    `json:"dependencies" yaml:"dependencies"`
}

type fieldDecl struct {
	Name       string     `json:"name" yaml:"name"`
	Label      string     `json:"label" yaml:"label"`
	Type       string     `json:"type" yaml:"type"`
	EnvVar     string     `json:"env_var" yaml:"env_var"`
	Secret     bool       `json:"secret" yaml:"secret"`
	EnvKey     string     `json:"env_key" yaml:"env_key"`
	Marker     string     `json:"marker" yaml:"marker"`
	ItemFields []itemDecl `json:"item_fields" yaml:"item_fields"`
	ItemOAuth  *oauthDecl `json:"item_oauth" yaml:"item_oauth"`
}

type itemDecl struct {
	Name     string  `json:"name" yaml:"name"`
	Label    string  `json:"label" yaml:"label"`
	Default  *string `json:"default" yaml:"default"`
	Required bool    `json:"required" yaml:"required"`
	Secret   bool    `json:"secret" yaml:"secret"`
}

type oauthDecl struct {
	AuthURL          string            `json:"auth_url" yaml:"auth_url"`
	TokenURL         string            `json:"token_url" yaml:"token_url"`
	Scopes           []string          `json:"scopes" yaml:"scopes"`
	ExtraAuthParams  map[string]string `json:"extra_auth_params" yaml:"extra_auth_params"`
	ExtraTokenParams map[string]string `json:"extra_token_params" yaml:"extra_token_params"`
	NoGrantType      bool              `json:"no_grant_type" yaml:"no_grant_type"`
	TokenMapping     map[string]string `json:"token_mapping" yaml:"token_mapping"`
}

// fieldTypeList selects the list variant; every other type is scalar.
const fieldTypeList = "list"

// refreshTokenKey is the token marking an item of an OAuth list field.
const refreshTokenKey = "refresh_token"

// parseDeclaration decodes and validates a declaration. The file name picks
// the decoder: .json is strict JSON, anything else is YAML.
func parseDeclaration(id, dir, name string, data []byte) (*domain.Skill, error) {
	var decl declaration
	unmarshal := yaml.Unmarshal
	if filepath.Ext(name) == ".json" {
		unmarshal = json.Unmarshal
	}
	if err := unmarshal(data, &decl); err != nil {
		return nil, fmt.Errorf("%w: %s: %s: %v", domain.ErrInvalidSkill, id, name, err)
	}

	skill := &domain.Skill{
		ID:           id,
		Name:         decl.Name,
		Description:  decl.Description,
		SourceDir:    dir,
		TestCommand:  decl.TestCommand,
		Dependencies: decl.Dependencies,
		OAuth:        decl.OAuth.descriptor(),
	}
	if skill.Name == "" {
		skill.Name = id
	}

	for _, entry := range decl.Files {
		m := domain.ParseFileMapping(entry)
		if m.Source == "" {
			return nil, fmt.Errorf("%w: %s: empty file entry", domain.ErrInvalidSkill, id)
		}
		skill.Files = append(skill.Files, m)
	}

	seen := make(map[string]bool)
	for _, fd := range decl.Fields {
		if fd.Name == "" {
			return nil, fmt.Errorf("%w: %s: field without a name", domain.ErrInvalidSkill, id)
		}
		if seen[fd.Name] {
			return nil, fmt.Errorf("%w: %s: duplicate field %q", domain.ErrInvalidSkill, id, fd.Name)
		}
		seen[fd.Name] = true

		if fd.Type != fieldTypeList {
			envVar := fd.EnvVar
			if envVar == "" {
				envVar = skill.EnvPrefix() + "_" + domain.EnvName(fd.Name)
			}
			skill.Fields = append(skill.Fields, &domain.ScalarField{
				Name:   fd.Name,
				Label:  fd.Label,
				EnvVar: envVar,
				Secret: fd.Secret,
			})
			continue
		}

		lf, err := fd.listField()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidSkill, id, err)
		}
		skill.Fields = append(skill.Fields, lf)
	}
	return skill, nil
}

// listField builds a list field and resolves its marker attribute.
func (fd fieldDecl) listField() (*domain.ListField, error) {
	lf := &domain.ListField{
		Name:      fd.Name,
		Label:     fd.Label,
		EnvKey:    fd.EnvKey,
		ItemOAuth: fd.ItemOAuth.descriptor(),
	}
	if lf.EnvKey == "" {
		lf.EnvKey = domain.EnvName(fd.Name)
	} else {
		lf.EnvKey = domain.EnvName(lf.EnvKey)
	}

	for _, it := range fd.ItemFields {
		if it.Name == "" {
			return nil, fmt.Errorf("field %q: item field without a name", fd.Name)
		}
		item := domain.ItemField{
			Name:     it.Name,
			Label:    it.Label,
			Required: it.Required,
			Secret:   it.Secret,
		}
		if it.Default != nil {
			item.Default = *it.Default
			item.HasDefault = true
		}
		lf.ItemFields = append(lf.ItemFields, item)
	}

	marker, err := fd.marker(lf)
	if err != nil {
		return nil, err
	}
	lf.Marker = marker
	return lf, nil
}

func (fd fieldDecl) marker(lf *domain.ListField) (string, error) {
	if lf.ItemOAuth != nil {
		if _, ok := lf.ItemOAuth.SuffixFor(refreshTokenKey); !ok {
			return "", fmt.Errorf("field %q: item_oauth token_mapping must map %s", fd.Name, refreshTokenKey)
		}
		return refreshTokenKey, nil
	}
	if fd.Marker != "" {
		for _, attr := range lf.Attributes() {
			if attr.Name == fd.Marker {
				return fd.Marker, nil
			}
		}
		return "", fmt.Errorf("field %q: marker %q is not an item field", fd.Name, fd.Marker)
	}
	for _, attr := range lf.Attributes() {
		if attr.Required {
			return attr.Name, nil
		}
	}
	return "", fmt.Errorf("field %q: declare a marker or a required item field", fd.Name)
}

func (d *oauthDecl) descriptor() *domain.OAuthDescriptor {
	if d == nil {
		return nil
	}
	mapping := make(map[string]string, len(d.TokenMapping))
	for k, v := range d.TokenMapping {
		mapping[k] = strings.ToUpper(v)
	}
	return &domain.OAuthDescriptor{
		AuthURL:          d.AuthURL,
		TokenURL:         d.TokenURL,
		Scopes:           d.Scopes,
		ExtraAuthParams:  d.ExtraAuthParams,
		ExtraTokenParams: d.ExtraTokenParams,
		NoGrantType:      d.NoGrantType,
		TokenMapping:     mapping,
	}
}
