package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driving"
)

type providerJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	DefaultPath string `json:"default_path,omitempty"`
	Enabled     bool   `json:"enabled"`
	Custom      bool   `json:"custom"`
	Selected    bool   `json:"selected"`
}

func toProviderJSON(p domain.Provider) providerJSON {
	return providerJSON{
		ID:          p.ID,
		Name:        p.Name,
		Path:        p.Path,
		DefaultPath: p.DefaultPath,
		Enabled:     p.Enabled,
		Custom:      p.Custom,
		Selected:    p.Selected,
	}
}

type itemFieldJSON struct {
	Name     string `json:"name"`
	Label    string `json:"label,omitempty"`
	Default  string `json:"default,omitempty"`
	Required bool   `json:"required,omitempty"`
	Secret   bool   `json:"secret,omitempty"`
}

type fieldJSON struct {
	Name         string          `json:"name"`
	Label        string          `json:"label,omitempty"`
	Type         string          `json:"type"`
	EnvVar       string          `json:"env_var,omitempty"`
	Secret       bool            `json:"secret,omitempty"`
	EnvKey       string          `json:"env_key,omitempty"`
	ItemFields   []itemFieldJSON `json:"item_fields,omitempty"`
	HasItemOAuth bool            `json:"has_item_oauth,omitempty"`
}

type skillJSON struct {
	ID             string                   `json:"id"`
	Name           string                   `json:"name"`
	Description    string                   `json:"description,omitempty"`
	Status         domain.Status            `json:"status"`
	ProviderStatus map[string]domain.Status `json:"provider_status"`
	Checksum       string                   `json:"checksum"`
	NeedsConfig    bool                     `json:"needs_config"`
	HasOAuth       bool                     `json:"has_oauth"`
	TestCommand    string                   `json:"test_command,omitempty"`
	Dependencies   []string                 `json:"dependencies,omitempty"`
	Fields         []fieldJSON              `json:"fields"`
}

type dependencyJSON struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
}

type skillDetailJSON struct {
	skillJSON
	Config           map[string]any   `json:"config"`
	DependencyStatus []dependencyJSON `json:"dependency_status"`
}

func toSkillJSON(st domain.SkillStatus) skillJSON {
	s := st.Skill
	out := skillJSON{
		ID:             s.ID,
		Name:           s.Name,
		Description:    s.Description,
		Status:         st.Status,
		ProviderStatus: st.ProviderStatus,
		Checksum:       st.Checksum,
		NeedsConfig:    s.NeedsConfig(),
		HasOAuth:       s.OAuth != nil,
		TestCommand:    s.TestCommand,
		Dependencies:   s.Dependencies,
		Fields:         make([]fieldJSON, 0, len(s.Fields)),
	}
	if out.ProviderStatus == nil {
		out.ProviderStatus = map[string]domain.Status{}
	}
	for _, f := range s.Fields {
		switch f := f.(type) {
		case *domain.ScalarField:
			out.Fields = append(out.Fields, fieldJSON{
				Name: f.Name, Label: f.Label, Type: "text", EnvVar: f.EnvVar, Secret: f.Secret,
			})
		case *domain.ListField:
			fj := fieldJSON{Name: f.Name, Label: f.Label, Type: "list", EnvKey: f.EnvKey, HasItemOAuth: f.ItemOAuth != nil}
			for _, it := range f.ItemFields {
				fj.ItemFields = append(fj.ItemFields, itemFieldJSON{
					Name: it.Name, Label: it.Label, Default: it.Default, Required: it.Required, Secret: it.Secret,
				})
			}
			out.Fields = append(out.Fields, fj)
		}
	}
	return out
}

func toSkillDetailJSON(d *driving.SkillDetail) skillDetailJSON {
	out := skillDetailJSON{
		skillJSON:        toSkillJSON(d.SkillStatus),
		Config:           encodeConfig(&d.Skill, d.Config),
		DependencyStatus: make([]dependencyJSON, 0, len(d.Dependencies)),
	}
	for _, dep := range d.Dependencies {
		out.DependencyStatus = append(out.DependencyStatus, dependencyJSON(dep))
	}
	return out
}

type deployResultJSON struct {
	Provider string `json:"provider"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

type actionResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Results []deployResultJSON `json:"results,omitempty"`
}

func resultsResponse(message string, results []domain.DeployResult) actionResponse {
	resp := actionResponse{Success: true, Message: message}
	for _, r := range results {
		resp.Results = append(resp.Results, deployResultJSON(r))
	}
	return resp
}

type testResultJSON struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
}

type updateCheckJSON struct {
	HasUpdates bool   `json:"has_updates"`
	Error      string `json:"error,omitempty"`
}

type eventJSON struct {
	ID        string    `json:"id"`
	Skill     string    `json:"skill"`
	Provider  string    `json:"provider,omitempty"`
	Action    string    `json:"action"`
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toEventJSON(e domain.Event) eventJSON {
	return eventJSON{
		ID:        e.ID,
		Skill:     e.SkillID,
		Provider:  e.Provider,
		Action:    string(e.Action),
		Success:   e.Success,
		Message:   e.Message,
		CreatedAt: e.CreatedAt,
	}
}

type setProviderRequest struct {
	ID      string  `json:"id"`
	Enabled bool    `json:"enabled"`
	Path    *string `json:"path,omitempty"`
	Name    *string `json:"name,omitempty"`
}

type customProviderRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

type selectProviderRequest struct {
	ID string `json:"id"`
}

type oauthRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// defaultKey is the config key holding a list field's default item slug,
// e.g. "default_org".
func defaultKey(f *domain.ListField) string {
	return "default_" + strings.ToLower(f.EnvKey)
}

// encodeConfig renders field values in the shape the front end edits:
// scalars by field name, list items as objects with a slug, and the
// default item under defaultKey.
func encodeConfig(skill *domain.Skill, values domain.FieldValues) map[string]any {
	out := make(map[string]any)
	for _, f := range skill.Fields {
		switch f := f.(type) {
		case *domain.ScalarField:
			if v, ok := values.Scalars[f.Name]; ok {
				out[f.Name] = v
			}
		case *domain.ListField:
			lv := values.Lists[f.Name]
			items := make([]map[string]string, 0)
			if lv != nil {
				for _, item := range lv.Items {
					obj := map[string]string{domain.SlugAttribute: item.Slug}
					for k, v := range item.Values {
						obj[k] = v
					}
					items = append(items, obj)
				}
				if lv.Default != "" {
					out[defaultKey(f)] = lv.Default
				}
			}
			out[f.Name] = items
		}
	}
	return out
}

// decodeConfig is the inverse of encodeConfig. Unknown keys are ignored.
func decodeConfig(skill *domain.Skill, raw map[string]json.RawMessage) (domain.FieldValues, error) {
	values := domain.NewFieldValues()
	for _, f := range skill.Fields {
		switch f := f.(type) {
		case *domain.ScalarField:
			msg, ok := raw[f.Name]
			if !ok {
				continue
			}
			v, err := scalarString(msg)
			if err != nil {
				return values, fmt.Errorf("%w: field %s: %v", domain.ErrInvalidInput, f.Name, err)
			}
			values.Scalars[f.Name] = v
		case *domain.ListField:
			lv := &domain.ListValue{}
			if msg, ok := raw[f.Name]; ok {
				var items []map[string]json.RawMessage
				if err := json.Unmarshal(msg, &items); err != nil {
					return values, fmt.Errorf("%w: field %s must be a list of objects", domain.ErrInvalidInput, f.Name)
				}
				for _, obj := range items {
					item := domain.ListItem{Values: make(map[string]string)}
					keys := make([]string, 0, len(obj))
					for k := range obj {
						keys = append(keys, k)
					}
					sort.Strings(keys)
					for _, k := range keys {
						v, err := scalarString(obj[k])
						if err != nil {
							return values, fmt.Errorf("%w: field %s.%s: %v", domain.ErrInvalidInput, f.Name, k, err)
						}
						if k == domain.SlugAttribute {
							item.Slug = v
							continue
						}
						item.Values[k] = v
					}
					lv.Items = append(lv.Items, item)
				}
			}
			if msg, ok := raw[defaultKey(f)]; ok {
				def, err := scalarString(msg)
				if err != nil {
					return values, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, defaultKey(f), err)
				}
				lv.Default = def
			}
			values.Lists[f.Name] = lv
		}
	}
	return values, nil
}

// scalarString accepts JSON strings, numbers, booleans and null.
func scalarString(msg json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(msg, &v); err != nil {
		return "", err
	}
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64, bool:
		return strings.TrimSpace(string(msg)), nil
	default:
		return "", fmt.Errorf("expected a scalar value")
	}
}

// splitItemAuthBody separates client credentials from item attributes.
func splitItemAuthBody(raw map[string]json.RawMessage) (driving.ItemAuthRequest, error) {
	var req driving.ItemAuthRequest
	req.Attributes = make(map[string]string)
	for k, msg := range raw {
		v, err := scalarString(msg)
		if err != nil {
			return req, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, k, err)
		}
		switch k {
		case "client_id":
			req.ClientID = v
		case "client_secret":
			req.ClientSecret = v
		case domain.SlugAttribute:
		default:
			req.Attributes[k] = v
		}
	}
	return req, nil
}
