package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driving"
	"github.com/custodia-labs/agent-skills/internal/logger"
)

// Ensure CredentialService implements the interface.
var _ driving.CredentialService = (*CredentialService)(nil)

// CredentialService keeps one canonical credential file per skill under the
// config directory and copies it into every provider that has the skill.
type CredentialService struct {
	fs        afero.Fs
	configDir string
	providers driving.ProviderRegistry
}

// NewCredentialService creates a credential service rooted at configDir.
func NewCredentialService(fs afero.Fs, configDir string, providers driving.ProviderRegistry) *CredentialService {
	return &CredentialService{
		fs:        fs,
		configDir: configDir,
		providers: providers,
	}
}

// Path returns the canonical credential file for a skill.
func (s *CredentialService) Path(skillID string) string {
	return filepath.Join(s.configDir, skillID, domain.CredentialFile)
}

// Exists reports whether the canonical file exists.
func (s *CredentialService) Exists(skillID string) bool {
	ok, err := afero.Exists(s.fs, s.Path(skillID))
	return err == nil && ok
}

// Write regenerates the canonical file from values and syncs it.
func (s *CredentialService) Write(skill *domain.Skill, values domain.FieldValues) error {
	if err := s.store(skill, render(skill, values)); err != nil {
		return err
	}
	_, err := s.Sync(skill)
	return err
}

// Read reconstructs field values from the canonical file. A missing file
// yields empty values.
func (s *CredentialService) Read(skill *domain.Skill) (domain.FieldValues, error) {
	file, err := s.load(skill.ID)
	if err != nil {
		return domain.FieldValues{}, err
	}
	return decode(skill, file), nil
}

// Sync copies the canonical file into each enabled provider whose skill
// directory exists. Providers without the skill are skipped.
func (s *CredentialService) Sync(skill *domain.Skill) ([]string, error) {
	data, err := afero.ReadFile(s.fs, s.Path(skill.ID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading credentials for %s: %w", skill.ID, err)
	}

	enabled, err := s.providers.Enabled()
	if err != nil {
		return nil, err
	}

	var synced []string
	var errs []error
	for _, p := range enabled {
		dir := p.SkillDir(skill.ID)
		if dir == "" {
			continue
		}
		if ok, _ := afero.DirExists(s.fs, dir); !ok {
			continue
		}
		if err := writeSecret(s.fs, filepath.Join(dir, domain.CredentialFile), data); err != nil {
			errs = append(errs, fmt.Errorf("syncing %s to %s: %w", skill.ID, p.ID, err))
			continue
		}
		synced = append(synced, p.ID)
	}
	logger.Debug("synced credentials for %s to %v", skill.ID, synced)
	return synced, errors.Join(errs...)
}

// UpdateItem replaces the lines of one list item and leaves everything
// else in the file untouched.
func (s *CredentialService) UpdateItem(skill *domain.Skill, field string, item domain.ListItem) error {
	lf, ok := skill.ListField(field)
	if !ok {
		return fmt.Errorf("%w: %s.%s", domain.ErrFieldNotFound, skill.ID, field)
	}
	slug := domain.NormalizeSlug(item.Slug)
	if slug == "" {
		return fmt.Errorf("%w: item slug is required", domain.ErrInvalidInput)
	}

	current, err := s.load(skill.ID)
	if err != nil {
		return err
	}
	kept := current.Without(func(key string) bool {
		itemSlug, _, ok := splitItemKey(skill, lf, key)
		return ok && itemSlug == slug
	})
	kept = append(kept, itemLines(skill, lf, slug, item.Values)...)

	if err := s.store(skill, kept); err != nil {
		return err
	}
	_, err = s.Sync(skill)
	return err
}

// SaveTokens stores a whole-skill OAuth result. Client credentials go to
// the scalar fields whose variable names mention them; mapped tokens and
// any other scalar response values go to <SKILL>_<SUFFIX>.
func (s *CredentialService) SaveTokens(skill *domain.Skill, tokens map[string]any, clientID, clientSecret string) error {
	current, err := s.load(skill.ID)
	if err != nil {
		return err
	}

	var updates domain.EnvFile
	for _, f := range skill.Fields {
		sf, ok := f.(*domain.ScalarField)
		if !ok || sf.EnvVar == "" {
			continue
		}
		switch {
		case strings.Contains(sf.EnvVar, "CLIENT_ID") && clientID != "":
			updates = append(updates, domain.EnvVar{Key: sf.EnvVar, Value: clientID})
		case strings.Contains(sf.EnvVar, "CLIENT_SECRET") && clientSecret != "":
			updates = append(updates, domain.EnvVar{Key: sf.EnvVar, Value: clientSecret})
		}
	}

	desc := skill.OAuth
	if desc == nil {
		desc = &domain.OAuthDescriptor{}
	}
	prefix := skill.EnvPrefix() + "_"
	mapped := make(map[string]bool)
	for _, tm := range desc.Tokens() {
		mapped[tm.Key] = true
		if v, ok := tokenString(tokens[tm.Key]); ok {
			updates = append(updates, domain.EnvVar{Key: prefix + tm.EnvSuffix, Value: v})
		}
	}

	extras := make([]string, 0, len(tokens))
	for k := range tokens {
		if !mapped[k] {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	for _, k := range extras {
		if v, ok := tokenString(tokens[k]); ok && v != "" && v != "0" {
			updates = append(updates, domain.EnvVar{Key: prefix + domain.EnvName(k), Value: v})
		}
	}

	replaced := make(map[string]bool, len(updates))
	for _, u := range updates {
		replaced[u.Key] = true
	}
	file := append(current.Without(func(key string) bool { return replaced[key] }), updates...)

	if err := s.store(skill, file); err != nil {
		return err
	}
	_, err = s.Sync(skill)
	return err
}

// Clear removes the canonical file and every provider copy. Reports
// whether anything was removed.
func (s *CredentialService) Clear(skill *domain.Skill) (bool, error) {
	removed := false
	paths := []string{s.Path(skill.ID)}

	providers, err := s.providers.List()
	if err != nil {
		return false, err
	}
	for _, p := range providers {
		if dir := p.SkillDir(skill.ID); dir != "" {
			paths = append(paths, filepath.Join(dir, domain.CredentialFile))
		}
	}

	for _, path := range paths {
		ok, err := afero.Exists(s.fs, path)
		if err != nil || !ok {
			continue
		}
		if err := s.fs.Remove(path); err != nil {
			return removed, fmt.Errorf("removing %s: %w", path, err)
		}
		removed = true
	}
	return removed, nil
}

func (s *CredentialService) load(skillID string) (domain.EnvFile, error) {
	data, err := afero.ReadFile(s.fs, s.Path(skillID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading credentials for %s: %w", skillID, err)
	}
	return domain.ParseEnvFile(data), nil
}

func (s *CredentialService) store(skill *domain.Skill, file domain.EnvFile) error {
	path := s.Path(skill.ID)
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating credential directory: %w", err)
	}
	if err := writeSecret(s.fs, path, file.Bytes()); err != nil {
		return fmt.Errorf("writing credentials for %s: %w", skill.ID, err)
	}
	return nil
}

// writeSecret replaces path atomically with an owner-only file.
func writeSecret(fsys afero.Fs, path string, data []byte) error {
	tmp, err := afero.TempFile(fsys, filepath.Dir(path), ".env-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = fsys.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = fsys.Remove(tmpName)
		return err
	}
	if err := fsys.Chmod(tmpName, 0o600); err != nil {
		_ = fsys.Remove(tmpName)
		return err
	}
	if err := fsys.Rename(tmpName, path); err != nil {
		_ = fsys.Remove(tmpName)
		return err
	}
	return nil
}

// render encodes values in field declaration order. Values for undeclared
// fields are ignored.
func render(skill *domain.Skill, values domain.FieldValues) domain.EnvFile {
	var file domain.EnvFile
	for _, f := range skill.Fields {
		switch f := f.(type) {
		case *domain.ScalarField:
			if v, ok := values.Scalars[f.Name]; ok && f.EnvVar != "" {
				file = append(file, domain.EnvVar{Key: f.EnvVar, Value: v})
			}
		case *domain.ListField:
			lv := values.Lists[f.Name]
			if lv == nil {
				continue
			}
			for _, item := range lv.Items {
				slug := domain.NormalizeSlug(item.Slug)
				if slug == "" {
					continue
				}
				file = append(file, itemLines(skill, f, slug, item.Values)...)
			}
			if def := domain.NormalizeSlug(lv.Default); def != "" {
				file = append(file, domain.EnvVar{Key: f.DefaultVar(skill), Value: def})
			}
		}
	}
	return file
}

// itemLines encodes one list item. Missing attributes with a declared
// default are written with the default.
func itemLines(skill *domain.Skill, f *domain.ListField, slug string, values map[string]string) domain.EnvFile {
	prefix := f.SlugPrefix(skill, slug)
	written := make(map[string]bool)
	var file domain.EnvFile
	add := func(suffix, value string) {
		if written[suffix] {
			return
		}
		written[suffix] = true
		file = append(file, domain.EnvVar{Key: prefix + suffix, Value: value})
	}

	for _, attr := range f.Attributes() {
		if v, ok := values[attr.Name]; ok {
			add(domain.EnvName(attr.Name), v)
		} else if attr.HasDefault {
			add(domain.EnvName(attr.Name), attr.Default)
		}
	}
	if f.ItemOAuth != nil {
		for _, tm := range f.ItemOAuth.Tokens() {
			if v, ok := values[tm.Key]; ok {
				add(tm.EnvSuffix, v)
			}
		}
	}
	return file
}

// decode rebuilds field values from a parsed file. Items are discovered
// through their marker variable.
func decode(skill *domain.Skill, file domain.EnvFile) domain.FieldValues {
	values := domain.NewFieldValues()
	env := file.Map()

	for _, f := range skill.Fields {
		switch f := f.(type) {
		case *domain.ScalarField:
			if v, ok := env[f.EnvVar]; ok && f.EnvVar != "" {
				values.Scalars[f.Name] = v
			}
		case *domain.ListField:
			if lv := decodeList(skill, f, file, env); lv != nil {
				values.Lists[f.Name] = lv
			}
		}
	}
	return values
}

func decodeList(skill *domain.Skill, f *domain.ListField, file domain.EnvFile, env map[string]string) *domain.ListValue {
	marker := f.MarkerSuffix()
	seen := make(map[string]bool)
	var slugs []string
	for _, v := range file {
		slug, suffix, ok := splitItemKey(skill, f, v.Key)
		if !ok || suffix != marker || seen[slug] {
			continue
		}
		seen[slug] = true
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	lv := &domain.ListValue{}
	for _, slug := range slugs {
		prefix := f.SlugPrefix(skill, slug)
		item := domain.ListItem{Slug: slug, Values: make(map[string]string)}
		for _, attr := range f.Attributes() {
			if v, ok := env[prefix+domain.EnvName(attr.Name)]; ok {
				item.Values[attr.Name] = v
			} else if attr.HasDefault {
				item.Values[attr.Name] = attr.Default
			}
		}
		if f.ItemOAuth != nil {
			for _, tm := range f.ItemOAuth.Tokens() {
				if v, ok := env[prefix+tm.EnvSuffix]; ok {
					item.Values[tm.Key] = v
				}
			}
		}
		lv.Items = append(lv.Items, item)
	}
	if def, ok := env[f.DefaultVar(skill)]; ok {
		lv.Default = def
	}

	if len(lv.Items) == 0 && lv.Default == "" {
		return nil
	}
	return lv
}

// splitItemKey splits an item variable into its slug and known suffix. The
// longest matching suffix wins, so REFRESH_TOKEN is never read as TOKEN of
// a slug ending in "-refresh". Keys with an unknown suffix do not belong to
// any item.
func splitItemKey(skill *domain.Skill, f *domain.ListField, key string) (slug, suffix string, ok bool) {
	prefix := f.ItemPrefix(skill)
	if !strings.HasPrefix(key, prefix) {
		return "", "", false
	}
	rest := key[len(prefix):]

	suffixes := f.Suffixes()
	if m := f.MarkerSuffix(); m != "" && !containsString(suffixes, m) {
		suffixes = append(suffixes, m)
	}
	sort.SliceStable(suffixes, func(i, j int) bool { return len(suffixes[i]) > len(suffixes[j]) })

	for _, sfx := range suffixes {
		if sfx == "" || !strings.HasSuffix(rest, "_"+sfx) {
			continue
		}
		slugPart := rest[:len(rest)-len(sfx)-1]
		if slugPart == "" {
			continue
		}
		if slug := domain.SlugFromEnv(slugPart); slug != "" {
			return slug, sfx, true
		}
	}
	return "", "", false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// tokenString renders a scalar value from a decoded token response.
func tokenString(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}
