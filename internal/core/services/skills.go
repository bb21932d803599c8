package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driven"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driving"
	"github.com/custodia-labs/agent-skills/internal/logger"
)

// Ensure SkillService implements the interface.
var _ driving.SkillService = (*SkillService)(nil)

// SkillServiceDeps are the collaborators of a SkillService. Runner,
// SourceControl and History are optional.
type SkillServiceDeps struct {
	FS            afero.Fs
	Skills        driven.SkillRepository
	Providers     driving.ProviderRegistry
	Credentials   driving.CredentialService
	OAuth         driving.OAuthFlow
	Runner        driven.CommandRunner
	SourceControl driven.SourceControl
	History       driven.HistoryStore
}

// SkillService ties skills, providers, deployment and credentials together.
type SkillService struct {
	fs          afero.Fs
	skills      driven.SkillRepository
	providers   driving.ProviderRegistry
	credentials driving.CredentialService
	oauth       driving.OAuthFlow
	runner      driven.CommandRunner
	vcs         driven.SourceControl
	history     driven.HistoryStore

	status   *StatusService
	deployer *Deployer
	now      func() time.Time
}

// NewSkillService creates a skill service.
func NewSkillService(deps SkillServiceDeps) *SkillService {
	return &SkillService{
		fs:          deps.FS,
		skills:      deps.Skills,
		providers:   deps.Providers,
		credentials: deps.Credentials,
		oauth:       deps.OAuth,
		runner:      deps.Runner,
		vcs:         deps.SourceControl,
		history:     deps.History,
		status:      NewStatusService(deps.FS, deps.Providers),
		deployer:    NewDeployer(deps.FS, deps.Providers, deps.Credentials),
		now:         time.Now,
	}
}

// List returns every skill with its computed status.
func (s *SkillService) List(ctx context.Context) ([]domain.SkillStatus, error) {
	skills, err := s.skills.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SkillStatus, 0, len(skills))
	for i := range skills {
		st, err := s.status.Evaluate(&skills[i])
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// Get returns one skill with its configuration and dependency report.
func (s *SkillService) Get(ctx context.Context, id string) (*driving.SkillDetail, error) {
	skill, err := s.skills.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	st, err := s.status.Evaluate(skill)
	if err != nil {
		return nil, err
	}
	config, err := s.credentials.Read(skill)
	if err != nil {
		return nil, err
	}
	return &driving.SkillDetail{
		SkillStatus:  st,
		Config:       config,
		Dependencies: s.dependencies(skill),
	}, nil
}

// Install deploys the skill to every enabled provider.
func (s *SkillService) Install(ctx context.Context, id string) ([]domain.DeployResult, error) {
	return s.deployAll(ctx, id, domain.ActionInstall)
}

// Update redeploys the skill to every enabled provider.
func (s *SkillService) Update(ctx context.Context, id string) ([]domain.DeployResult, error) {
	return s.deployAll(ctx, id, domain.ActionUpdate)
}

func (s *SkillService) deployAll(ctx context.Context, id string, action domain.Action) ([]domain.DeployResult, error) {
	skill, err := s.skills.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	results, err := s.deployer.DeployAll(skill)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		s.record(ctx, skill.ID, r.Provider, action, r.Success, r.Error)
	}
	return results, nil
}

// InstallTo deploys the skill to one provider.
func (s *SkillService) InstallTo(ctx context.Context, id, providerID string) error {
	skill, err := s.skills.Get(ctx, id)
	if err != nil {
		return err
	}
	provider, err := s.providers.Get(providerID)
	if err != nil {
		return err
	}
	err = s.deployer.DeployTo(skill, *provider)
	s.record(ctx, skill.ID, provider.ID, domain.ActionInstall, err == nil, errString(err))
	return err
}

// RefreshOutdated redeploys to the enabled providers whose copy is outdated.
func (s *SkillService) RefreshOutdated(ctx context.Context, id string) ([]domain.DeployResult, error) {
	skill, err := s.skills.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	st, err := s.status.Evaluate(skill)
	if err != nil {
		return nil, err
	}
	enabled, err := s.providers.Enabled()
	if err != nil {
		return nil, err
	}

	var results []domain.DeployResult
	for _, p := range enabled {
		if st.ProviderStatus[p.ID] != domain.StatusOutdated {
			continue
		}
		result := domain.DeployResult{Provider: p.ID, Success: true}
		if err := s.deployer.DeployTo(skill, p); err != nil {
			result.Success = false
			result.Error = err.Error()
		}
		s.record(ctx, skill.ID, p.ID, domain.ActionUpdate, result.Success, result.Error)
		results = append(results, result)
	}
	return results, nil
}

// Uninstall removes the skill from every enabled provider. Central
// credentials are kept.
func (s *SkillService) Uninstall(ctx context.Context, id string) (bool, error) {
	skill, err := s.skills.Get(ctx, id)
	if err != nil {
		return false, err
	}
	enabled, err := s.providers.Enabled()
	if err != nil {
		return false, err
	}

	removed := false
	for _, p := range enabled {
		ok, err := s.deployer.Remove(skill, p)
		if err != nil {
			s.record(ctx, skill.ID, p.ID, domain.ActionUninstall, false, err.Error())
			return removed, err
		}
		if ok {
			removed = true
			s.record(ctx, skill.ID, p.ID, domain.ActionUninstall, true, "")
		}
	}
	return removed, nil
}

// UninstallFrom removes the skill from one provider, enabled or not.
func (s *SkillService) UninstallFrom(ctx context.Context, id, providerID string) (bool, error) {
	skill, err := s.skills.Get(ctx, id)
	if err != nil {
		return false, err
	}
	provider, err := s.providers.Get(providerID)
	if err != nil {
		return false, err
	}
	removed, err := s.deployer.Remove(skill, *provider)
	if removed || err != nil {
		s.record(ctx, skill.ID, provider.ID, domain.ActionUninstall, err == nil, errString(err))
	}
	return removed, err
}

// Configure replaces the skill's configuration, installing it first if the
// primary provider does not have it yet.
func (s *SkillService) Configure(ctx context.Context, id string, values domain.FieldValues) error {
	skill, err := s.skills.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := validateValues(skill, values); err != nil {
		return err
	}
	if err := s.ensureInstalled(skill); err != nil {
		return err
	}
	err = s.credentials.Write(skill, values)
	s.record(ctx, skill.ID, "", domain.ActionConfigure, err == nil, errString(err))
	return err
}

// Test runs the skill's self-test command from the primary provider.
func (s *SkillService) Test(ctx context.Context, id string) (domain.TestResult, error) {
	skill, err := s.skills.Get(ctx, id)
	if err != nil {
		return domain.TestResult{}, err
	}
	if skill.TestCommand == "" {
		return domain.TestResult{Output: "No test command defined"}, nil
	}
	if s.runner == nil {
		return domain.TestResult{}, fmt.Errorf("%w: no command runner", domain.ErrPrecondition)
	}

	enabled, err := s.providers.Enabled()
	if err != nil {
		return domain.TestResult{}, err
	}
	if len(enabled) == 0 {
		return domain.TestResult{Output: "No providers configured"}, nil
	}

	dir := enabled[0].SkillDir(skill.ID)
	executable := filepath.Join(dir, skill.ID)
	if ok, _ := afero.Exists(s.fs, executable); !ok {
		return domain.TestResult{Output: "Executable not found: " + executable}, nil
	}
	return s.runner.Run(ctx, dir, executable, skill.TestCommand)
}

// ClearCredentials removes the canonical credentials and every copy.
func (s *SkillService) ClearCredentials(ctx context.Context, id string) (bool, error) {
	skill, err := s.skills.Get(ctx, id)
	if err != nil {
		return false, err
	}
	removed, err := s.credentials.Clear(skill)
	if removed || err != nil {
		s.record(ctx, skill.ID, "", domain.ActionClear, err == nil, errString(err))
	}
	return removed, err
}

// Authorize runs the skill-level OAuth flow and stores the tokens.
func (s *SkillService) Authorize(ctx context.Context, id, clientID, clientSecret string) error {
	skill, err := s.skills.Get(ctx, id)
	if err != nil {
		return err
	}
	if skill.OAuth == nil {
		return domain.ErrNoOAuth
	}
	if clientID == "" || clientSecret == "" {
		return domain.ErrMissingClientCredentials
	}
	if err := s.ensureInstalled(skill); err != nil {
		return err
	}

	tokens, err := s.oauth.Run(ctx, skill.OAuth, clientID, clientSecret)
	if err == nil {
		err = s.credentials.SaveTokens(skill, tokens, clientID, clientSecret)
	}
	s.record(ctx, skill.ID, "", domain.ActionAuthorize, err == nil, errString(err))
	return err
}

// AuthorizeItem runs the OAuth flow of a list field for one item and stores
// the tokens in that item's namespace. Client credentials come from the
// request, then the stored item, then the skill's scalar fields.
func (s *SkillService) AuthorizeItem(ctx context.Context, id string, req driving.ItemAuthRequest) error {
	skill, err := s.skills.Get(ctx, id)
	if err != nil {
		return err
	}
	lf, ok := skill.ListField(req.Field)
	if !ok {
		return fmt.Errorf("%w: %s.%s", domain.ErrFieldNotFound, skill.ID, req.Field)
	}
	if lf.ItemOAuth == nil {
		return fmt.Errorf("%w: field %s", domain.ErrNoOAuth, lf.Name)
	}
	slug := domain.NormalizeSlug(req.Slug)
	if slug == "" {
		return fmt.Errorf("%w: item slug is required", domain.ErrInvalidInput)
	}

	current, err := s.credentials.Read(skill)
	if err != nil {
		return err
	}
	values := make(map[string]string)
	if item, ok := current.Lists[lf.Name].Item(slug); ok {
		for k, v := range item.Values {
			values[k] = v
		}
	}
	declared := make(map[string]bool)
	for _, attr := range lf.Attributes() {
		declared[attr.Name] = true
	}
	for k, v := range req.Attributes {
		if declared[k] {
			values[k] = v
		}
	}

	clientID := firstNonEmpty(req.ClientID, values["client_id"], scalarMatching(skill, current, "CLIENT_ID"))
	clientSecret := firstNonEmpty(req.ClientSecret, values["client_secret"], scalarMatching(skill, current, "CLIENT_SECRET"))
	if clientID == "" || clientSecret == "" {
		return domain.ErrMissingClientCredentials
	}
	if declared["client_id"] {
		values["client_id"] = clientID
	}
	if declared["client_secret"] {
		values["client_secret"] = clientSecret
	}

	if err := s.ensureInstalled(skill); err != nil {
		return err
	}

	tokens, err := s.oauth.Run(ctx, lf.ItemOAuth, clientID, clientSecret)
	if err == nil {
		for _, tm := range lf.ItemOAuth.Tokens() {
			if v, ok := tokenString(tokens[tm.Key]); ok {
				values[tm.Key] = v
			}
		}
		err = s.credentials.UpdateItem(skill, lf.Name, domain.ListItem{Slug: slug, Values: values})
	}
	msg := lf.Name + "/" + slug
	if err != nil {
		msg += ": " + err.Error()
	}
	s.record(ctx, skill.ID, "", domain.ActionAuthorize, err == nil, msg)
	return err
}

// History returns recent events, newest first.
func (s *SkillService) History(ctx context.Context, skillID string, limit int) ([]domain.Event, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.List(ctx, skillID, limit)
}

// CheckForUpdates reports whether the skills repository is behind.
func (s *SkillService) CheckForUpdates(ctx context.Context) (domain.UpdateCheck, error) {
	if s.vcs == nil {
		return domain.UpdateCheck{}, fmt.Errorf("%w: skills directory is not under source control", domain.ErrPrecondition)
	}
	return s.vcs.CheckForUpdates(ctx), nil
}

// SelfUpdate pulls the skills repository.
func (s *SkillService) SelfUpdate(ctx context.Context) (string, error) {
	if s.vcs == nil {
		return "", fmt.Errorf("%w: skills directory is not under source control", domain.ErrPrecondition)
	}
	return s.vcs.Pull(ctx)
}

// ensureInstalled deploys the skill everywhere when the primary provider
// does not have it.
func (s *SkillService) ensureInstalled(skill *domain.Skill) error {
	enabled, err := s.providers.Enabled()
	if err != nil {
		return err
	}
	if len(enabled) == 0 {
		return domain.ErrNoProviders
	}
	if ok, _ := afero.DirExists(s.fs, enabled[0].SkillDir(skill.ID)); ok {
		return nil
	}
	logger.Info("installing %s before configuring it", skill.ID)
	results, err := s.deployer.DeployAll(skill)
	if err != nil {
		return err
	}
	for _, r := range results {
		if !r.Success {
			logger.Warn("install %s to %s failed: %s", skill.ID, r.Provider, r.Error)
		}
	}
	return nil
}

func (s *SkillService) dependencies(skill *domain.Skill) []domain.Dependency {
	deps := make([]domain.Dependency, 0, len(skill.Dependencies))
	for _, name := range skill.Dependencies {
		dep := domain.Dependency{Name: name}
		if s.runner != nil {
			if path, err := s.runner.LookPath(name); err == nil {
				dep.Available = true
				dep.Path = path
			}
		}
		deps = append(deps, dep)
	}
	return deps
}

func (s *SkillService) record(ctx context.Context, skillID, provider string, action domain.Action, success bool, message string) {
	if s.history == nil {
		return
	}
	err := s.history.Record(ctx, domain.Event{
		SkillID:   skillID,
		Provider:  provider,
		Action:    action,
		Success:   success,
		Message:   message,
		CreatedAt: s.now(),
	})
	if err != nil {
		logger.Warn("recording %s event for %s: %v", action, skillID, err)
	}
}

// validateValues rejects list items without a usable slug.
func validateValues(skill *domain.Skill, values domain.FieldValues) error {
	for name, lv := range values.Lists {
		if _, ok := skill.ListField(name); !ok {
			return fmt.Errorf("%w: %s.%s", domain.ErrFieldNotFound, skill.ID, name)
		}
		if lv == nil {
			continue
		}
		for _, item := range lv.Items {
			if domain.NormalizeSlug(item.Slug) == "" {
				return fmt.Errorf("%w: %s item has no slug", domain.ErrInvalidInput, name)
			}
		}
	}
	for name := range values.Scalars {
		f, ok := skill.Field(name)
		if !ok {
			return fmt.Errorf("%w: %s.%s", domain.ErrFieldNotFound, skill.ID, name)
		}
		if _, ok := f.(*domain.ScalarField); !ok {
			return fmt.Errorf("%w: %s is a list field", domain.ErrInvalidInput, name)
		}
	}
	return nil
}

// scalarMatching returns the stored value of the first scalar field whose
// variable name contains marker.
func scalarMatching(skill *domain.Skill, values domain.FieldValues, marker string) string {
	for _, f := range skill.Fields {
		if sf, ok := f.(*domain.ScalarField); ok && strings.Contains(sf.EnvVar, marker) {
			if v := values.Scalars[sf.Name]; v != "" {
				return v
			}
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
