package mcp

import (
	"context"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driving"
)

// mockSkillService is a mock implementation of driving.SkillService.
type mockSkillService struct {
	skills  []domain.SkillStatus
	detail  *driving.SkillDetail
	results []domain.DeployResult
	removed bool
	err     error

	calls []string
}

func (m *mockSkillService) List(_ context.Context) ([]domain.SkillStatus, error) {
	return m.skills, m.err
}

func (m *mockSkillService) Get(_ context.Context, id string) (*driving.SkillDetail, error) {
	m.calls = append(m.calls, "get:"+id)
	return m.detail, m.err
}

func (m *mockSkillService) Install(_ context.Context, id string) ([]domain.DeployResult, error) {
	m.calls = append(m.calls, "install:"+id)
	return m.results, m.err
}

func (m *mockSkillService) InstallTo(_ context.Context, id, providerID string) error {
	m.calls = append(m.calls, "install:"+id+"@"+providerID)
	return m.err
}

func (m *mockSkillService) Update(_ context.Context, _ string) ([]domain.DeployResult, error) {
	return m.results, m.err
}

func (m *mockSkillService) RefreshOutdated(_ context.Context, _ string) ([]domain.DeployResult, error) {
	return m.results, m.err
}

func (m *mockSkillService) Uninstall(_ context.Context, id string) (bool, error) {
	m.calls = append(m.calls, "uninstall:"+id)
	return m.removed, m.err
}

func (m *mockSkillService) UninstallFrom(_ context.Context, id, providerID string) (bool, error) {
	m.calls = append(m.calls, "uninstall:"+id+"@"+providerID)
	return m.removed, m.err
}

func (m *mockSkillService) Configure(_ context.Context, _ string, _ domain.FieldValues) error {
	return m.err
}

func (m *mockSkillService) Test(_ context.Context, _ string) (domain.TestResult, error) {
	return domain.TestResult{}, m.err
}

func (m *mockSkillService) ClearCredentials(_ context.Context, _ string) (bool, error) {
	return m.removed, m.err
}

func (m *mockSkillService) Authorize(_ context.Context, _, _, _ string) error {
	return m.err
}

func (m *mockSkillService) AuthorizeItem(_ context.Context, _ string, _ driving.ItemAuthRequest) error {
	return m.err
}

func (m *mockSkillService) History(_ context.Context, _ string, _ int) ([]domain.Event, error) {
	return nil, m.err
}

func (m *mockSkillService) CheckForUpdates(_ context.Context) (domain.UpdateCheck, error) {
	return domain.UpdateCheck{}, m.err
}

func (m *mockSkillService) SelfUpdate(_ context.Context) (string, error) {
	return "", m.err
}

// mockProviderRegistry is a mock implementation of driving.ProviderRegistry.
type mockProviderRegistry struct {
	providers []domain.Provider
	err       error
}

func (m *mockProviderRegistry) EnsureInitialized() error { return m.err }

func (m *mockProviderRegistry) List() ([]domain.Provider, error) { return m.providers, m.err }

func (m *mockProviderRegistry) Get(_ string) (*domain.Provider, error) { return nil, m.err }

func (m *mockProviderRegistry) Enabled() ([]domain.Provider, error) { return m.providers, m.err }

func (m *mockProviderRegistry) Selected() (*domain.Provider, error) { return nil, m.err }

func (m *mockProviderRegistry) SetEnabled(_ string, _ bool, _ driving.ProviderOverride) error {
	return m.err
}

func (m *mockProviderRegistry) AddCustom(_, _, _ string) (*domain.Provider, error) { return nil, m.err }

func (m *mockProviderRegistry) Remove(_ string) error { return m.err }

func (m *mockProviderRegistry) Select(_ string) error { return m.err }
