package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/custodia-labs/agent-skills/internal/config"
	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driving"
)

type mockSkillService struct {
	skills     []domain.SkillStatus
	detail     *driving.SkillDetail
	results    []domain.DeployResult
	removed    bool
	testResult domain.TestResult
	events     []domain.Event
	update     domain.UpdateCheck
	pullMsg    string
	err        error

	calls      []string
	configured domain.FieldValues
	authID     string
	authSecret string
	itemReq    driving.ItemAuthRequest
}

func (m *mockSkillService) List(_ context.Context) ([]domain.SkillStatus, error) {
	return m.skills, m.err
}

func (m *mockSkillService) Get(_ context.Context, id string) (*driving.SkillDetail, error) {
	m.calls = append(m.calls, "get:"+id)
	if m.err != nil {
		return nil, m.err
	}
	return m.detail, nil
}

func (m *mockSkillService) Install(_ context.Context, id string) ([]domain.DeployResult, error) {
	m.calls = append(m.calls, "install:"+id)
	return m.results, m.err
}

func (m *mockSkillService) InstallTo(_ context.Context, id, providerID string) error {
	m.calls = append(m.calls, "install:"+id+"@"+providerID)
	return m.err
}

func (m *mockSkillService) Update(_ context.Context, id string) ([]domain.DeployResult, error) {
	m.calls = append(m.calls, "update:"+id)
	return m.results, m.err
}

func (m *mockSkillService) RefreshOutdated(_ context.Context, id string) ([]domain.DeployResult, error) {
	m.calls = append(m.calls, "refresh:"+id)
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

func (m *mockSkillService) Configure(_ context.Context, id string, values domain.FieldValues) error {
	m.calls = append(m.calls, "configure:"+id)
	m.configured = values
	return m.err
}

func (m *mockSkillService) Test(_ context.Context, id string) (domain.TestResult, error) {
	m.calls = append(m.calls, "test:"+id)
	return m.testResult, m.err
}

func (m *mockSkillService) ClearCredentials(_ context.Context, id string) (bool, error) {
	m.calls = append(m.calls, "clear:"+id)
	return m.removed, m.err
}

func (m *mockSkillService) Authorize(_ context.Context, id, clientID, clientSecret string) error {
	m.calls = append(m.calls, "authorize:"+id)
	m.authID, m.authSecret = clientID, clientSecret
	return m.err
}

func (m *mockSkillService) AuthorizeItem(_ context.Context, id string, req driving.ItemAuthRequest) error {
	m.calls = append(m.calls, "authorize-item:"+id)
	m.itemReq = req
	return m.err
}

func (m *mockSkillService) History(_ context.Context, skillID string, limit int) ([]domain.Event, error) {
	m.calls = append(m.calls, "history:"+skillID)
	if limit > 0 && len(m.events) > limit {
		return m.events[:limit], m.err
	}
	return m.events, m.err
}

func (m *mockSkillService) CheckForUpdates(_ context.Context) (domain.UpdateCheck, error) {
	return m.update, m.err
}

func (m *mockSkillService) SelfUpdate(_ context.Context) (string, error) {
	m.calls = append(m.calls, "self-update")
	return m.pullMsg, m.err
}

type mockProviderRegistry struct {
	providers []domain.Provider
	err       error

	calls    []string
	override driving.ProviderOverride
}

func (m *mockProviderRegistry) EnsureInitialized() error { return m.err }

func (m *mockProviderRegistry) List() ([]domain.Provider, error) { return m.providers, m.err }

func (m *mockProviderRegistry) Get(id string) (*domain.Provider, error) {
	for i := range m.providers {
		if m.providers[i].ID == id {
			return &m.providers[i], nil
		}
	}
	return nil, domain.ErrProviderNotFound
}

func (m *mockProviderRegistry) Enabled() ([]domain.Provider, error) { return m.providers, m.err }

func (m *mockProviderRegistry) Selected() (*domain.Provider, error) { return nil, m.err }

func (m *mockProviderRegistry) SetEnabled(id string, enabled bool, override driving.ProviderOverride) error {
	if enabled {
		m.calls = append(m.calls, "enable:"+id)
	} else {
		m.calls = append(m.calls, "disable:"+id)
	}
	m.override = override
	return m.err
}

func (m *mockProviderRegistry) AddCustom(id, name, path string) (*domain.Provider, error) {
	m.calls = append(m.calls, "add:"+id)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Provider{ID: id, Name: name, Path: path, Custom: true, Enabled: true}, nil
}

func (m *mockProviderRegistry) Remove(id string) error {
	m.calls = append(m.calls, "remove:"+id)
	return m.err
}

func (m *mockProviderRegistry) Select(id string) error {
	m.calls = append(m.calls, "select:"+id)
	return m.err
}

// setupTestServices injects mocks and returns a cleanup function.
func setupTestServices(skills *mockSkillService, providers *mockProviderRegistry) func() {
	SetServices(&Services{
		Skills:    skills,
		Providers: providers,
		Settings:  &config.Settings{SkillsDir: "skills", Listen: "127.0.0.1:0"},
	})
	return func() { SetServices(nil) }
}

// execute runs the root command with args and in as standard input.
func execute(t *testing.T, in string, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(in))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags clears flag state left behind by earlier executions.
func resetFlags() {
	skillsJSON = false
	targetProvider = ""
	configSets, configItems, configRemoves, configDefault = nil, nil, nil, nil
	authClientID, authClientSecret, authItem, authAttrs = "", "", "", nil
	providerPath, providerName = "", ""
	historySkill, historyLimit = "", 20
	selfUpdateCheck = false
	mcpPort, mcpHost = 0, "127.0.0.1"

	for _, c := range []interface{ Flags() *pflag.FlagSet }{
		skillsListCmd, skillsInstallCmd, skillsUninstallCmd, skillsConfigureCmd,
		skillsAuthCmd, providersEnableCmd, historyCmd, selfUpdateCmd, mcpServeCmd,
	} {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				if sv, ok := f.Value.(pflag.SliceValue); ok {
					_ = sv.Replace(nil)
				}
				f.Changed = false
			}
		})
	}
}
