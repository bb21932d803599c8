package services

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driving"
)

// StatusService derives installation status from the filesystem. Nothing
// is cached; every call inspects the provider directories again.
type StatusService struct {
	fs        afero.Fs
	providers driving.ProviderRegistry
}

// NewStatusService creates a status service.
func NewStatusService(fs afero.Fs, providers driving.ProviderRegistry) *StatusService {
	return &StatusService{fs: fs, providers: providers}
}

// Status computes the status of a skill in one provider given the skill's
// current checksum.
func (s *StatusService) Status(skill *domain.Skill, checksum string, provider domain.Provider) domain.Status {
	dir := provider.SkillDir(skill.ID)
	if dir == "" {
		return domain.StatusNotInstalled
	}
	if ok, _ := afero.DirExists(s.fs, dir); !ok {
		return domain.StatusNotInstalled
	}

	marker, err := afero.ReadFile(s.fs, filepath.Join(dir, domain.ChecksumFile))
	if err != nil || strings.TrimSpace(string(marker)) != checksum {
		return domain.StatusOutdated
	}

	if !skill.NeedsConfig() {
		return domain.StatusConfigured
	}
	if ok, _ := afero.Exists(s.fs, filepath.Join(dir, domain.CredentialFile)); ok {
		return domain.StatusConfigured
	}
	return domain.StatusInstalled
}

// Evaluate computes the skill's status for the selected provider and for
// every enabled provider.
func (s *StatusService) Evaluate(skill *domain.Skill) (domain.SkillStatus, error) {
	checksum, err := Checksum(s.fs, skill)
	if err != nil {
		return domain.SkillStatus{}, fmt.Errorf("checksum for %s: %w", skill.ID, err)
	}

	result := domain.SkillStatus{
		Skill:          *skill,
		Checksum:       checksum,
		Status:         domain.StatusNotInstalled,
		ProviderStatus: make(map[string]domain.Status),
	}

	enabled, err := s.providers.Enabled()
	if err != nil {
		return domain.SkillStatus{}, err
	}
	for _, p := range enabled {
		status := s.Status(skill, checksum, p)
		result.ProviderStatus[p.ID] = status
		if p.Selected {
			result.Status = status
		}
	}
	return result, nil
}
