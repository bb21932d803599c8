package services

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driving"
	"github.com/custodia-labs/agent-skills/internal/logger"
)

// File modes used for deployed artifacts.
const (
	dirMode    = 0o755
	fileMode   = 0o755
	markerMode = 0o644
)

// Deployer copies skill files into provider directories.
type Deployer struct {
	fs          afero.Fs
	providers   driving.ProviderRegistry
	credentials driving.CredentialService
}

// NewDeployer creates a deployer.
func NewDeployer(fs afero.Fs, providers driving.ProviderRegistry, credentials driving.CredentialService) *Deployer {
	return &Deployer{fs: fs, providers: providers, credentials: credentials}
}

// DeployTo writes the skill's files, its checksum marker and a copy of its
// credentials into one provider. The marker holds the checksum of exactly
// the bytes written.
func (d *Deployer) DeployTo(skill *domain.Skill, provider domain.Provider) error {
	if !provider.Enabled {
		return fmt.Errorf("%w: %q", domain.ErrProviderDisabled, provider.ID)
	}
	dir := provider.SkillDir(skill.ID)
	if dir == "" {
		return fmt.Errorf("%w: provider %q has no path", domain.ErrPrecondition, provider.ID)
	}

	contents, err := readSources(d.fs, skill)
	if err != nil {
		return err
	}

	if err := d.fs.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	for _, m := range skill.Files {
		data, ok := contents[m.Source]
		if !ok {
			logger.Warn("skill %s: source %s not found, skipping", skill.ID, m.Source)
			continue
		}
		dst, err := destination(dir, m.Destination)
		if err != nil {
			return err
		}
		if err := d.fs.MkdirAll(filepath.Dir(dst), dirMode); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
		}
		if err := afero.WriteFile(d.fs, dst, data, fileMode); err != nil {
			return fmt.Errorf("writing %s: %w", dst, err)
		}
		if err := d.fs.Chmod(dst, fileMode); err != nil {
			return fmt.Errorf("chmod %s: %w", dst, err)
		}
	}

	checksum := checksumOf(skill, contents)
	if err := afero.WriteFile(d.fs, filepath.Join(dir, domain.ChecksumFile), []byte(checksum), markerMode); err != nil {
		return fmt.Errorf("writing checksum marker: %w", err)
	}

	if d.credentials != nil && d.credentials.Exists(skill.ID) {
		data, err := afero.ReadFile(d.fs, d.credentials.Path(skill.ID))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reading credentials: %w", err)
		}
		if err == nil {
			if err := writeSecret(d.fs, filepath.Join(dir, domain.CredentialFile), data); err != nil {
				return fmt.Errorf("copying credentials: %w", err)
			}
		}
	}

	logger.Debug("deployed %s to %s (%s)", skill.ID, provider.ID, checksum)
	return nil
}

// DeployAll deploys to every enabled provider. A failing provider does not
// stop the others; each outcome is reported.
func (d *Deployer) DeployAll(skill *domain.Skill) ([]domain.DeployResult, error) {
	enabled, err := d.providers.Enabled()
	if err != nil {
		return nil, err
	}
	if len(enabled) == 0 {
		return nil, domain.ErrNoProviders
	}

	results := make([]domain.DeployResult, 0, len(enabled))
	for _, p := range enabled {
		result := domain.DeployResult{Provider: p.ID, Success: true}
		if err := d.DeployTo(skill, p); err != nil {
			logger.Warn("deploying %s to %s: %v", skill.ID, p.ID, err)
			result.Success = false
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results, nil
}

// Remove deletes the skill directory from a provider. Reports whether a
// directory existed.
func (d *Deployer) Remove(skill *domain.Skill, provider domain.Provider) (bool, error) {
	dir := provider.SkillDir(skill.ID)
	if dir == "" {
		return false, nil
	}
	if ok, _ := afero.DirExists(d.fs, dir); !ok {
		return false, nil
	}
	if err := d.fs.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("removing %s: %w", dir, err)
	}
	logger.Debug("removed %s from %s", skill.ID, provider.ID)
	return true, nil
}

// destination resolves a declared destination inside dir, rejecting paths
// that escape it.
func destination(dir, dst string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(dst))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || clean == "." {
		return "", fmt.Errorf("%w: destination %q escapes the skill directory", domain.ErrInvalidSkill, dst)
	}
	return filepath.Join(dir, clean), nil
}
