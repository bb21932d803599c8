// Package file loads skill declarations from a skills directory. Each skill
// is a subdirectory holding a skill.json (or skill.yaml) next to its files.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
	"github.com/custodia-labs/agent-skills/internal/core/ports/driven"
	"github.com/custodia-labs/agent-skills/internal/logger"
)

// Ensure Repository implements the interface.
var _ driven.SkillRepository = (*Repository)(nil)

// DeclarationFiles are tried in order inside each skill directory.
var DeclarationFiles = []string{"skill.json", "skill.yaml", "skill.yml"}

// Repository reads declarations from disk on every call.
type Repository struct {
	fs   afero.Fs
	root string
}

// NewRepository creates a repository over root.
func NewRepository(fs afero.Fs, root string) *Repository {
	return &Repository{fs: fs, root: root}
}

// Root returns the skills directory.
func (r *Repository) Root() string {
	return r.root
}

// List returns every valid skill ordered by id. Invalid declarations are
// logged and skipped.
func (r *Repository) List(ctx context.Context) ([]domain.Skill, error) {
	entries, err := afero.ReadDir(r.fs, r.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading skills directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	skills := make([]domain.Skill, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		skill, err := r.load(entry.Name())
		if err != nil {
			if !errors.Is(err, domain.ErrSkillNotFound) {
				logger.Warn("skipping skill %s: %v", entry.Name(), err)
			}
			continue
		}
		skills = append(skills, *skill)
	}
	return skills, nil
}

// Get returns one skill.
func (r *Repository) Get(_ context.Context, id string) (*domain.Skill, error) {
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." {
		return nil, fmt.Errorf("%w: %q", domain.ErrSkillNotFound, id)
	}
	return r.load(id)
}

func (r *Repository) load(id string) (*domain.Skill, error) {
	dir := filepath.Join(r.root, id)
	for _, name := range DeclarationFiles {
		data, err := afero.ReadFile(r.fs, filepath.Join(dir, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		return parseDeclaration(id, dir, name, data)
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrSkillNotFound, id)
}
