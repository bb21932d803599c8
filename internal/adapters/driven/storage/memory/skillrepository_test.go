package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/agent-skills/internal/core/domain"
)

func TestSkillRepository_ListSortedByID(t *testing.T) {
	repo := NewSkillRepository("/skills",
		&domain.Skill{ID: "zeta"},
		&domain.Skill{ID: "alpha"},
	)

	skills, err := repo.List(context.Background())

	require.NoError(t, err)
	require.Len(t, skills, 2)
	assert.Equal(t, "alpha", skills[0].ID)
	assert.Equal(t, "zeta", skills[1].ID)
	assert.Equal(t, "/skills", repo.Root())
}

func TestSkillRepository_GetReturnsCopy(t *testing.T) {
	repo := NewSkillRepository("/skills", &domain.Skill{ID: "a", Name: "A"})

	got, err := repo.Get(context.Background(), "a")
	require.NoError(t, err)
	got.Name = "changed"

	again, err := repo.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "A", again.Name)
}

func TestSkillRepository_PutReplaces(t *testing.T) {
	repo := NewSkillRepository("/skills", &domain.Skill{ID: "a", Name: "A"})

	repo.Put(&domain.Skill{ID: "a", Name: "A2"})

	got, err := repo.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "A2", got.Name)
}

func TestSkillRepository_GetUnknown(t *testing.T) {
	repo := NewSkillRepository("/skills")

	_, err := repo.Get(context.Background(), "ghost")

	assert.ErrorIs(t, err, domain.ErrSkillNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
