package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/application/port"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/entity"
	"github.com/VedantBhayani/labour-skill-employment-sub003/internal/domain/workflow"
)

func TestTemplateRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTemplateRepository(db, zap.NewNop())

	tmpl := seedTemplate(t, db)
	require.NotZero(t, tmpl.ID)

	got, err := repo.GetByID(context.Background(), tmpl.ID)
	require.NoError(t, err)

	assert.Equal(t, tmpl.Name, got.Name)
	assert.Equal(t, entity.CategoryProcurement, got.Category)
	assert.Equal(t, "Operations", got.Department)
	assert.True(t, got.IsActive)
	require.Len(t, got.Steps, 2)
	assert.Equal(t, "Finance review", got.Steps[1].Name)
	assert.Equal(t, "u-finance", got.Steps[1].AssignedUser)
}

func TestTemplateRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTemplateRepository(db, zap.NewNop())

	_, err := repo.GetByID(context.Background(), 404)

	var nerr *workflow.NotFoundError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "template", nerr.Kind)
}

func TestTemplateRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTemplateRepository(db, zap.NewNop())
	ctx := context.Background()

	seedTemplate(t, db)
	other := &entity.WorkflowTemplate{
		Name:      "Employee onboarding",
		Category:  entity.CategoryOnboarding,
		IsActive:  false,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Steps: []entity.StepDefinition{
			{StepNumber: 1, Name: "IT setup", AssignedRole: entity.RoleAdmin, RequiredApprovals: 1},
		},
	}
	require.NoError(t, repo.Create(ctx, other))

	t.Run("all", func(t *testing.T) {
		all, err := repo.List(ctx, port.TemplateFilter{}, 10, 0)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("by category", func(t *testing.T) {
		got, err := repo.List(ctx, port.TemplateFilter{Category: entity.CategoryOnboarding}, 10, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Employee onboarding", got[0].Name)
	})

	t.Run("by active flag", func(t *testing.T) {
		active := true
		got, err := repo.List(ctx, port.TemplateFilter{IsActive: &active}, 10, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Purchase approval", got[0].Name)
	})
}

func TestTemplateRepository_UpdateMetadata(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTemplateRepository(db, zap.NewNop())
	ctx := context.Background()

	tmpl := seedTemplate(t, db)
	tmpl.Name = "Purchase approval v2"
	tmpl.IsActive = false
	// A caller mutating steps must not see them persisted
	tmpl.Steps = tmpl.Steps[:1]

	require.NoError(t, repo.UpdateMetadata(ctx, tmpl))

	got, err := repo.GetByID(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Purchase approval v2", got.Name)
	assert.False(t, got.IsActive)
	assert.Len(t, got.Steps, 2, "step definitions are immutable")
}

func TestTemplateRepository_UpdateMetadata_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTemplateRepository(db, zap.NewNop())

	err := repo.UpdateMetadata(context.Background(), &entity.WorkflowTemplate{ID: 404, Name: "ghost"})

	var nerr *workflow.NotFoundError
	require.ErrorAs(t, err, &nerr)
}

func TestTemplateRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTemplateRepository(db, zap.NewNop())
	ctx := context.Background()

	tmpl := seedTemplate(t, db)
	require.NoError(t, repo.Delete(ctx, tmpl.ID))

	_, err := repo.GetByID(ctx, tmpl.ID)
	var nerr *workflow.NotFoundError
	require.ErrorAs(t, err, &nerr)

	err = repo.Delete(ctx, tmpl.ID)
	require.ErrorAs(t, err, &nerr)
}
