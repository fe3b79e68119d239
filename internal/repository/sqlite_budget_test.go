package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/alexanderramin/budgetree/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetRepo_CreateAndGetByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteBudgetRepo(db)
	ctx := context.Background()

	b := testutil.NewTestBudget("Tower",
		testutil.WithProject("Tower A"),
		testutil.WithMonths("2025-01", "2025-06"),
		testutil.WithDimensions("Entity", "Asset"))
	require.NoError(t, repo.Create(ctx, b))

	fetched, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tower", fetched.Name)
	assert.Equal(t, domain.BudgetProject, fetched.Type)
	assert.Equal(t, "Tower A", fetched.Project)
	assert.Equal(t, domain.BucketKey("2025-06"), fetched.EndMonth)
	assert.Equal(t, []string{"Entity", "Asset"}, fetched.Dimensions)
	assert.True(t, b.CreatedAt.Equal(fetched.CreatedAt))
}

func TestBudgetRepo_GetByID_NotFound(t *testing.T) {
	repo := NewSQLiteBudgetRepo(testutil.NewTestDB(t))

	_, err := repo.GetByID(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBudgetRepo_GetByName_LatestVersion(t *testing.T) {
	repo := NewSQLiteBudgetRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	v1 := testutil.NewTestBudget("Main")
	v2 := testutil.NewTestBudget("Main", testutil.WithVersion("v2"))
	v2.UpdatedAt = v1.UpdatedAt.Add(time.Hour)
	require.NoError(t, repo.Create(ctx, v1))
	require.NoError(t, repo.Create(ctx, v2))

	latest, err := repo.GetByName(ctx, "Main", "")
	require.NoError(t, err)
	assert.Equal(t, v2.ID, latest.ID)

	pinned, err := repo.GetByName(ctx, "Main", "v1")
	require.NoError(t, err)
	assert.Equal(t, v1.ID, pinned.ID)

	_, err = repo.GetByName(ctx, "Main", "v9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBudgetRepo_NameVersionUnique(t *testing.T) {
	repo := NewSQLiteBudgetRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestBudget("Main")))
	assert.Error(t, repo.Create(ctx, testutil.NewTestBudget("Main")))
}

func TestBudgetRepo_ListUpdateDelete(t *testing.T) {
	repo := NewSQLiteBudgetRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	b := testutil.NewTestBudget("Zeta")
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.Create(ctx, testutil.NewTestBudget("Alpha")))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha", list[0].Name)

	b.Currency = "USD"
	b.Dimensions = nil
	require.NoError(t, repo.Update(ctx, b))
	fetched, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "USD", fetched.Currency)
	assert.Empty(t, fetched.Dimensions)

	require.NoError(t, repo.Delete(ctx, b.ID))
	assert.ErrorIs(t, repo.Delete(ctx, b.ID), ErrNotFound)
}
