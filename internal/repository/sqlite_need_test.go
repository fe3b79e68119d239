package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/alexanderramin/budgetree/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeedRepo_RequestsAndLines(t *testing.T) {
	repo := NewSQLiteNeedRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	req := testutil.NewTestNeedRequest("Rebar for slab")
	require.NoError(t, repo.CreateRequest(ctx, req))

	fetched, err := repo.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rebar for slab", fetched.Title)
	assert.Equal(t, "2025-03-01", fetched.Date.Format("2006-01-02"))

	first := testutil.NewTestNeedLine(req.ID, "rebar-12", "10.5")
	second := testutil.NewTestNeedLine(req.ID, "cement", "3")
	require.NoError(t, repo.CreateLine(ctx, first))
	require.NoError(t, repo.CreateLine(ctx, second))

	lines, err := repo.ListLines(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "rebar-12", lines[0].ResourceID)
	assert.True(t, lines[0].Quantity.Equal(testutil.Dec("10.5")))

	line, err := repo.GetLine(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "cement", line.ResourceID)

	_, err = repo.GetLine(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetRequest(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := repo.ListRequests(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestNeedRepo_LineRequiresRequest(t *testing.T) {
	repo := NewSQLiteNeedRepo(testutil.NewTestDB(t))
	err := repo.CreateLine(context.Background(), testutil.NewTestNeedLine("no-such-request", "x", "1"))
	assert.Error(t, err, "foreign key should reject an unknown request")
}

func TestLinkRepo_ListBySourceAndRequest(t *testing.T) {
	db := testutil.NewTestDB(t)
	needs := NewSQLiteNeedRepo(db)
	links := NewSQLiteLinkRepo(db)
	ctx := context.Background()

	req := testutil.NewTestNeedRequest("Concrete")
	require.NoError(t, needs.CreateRequest(ctx, req))
	a := testutil.NewTestNeedLine(req.ID, "c30", "10")
	b := testutil.NewTestNeedLine(req.ID, "c40", "5")
	require.NoError(t, needs.CreateLine(ctx, a))
	require.NoError(t, needs.CreateLine(ctx, b))

	base := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	for i, l := range []domain.AllocationLink{
		{SourceLineID: a.ID, Target: domain.LinkTarget{BOQID: "BOQ-1", ItemID: "1.2"}, LinkedQuantity: testutil.Dec("4")},
		{SourceLineID: a.ID, Target: domain.LinkTarget{WBSID: "W-7"}, LinkedQuantity: testutil.Dec("6")},
		{SourceLineID: b.ID, Target: domain.LinkTarget{BOQID: "BOQ-2"}, LinkedQuantity: testutil.Dec("1.5")},
	} {
		l.ID = uuid.New().String()
		l.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, links.Create(ctx, &l))
	}

	bySource, err := links.ListBySource(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, bySource, 2)
	assert.Equal(t, "BOQ-1/1.2", bySource[0].Target.String())
	assert.True(t, bySource[1].LinkedQuantity.Equal(testutil.Dec("6")))

	byRequest, err := links.ListByRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Len(t, byRequest, 3)
}
