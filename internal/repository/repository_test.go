package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/rota/internal/database"
	"github.com/paiban/rota/internal/fixture"
	"github.com/paiban/rota/pkg/errors"
	"github.com/paiban/rota/pkg/model"
	"github.com/paiban/rota/pkg/swap"
)

func openDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func planFor(from, to time.Time) *model.Plan {
	policy := fixture.RegressionPolicy()
	return fixture.Build(policy, from, to, 1,
		&model.Employee{ID: "E1", Name: "E1", Schema: model.SchemaBoth})
}

func TestPlanRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewPlanRepository(openDB(t))

	p, _ := fixture.Regression()
	p.ID = uuid.Nil
	require.NoError(t, repo.Create(ctx, p))
	require.NotEqual(t, uuid.Nil, p.ID)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.WeekIndices(), got.WeekIndices())
	assert.Equal(t, "E1", got.Week(14).Days[0].LateShift)
	assert.Equal(t, []string{"E5"}, got.Employees["E1"].Backups)

	got.Week(14).Days[0].LateShift = "E2"
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "E2", again.Week(14).Days[0].LateShift)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.GetByID(ctx, p.ID)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestPlanRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewPlanRepository(openDB(t))

	_, err := repo.GetByID(ctx, uuid.New())
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	p := planFor(model.Date(2024, time.January, 1), model.Date(2024, time.January, 31))
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(repo.Update(ctx, p)))
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(repo.Delete(ctx, p.ID)))
}

func TestPlanRepository_ListAndPrior(t *testing.T) {
	ctx := context.Background()
	repo := NewPlanRepository(openDB(t))

	jan := planFor(model.Date(2024, time.January, 1), model.Date(2024, time.January, 31))
	feb := planFor(model.Date(2024, time.February, 5), model.Date(2024, time.February, 29))
	old := planFor(model.Date(2023, time.November, 6), model.Date(2023, time.November, 30))
	for _, p := range []*model.Plan{jan, feb, old} {
		require.NoError(t, repo.Create(ctx, p))
	}

	all, total, err := repo.List(ctx, DefaultListFilter())
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, all, 3)
	assert.Equal(t, feb.ID, all[0].ID)
	assert.Equal(t, old.ID, all[2].ID)

	in2024, total, err := repo.List(ctx, DefaultListFilter().WithYear(2024).WithLimit(1))
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, in2024, 1)

	ranged, _, err := repo.List(ctx, ListFilter{StartDate: "2024-01-15", EndDate: "2024-01-20", OrderDir: "asc"})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, jan.ID, ranged[0].ID)

	prior, err := repo.PriorPlan(ctx, model.Date(2024, time.March, 1))
	require.NoError(t, err)
	require.NotNil(t, prior)
	assert.Equal(t, feb.ID, prior.ID)

	prior, err = repo.PriorPlan(ctx, model.Date(2023, time.January, 1))
	require.NoError(t, err)
	assert.Nil(t, prior)
}

func TestOperationRepository(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	plans := NewPlanRepository(db)
	ops := NewOperationRepository(db)

	p, _ := fixture.Regression()
	require.NoError(t, plans.Create(ctx, p))

	week2 := 16
	ok := &Operation{
		PlanID:    p.ID,
		Request:   swap.Request{Mode: swap.ModeSwap, Redistribute: true, Employee1: "E1", Week1: 14, Employee2: "E4", Week2: &week2},
		Result:    &swap.Result{Mode: swap.ModeSwap, CancelledHoEmployee1: 2, UndistributedHoEmployee1: 1},
		Status:    OperationSucceeded,
		CreatedAt: time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC),
	}
	failed := &Operation{
		PlanID:    p.ID,
		Request:   swap.Request{Mode: swap.ModeReplace, Employee1: "E2", Week1: 14, Employee2: "E3"},
		Status:    OperationFailed,
		ErrorCode: errors.CodeNotOnLateShift,
		CreatedAt: time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, ops.Record(ctx, ok))
	require.NoError(t, ops.Record(ctx, failed))

	list, err := ops.ListByPlan(ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, ok.ID, list[0].ID)
	assert.Equal(t, swap.ModeSwap, list[0].Request.Mode)
	require.NotNil(t, list[0].Request.Week2)
	assert.Equal(t, 16, *list[0].Request.Week2)
	require.NotNil(t, list[0].Result)
	assert.Equal(t, 1, list[0].Result.UndistributedHoEmployee1)

	assert.Equal(t, OperationFailed, list[1].Status)
	assert.Equal(t, errors.CodeNotOnLateShift, list[1].ErrorCode)
	assert.Nil(t, list[1].Result)

	limited, err := ops.ListByPlan(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, plans.Delete(ctx, p.ID))
	list, err = ops.ListByPlan(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
