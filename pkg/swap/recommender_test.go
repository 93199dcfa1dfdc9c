package swap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/rota/internal/fixture"
	"github.com/paiban/rota/pkg/errors"
)

func TestRecommend(t *testing.T) {
	p, policy := fixture.Regression()
	before := snapshot(t, p)

	recs, err := Recommend(p, policy, "E1", 14, nil)
	require.NoError(t, err)
	assert.Equal(t, before, snapshot(t, p))

	require.Len(t, recs, 3)
	assert.Equal(t, "E2", recs[0].EmployeeID)
	assert.Equal(t, 0, recs[0].CancelledHo)
	assert.Equal(t, 4, recs[0].LateShiftDays)
	assert.Equal(t, "E4", recs[1].EmployeeID)
	assert.Equal(t, "E3", recs[2].EmployeeID)
	assert.Equal(t, 1, recs[2].CancelledHo)
	assert.Equal(t, 3, recs[2].Rank)
}

func TestRecommend_Options(t *testing.T) {
	p, policy := fixture.Regression()

	recs, err := Recommend(p, policy, "E1", 14, &RecommendOptions{MaxRecommendations: 1})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "E2", recs[0].EmployeeID)

	recs, err = Recommend(p, policy, "E1", 14, &RecommendOptions{ExcludeEmployees: []string{"E2"}})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "E4", recs[0].EmployeeID)
}

func TestRecommend_Errors(t *testing.T) {
	p, policy := fixture.Regression()

	_, err := Recommend(p, policy, "X", 14, nil)
	assert.Equal(t, errors.CodeInvalidEmployee, errors.GetCode(err))

	_, err = Recommend(p, policy, "E2", 14, nil)
	assert.Equal(t, errors.CodeNotOnLateShift, errors.GetCode(err))

	_, err = Recommend(p, policy, "E1", 30, nil)
	assert.Equal(t, errors.CodeInvalidWeek, errors.GetCode(err))
}
