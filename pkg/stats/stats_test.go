package stats

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/rota/internal/fixture"
	"github.com/paiban/rota/pkg/model"
)

func decimalEqual(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestCoverageAnalyzer_Regression(t *testing.T) {
	p, policy := fixture.Regression()

	m := NewCoverageAnalyzer(policy).Analyze(p)
	assert.Equal(t, 14, m.LateShiftDays)
	assert.Equal(t, 14, m.AssignedLateShift)
	decimalEqual(t, "100", m.LateShiftCoverage)
	assert.Empty(t, m.Uncovered)

	assert.Equal(t, 36, m.HomeOfficeSlots)
	assert.Equal(t, 9, m.UsedHomeOfficeSlots)
	decimalEqual(t, "25", m.HomeOfficeUsage)

	require.Len(t, m.WeeklyCoverage, 4)
	assert.Equal(t, 14, m.WeeklyCoverage[0].Week)
	assert.Equal(t, "2024-04-03", m.WeeklyCoverage[0].From)
	assert.Equal(t, 2, m.WeeklyCoverage[0].LateShiftDays)
	decimalEqual(t, "66.67", m.WeeklyCoverage[0].HomeOfficeUsage)
}

func TestCoverageAnalyzer_Uncovered(t *testing.T) {
	policy := &model.Policy{LateShiftCycleLength: 5, MaxHoSlotsPerDay: 0}
	p := fixture.Build(policy, model.Date(2024, time.January, 1), model.Date(2024, time.January, 5), 1)
	p.Week(1).Days[0].LateShift = "E1"

	m := NewCoverageAnalyzer(policy).Analyze(p)
	assert.Equal(t, 5, m.LateShiftDays)
	decimalEqual(t, "20", m.LateShiftCoverage)
	assert.Len(t, m.Uncovered, 4)
	assert.Equal(t, "2024-01-02", m.Uncovered[0].Date)
	decimalEqual(t, "0", m.HomeOfficeUsage)
}

func TestFairnessAnalyzer_Regression(t *testing.T) {
	p, policy := fixture.Regression()

	m := NewFairnessAnalyzer(policy).Analyze(p)
	assert.InDelta(t, 3.5, m.AvgLateShiftDays, 1e-9)
	assert.InDelta(t, 0.1071, m.LateShiftGini, 1e-3)
	assert.True(t, m.OverallFairnessScore > 0 && m.OverallFairnessScore <= 100)

	require.Len(t, m.EmployeeStats, 5)
	ids := make([]string, 0, 5)
	for _, s := range m.EmployeeStats {
		ids = append(ids, s.EmployeeID)
	}
	assert.Equal(t, []string{"E1", "E2", "E4", "E3", "E5"}, ids)

	e1 := m.EmployeeStats[0]
	assert.Equal(t, 4, e1.LateShiftDays)
	assert.Equal(t, 3, e1.HomeOfficeDays)
	assert.Equal(t, 8, e1.HomeOfficeCredits)
	decimalEqual(t, "0.375", e1.HomeOfficeUtilisation)

	e3 := m.EmployeeStats[3]
	decimalEqual(t, "-42.86", e3.Deviation)
}

func TestFairnessAnalyzer_EmptyPlan(t *testing.T) {
	m := NewFairnessAnalyzer(&model.Policy{}).Analyze(nil)
	assert.Equal(t, 100.0, m.OverallFairnessScore)
	assert.Empty(t, m.EmployeeStats)
}

func TestGini(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"空", nil, 0},
		{"全为零", []float64{0, 0, 0}, 0},
		{"完全平均", []float64{3, 3, 3}, 0},
		{"集中于一人", []float64{0, 0, 0, 8}, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, gini(tt.values), 1e-9)
		})
	}
}

func TestAnalyze(t *testing.T) {
	p, policy := fixture.Regression()

	r := Analyze(p, policy)
	require.NotNil(t, r.Coverage)
	require.NotNil(t, r.Fairness)
	assert.Equal(t, 14, r.Coverage.AssignedLateShift)
}
