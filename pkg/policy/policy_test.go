package policy

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/rota/pkg/errors"
)

const sampleDescriptor = `
late_shift:
  cycle_length: 4
  excluded_weekdays: [Friday]
home_office:
  max_slots_per_day: 2
  weekly_credits: 2
  max_days_per_month: 8
  max_successive_days: 2
  min_distance_between_blocks: 1
`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(sampleDescriptor))
	require.NoError(t, err)

	assert.Equal(t, 4, p.LateShiftCycleLength)
	assert.Equal(t, 2, p.MaxHoSlotsPerDay)
	assert.Equal(t, 2, p.WeeklyHoCreditsPerEmployee)
	assert.Equal(t, 8, p.MaxHoDaysPerMonth)
	assert.Equal(t, 2, p.MaxSuccessiveHoDays)
	assert.Equal(t, 1, p.MinDistanceBetweenHoBlocks)
	assert.Equal(t, []time.Weekday{time.Friday}, p.ExcludedLateShiftWeekdays)
	assert.False(t, p.IsLateShiftDay(time.Friday))
	assert.True(t, p.IsLateShiftDay(time.Monday))
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		code errors.Code
	}{
		{"空内容", "   ", errors.CodeInvalidInput},
		{"YAML语法错误", "late_shift: [", errors.CodeInvalidInput},
		{"未知星期", "late_shift:\n  cycle_length: 3\n  excluded_weekdays: [funday]\n", errors.CodeValidationFail},
		{"周期为0", "late_shift:\n  cycle_length: 0\n", errors.CodeValidationFail},
		{"负额度", "late_shift:\n  cycle_length: 3\nhome_office:\n  weekly_credits: -1\n", errors.CodeValidationFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDescriptor), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, p.LateShiftCycleLength)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}
