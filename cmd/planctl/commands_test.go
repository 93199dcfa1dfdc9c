package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/rota/internal/fixture"
	"github.com/paiban/rota/pkg/errors"
	"github.com/paiban/rota/pkg/swap"
)

const regressionPolicy = `
late_shift:
  cycle_length: 4
  excluded_weekdays: [friday]
home_office:
  max_slots_per_day: 2
  weekly_credits: 2
  max_days_per_month: 8
`

func writeFixtures(t *testing.T) (planFile, policyFile string) {
	t.Helper()
	dir := t.TempDir()

	p, _ := fixture.Regression()
	planFile = filepath.Join(dir, "plan.json")
	require.NoError(t, writePlan(planFile, p))

	policyFile = filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(policyFile, []byte(regressionPolicy), 0o644))
	return planFile, policyFile
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSwapCommand(t *testing.T) {
	planFile, policyFile := writeFixtures(t)
	outFile := filepath.Join(filepath.Dir(planFile), "out.json")

	stdout, err := run(t, "swap", "--plan", planFile, "--policy", policyFile,
		"--employee1", "E1", "--week1", "14", "--employee2", "E4", "--week2", "16",
		"--redistribute", "--out", outFile)
	require.NoError(t, err, stdout)

	var output operationOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &output))
	assert.Equal(t, 2, output.Result.CancelledHoEmployee1)
	assert.Equal(t, 1, output.Result.UndistributedHoEmployee1)
	assert.True(t, output.Audit.Valid())
	assert.Equal(t, outFile, output.Saved)

	saved, err := readPlan(outFile)
	require.NoError(t, err)
	assert.Equal(t, "E4", saved.Week(14).Days[0].LateShift)
	assert.Equal(t, "E1", saved.Week(17).Days[1].LateShift)

	original, err := readPlan(planFile)
	require.NoError(t, err)
	assert.Equal(t, "E1", original.Week(14).Days[0].LateShift)
}

func TestReplaceCommand_DryRun(t *testing.T) {
	planFile, policyFile := writeFixtures(t)
	before, err := os.ReadFile(planFile)
	require.NoError(t, err)

	stdout, err := run(t, "replace", "--plan", planFile, "--policy", policyFile,
		"--employee1", "E1", "--week1", "14", "--employee2", "E2", "--dry-run")
	require.NoError(t, err, stdout)

	var output operationOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &output))
	assert.Equal(t, swap.ModeReplace, output.Result.Mode)
	assert.Empty(t, output.Saved)

	after, err := os.ReadFile(planFile)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestOperationCommand_Errors(t *testing.T) {
	planFile, policyFile := writeFixtures(t)

	_, err := run(t, "replace", "--plan", planFile, "--policy", policyFile,
		"--employee1", "E2", "--week1", "14", "--employee2", "E3")
	assert.Equal(t, errors.CodeNotOnLateShift, errors.GetCode(err))

	_, err = run(t, "swap", "--plan", planFile, "--employee1", "E1", "--week1", "14", "--employee2", "E4")
	assert.Error(t, err)

	_, err = run(t, "audit")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestBoundaryCommand(t *testing.T) {
	planFile, _ := writeFixtures(t)

	stdout, err := run(t, "boundary", "--start", "2024-04-25", "--end", "2024-05-31", "--prior", planFile)
	require.NoError(t, err, stdout)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "2024-04-29", got["from"])
	assert.Equal(t, "2024-05-31", got["to"])

	_, err = run(t, "boundary", "--start", "25.04.2024", "--end", "2024-05-31")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestAuditStatsRecommend(t *testing.T) {
	planFile, policyFile := writeFixtures(t)

	stdout, err := run(t, "audit", "--plan", planFile, "--policy", policyFile)
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "violations")

	stdout, err = run(t, "stats", "--plan", planFile, "--policy", policyFile)
	require.NoError(t, err, stdout)
	var report struct {
		Coverage struct {
			LateShiftDays int `json:"late_shift_days"`
		} `json:"coverage"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, 14, report.Coverage.LateShiftDays)

	stdout, err = run(t, "recommend", "--plan", planFile, "--policy", policyFile,
		"--employee", "E1", "--week", "14", "--exclude", "E2")
	require.NoError(t, err, stdout)
	var recs []swap.Recommendation
	require.NoError(t, json.Unmarshal([]byte(stdout), &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, "E4", recs[0].EmployeeID)
}
