package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarios runs every scenario under testdata/scenarios and compares
// its trace with testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -run TestScenarios -update
func TestScenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)
			require.Equal(t, name, scenario.Name, "scenario name must match its file name")

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSnapshotJSON_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "payment_refund.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario, nil)
	require.NoError(t, err)
	second, err := Run(scenario, nil)
	require.NoError(t, err)

	a, err := SnapshotJSON(scenario.Name, first)
	require.NoError(t, err)
	b, err := SnapshotJSON(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.True(t, strings.HasSuffix(string(a), "}\n"))
}

func TestSnapshotJSON_OmitsEmptyFields(t *testing.T) {
	r := NewResult()
	r.AddRequestTrace("DELETE /users/1", nil)
	r.AddResponseTrace("DELETE /users/1", 204, nil)

	data, err := SnapshotJSON("delete_only", r)
	require.NoError(t, err)

	want := `{
  "scenario_name": "delete_only",
  "trace": [
    {
      "seq": 1,
      "type": "request",
      "request": "DELETE /users/1"
    },
    {
      "seq": 2,
      "type": "response",
      "request": "DELETE /users/1",
      "status": 204
    }
  ]
}
`
	assert.Equal(t, want, string(data))
}
