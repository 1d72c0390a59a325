package harness

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/curvemigrate/internal/migrate"
)

// Golden files live in testdata/golden. Regenerate with:
//
//	go test ./internal/harness -run TestRunWithGolden -update
func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"two-curve-usd", "multi-currency", "dry-run"} {
		t.Run(name, func(t *testing.T) {
			result, err := RunWithGolden(t, loadTestScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSnapshotJSON_Canonical(t *testing.T) {
	snap := &Snapshot{
		Scenario: "s",
		RunID:    "r",
		Records: map[string][]SnapshotRecord{
			migrate.KindNodeIDMapper: {{Name: "DEFAULT USD", Version: 2,
				Payload: json.RawMessage(`{"name": "DEFAULT USD", "cash": {"ON": {"kind": "synthetic_future", "future_code": "ED"}}}`)}},
			migrate.KindCurveConstructionConfiguration: {{Name: "A", Version: 1,
				Payload: json.RawMessage(`{"name":"A","groups":[]}`)}},
		},
		Summary: migrate.Summary{Configs: 1, Created: 1},
	}

	data, err := SnapshotJSON(snap)
	require.NoError(t, err)
	assert.Equal(t,
		`{"records":{"CurveConstructionConfiguration":[{"name":"A","payload":{"groups":[],"name":"A"},"version":1}],`+
			`"CurveNodeIdMapper":[{"name":"DEFAULT USD","payload":{"cash":{"ON":{"future_code":"ED","kind":"synthetic_future"}},"name":"DEFAULT USD"},"version":2}]},`+
			`"run_id":"r","scenario":"s","summary":{"configs":1,"created":1,"failures":0,"gaps":0,"missing":0,"skipped":0,"unchanged":0,"updated":0}}`,
		string(data))
}
