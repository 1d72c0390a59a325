package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/curvemigrate/internal/ir"
)

// SnapshotJSON serialises a snapshot as canonical JSON. Golden files hold
// exactly these bytes.
func SnapshotJSON(s *Snapshot) ([]byte, error) {
	return ir.Canonicalize(s)
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result.Snapshot); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing snapshot against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, snapshot *Snapshot) error {
	t.Helper()

	data, err := SnapshotJSON(snapshot)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
