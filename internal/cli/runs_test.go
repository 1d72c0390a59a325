package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/curvemigrate/internal/migrate"
	"github.com/roach88/curvemigrate/internal/store"
)

func TestRuns_Empty(t *testing.T) {
	out, _, err := execute(t, nil, "runs", "--db", tempDB(t))
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestRuns_ImportAndMigrate(t *testing.T) {
	db := tempDB(t)
	importLegacy(t, db, legacyDir, "import-1")
	_, _, err := execute(t, []string{"migrate-1"}, "migrate", "--db", db)
	require.NoError(t, err)

	out, _, err := execute(t, nil, "runs", "--db", db, "--format", "json")
	require.NoError(t, err)

	var result struct {
		Runs []store.Run `json:"runs"`
	}
	decodeResponse(t, out, &result)
	require.Len(t, result.Runs, 2)
	assert.Equal(t, store.RunImport, result.Runs[0].Kind)
	assert.Equal(t, "import-1", result.Runs[0].ID)
	assert.Equal(t, store.RunMigrate, result.Runs[1].Kind)
	assert.Equal(t, "migrate-1", result.Runs[1].ID)
	assert.NotEmpty(t, result.Runs[1].Hash)

	var summary migrate.Summary
	require.NoError(t, json.Unmarshal(result.Runs[1].Summary, &summary))
	assert.Equal(t, migrate.Summary{Configs: 2, Created: 7, Gaps: 1}, summary)
}

// Identical inputs migrated into separate repositories produce the same run
// hash.
func TestRuns_HashIsReproducible(t *testing.T) {
	hash := func() string {
		db := tempDB(t)
		importLegacy(t, db, legacyDir, "import-1")
		_, _, err := execute(t, []string{"migrate-1"}, "migrate", "--db", db)
		require.NoError(t, err)

		out, _, err := execute(t, nil, "runs", "--db", db, "--format", "json")
		require.NoError(t, err)
		var result struct {
			Runs []store.Run `json:"runs"`
		}
		decodeResponse(t, out, &result)
		require.Len(t, result.Runs, 2)
		return result.Runs[1].Hash
	}

	assert.Equal(t, hash(), hash())
}
