package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesFileAndSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repo.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	assert.FileExists(t, path)
	assert.Equal(t, currentSchemaVersion, userVersion(t, s.db))
}

func TestOpen_ReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repo.db")

	for i := range 3 {
		s, err := Open(path)
		require.NoError(t, err, "open #%d", i)
		_, err = s.db.Exec(`INSERT INTO configs (kind, name, version, payload, content_hash) VALUES ('k', 'n', ?, '{}', 'h')`, i+1)
		require.NoError(t, err)

		var count int
		require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM configs`).Scan(&count))
		assert.Equal(t, i+1, count)
		require.NoError(t, s.Close())
	}
}

func TestOpen_MissingDirectory(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "repo.db"))
	assert.Error(t, err)
}

func TestClose_Unopened(t *testing.T) {
	assert.NoError(t, (&Store{}).Close())
}

func TestOpen_ConnectionPragmas(t *testing.T) {
	s := createTestStore(t)

	for name, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"foreign_keys": "1",
	} {
		assert.NoError(t, s.verifyPragma(name, want))
	}
}

func TestSchema_Columns(t *testing.T) {
	s := createTestStore(t)

	assert.Subset(t, columnNames(t, s.db, "configs"),
		[]string{"id", "kind", "name", "version", "payload", "content_hash", "run_id"})
	assert.Subset(t, columnNames(t, s.db, "runs"),
		[]string{"seq", "run_id", "kind", "summary", "run_hash"})
}

func TestSchema_VersionIsUniquePerName(t *testing.T) {
	s := createTestStore(t)

	insert := `INSERT INTO configs (kind, name, version, payload, content_hash) VALUES ('Mapper', 'DEFAULT USD', 1, '{}', 'h')`
	_, err := s.db.Exec(insert)
	require.NoError(t, err)
	_, err = s.db.Exec(insert)
	assert.Error(t, err)
}

func TestOpen_UpgradesUnversionedRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repo.db")
	seedRaw(t, path, schemaSQL, "PRAGMA user_version = 0")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, currentSchemaVersion, userVersion(t, s.db))

	var index string
	err = s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_configs_content_hash'`).Scan(&index)
	assert.NoError(t, err, "content hash index is created by the upgrade")
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repo.db")
	seedRaw(t, path, "PRAGMA user_version = 99")

	_, err := Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

// seedRaw runs stmts against path without going through Open.
func seedRaw(t *testing.T, path string, stmts ...string) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}

func userVersion(t *testing.T, db *sql.DB) int {
	t.Helper()
	var v int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&v))
	return v
}

func columnNames(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}
