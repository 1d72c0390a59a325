package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/curvemigrate/internal/ir"
)

// Record is one stored version of a configuration record.
type Record struct {
	Kind        string          `json:"kind"`
	Name        string          `json:"name"`
	Version     int             `json:"version"`
	Payload     json.RawMessage `json:"payload"`
	ContentHash string          `json:"content_hash"`
	RunID       string          `json:"run_id,omitempty"`
}

// Decode unmarshals the payload into v.
func (r Record) Decode(v any) error {
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("decode %s %q v%d: %w", r.Kind, r.Name, r.Version, err)
	}
	return nil
}

// VersionSelector picks which version of each matching record Find returns.
// The zero value selects the latest version.
type VersionSelector struct {
	Version int
}

// Latest selects the newest version of each record.
var Latest = VersionSelector{}

// AtVersion pins an exact version.
func AtVersion(v int) VersionSelector { return VersionSelector{Version: v} }

func (v VersionSelector) String() string {
	if v.Version == 0 {
		return "latest"
	}
	return fmt.Sprintf("v%d", v.Version)
}

// WriteStatus reports what StoreByName did.
type WriteStatus string

const (
	StatusCreated   WriteStatus = "created"
	StatusUpdated   WriteStatus = "updated"
	StatusUnchanged WriteStatus = "unchanged"
)

// WriteResult describes one StoreByName call.
type WriteResult struct {
	Kind        string      `json:"kind"`
	Name        string      `json:"name"`
	Version     int         `json:"version"`
	ContentHash string      `json:"content_hash"`
	Status      WriteStatus `json:"status"`
}

// globPattern turns a name pattern into a SQLite GLOB pattern. Only '*' is a
// wildcard; '?' and '[' match literally.
func globPattern(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '?':
			b.WriteString("[?]")
		case '[':
			b.WriteString("[[]")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Find returns records of kind whose name matches pattern. pattern is an
// exact name or contains '*' wildcards. Results are ordered by name, then
// version.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Find(ctx context.Context, kind, pattern string, sel VersionSelector) ([]Record, error) {
	query := `
		SELECT kind, name, version, payload, content_hash, run_id
		FROM configs c
		WHERE kind = ? AND name GLOB ?
		AND version = (SELECT MAX(version) FROM configs WHERE kind = c.kind AND name = c.name)
		ORDER BY name COLLATE BINARY ASC, version ASC
	`
	args := []any{kind, globPattern(pattern)}
	if sel.Version > 0 {
		query = `
			SELECT kind, name, version, payload, content_hash, run_id
			FROM configs
			WHERE kind = ? AND name GLOB ? AND version = ?
			ORDER BY name COLLATE BINARY ASC, version ASC
		`
		args = append(args, sel.Version)
	}

	records, err := s.queryRecords(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find %s %q (%s): %w", kind, pattern, sel, err)
	}
	return records, nil
}

// History returns every version of one record, oldest first.
func (s *Store) History(ctx context.Context, kind, name string) ([]Record, error) {
	records, err := s.queryRecords(ctx, `
		SELECT kind, name, version, payload, content_hash, run_id
		FROM configs
		WHERE kind = ? AND name = ?
		ORDER BY version ASC
	`, kind, name)
	if err != nil {
		return nil, fmt.Errorf("history %s %q: %w", kind, name, err)
	}
	return records, nil
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query configs: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		var payload string
		if err := rows.Scan(&r.Kind, &r.Name, &r.Version, &payload, &r.ContentHash, &r.RunID); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		r.Payload = json.RawMessage(payload)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate configs: %w", err)
	}
	return records, nil
}

// Names returns the distinct record names of kind in binary order.
func (s *Store) Names(ctx context.Context, kind string) ([]string, error) {
	return s.queryStrings(ctx, `
		SELECT DISTINCT name FROM configs WHERE kind = ? ORDER BY name COLLATE BINARY ASC
	`, kind)
}

// Kinds returns the distinct record kinds present in the repository.
func (s *Store) Kinds(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, `SELECT DISTINCT kind FROM configs ORDER BY kind COLLATE BINARY ASC`)
}

func (s *Store) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return out, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// latest returns the newest version and hash of a record; version 0 means
// the record does not exist.
func latest(ctx context.Context, q querier, kind, name string) (int, string, error) {
	var version int
	var hash string
	err := q.QueryRowContext(ctx, `
		SELECT version, content_hash FROM configs
		WHERE kind = ? AND name = ?
		ORDER BY version DESC LIMIT 1
	`, kind, name).Scan(&version, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("latest %s %q: %w", kind, name, err)
	}
	return version, hash, nil
}

func plan(kind, name string, current int, currentHash, hash string) WriteResult {
	res := WriteResult{Kind: kind, Name: name, ContentHash: hash}
	switch {
	case current == 0:
		res.Version, res.Status = 1, StatusCreated
	case currentHash == hash:
		res.Version, res.Status = current, StatusUnchanged
	default:
		res.Version, res.Status = current+1, StatusUpdated
	}
	return res
}

// Plan reports what StoreByName would do without writing anything.
func (s *Store) Plan(ctx context.Context, kind, name string, value any) (WriteResult, error) {
	_, hash, err := ir.RecordHash(kind, value)
	if err != nil {
		return WriteResult{}, fmt.Errorf("plan %s %q: %w", kind, name, err)
	}
	current, currentHash, err := latest(ctx, s.db, kind, name)
	if err != nil {
		return WriteResult{}, err
	}
	return plan(kind, name, current, currentHash, hash), nil
}

// StoreByName writes value as the newest version of (kind, name). Writing
// content identical to the latest version is a no-op reported as
// StatusUnchanged. runID tags the new version with the run that wrote it.
func (s *Store) StoreByName(ctx context.Context, kind, name string, value any, runID string) (WriteResult, error) {
	if name == "" {
		return WriteResult{}, fmt.Errorf("store %s: empty name", kind)
	}
	payload, hash, err := ir.RecordHash(kind, value)
	if err != nil {
		return WriteResult{}, fmt.Errorf("store %s %q: %w", kind, name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return WriteResult{}, fmt.Errorf("store %s %q: begin: %w", kind, name, err)
	}
	defer tx.Rollback()

	current, currentHash, err := latest(ctx, tx, kind, name)
	if err != nil {
		return WriteResult{}, err
	}
	res := plan(kind, name, current, currentHash, hash)
	if res.Status == StatusUnchanged {
		return res, nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO configs (kind, name, version, payload, content_hash, run_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, kind, name, res.Version, string(payload), hash, runID); err != nil {
		return WriteResult{}, fmt.Errorf("store %s %q: insert: %w", kind, name, err)
	}
	if err := tx.Commit(); err != nil {
		return WriteResult{}, fmt.Errorf("store %s %q: commit: %w", kind, name, err)
	}
	return res, nil
}
