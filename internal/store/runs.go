package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/curvemigrate/internal/ir"
)

// Run kinds.
const (
	RunImport  = "import"
	RunMigrate = "migrate"
)

// Run is the persisted summary of one import or migration.
type Run struct {
	Seq     int64           `json:"seq"`
	ID      string          `json:"run_id"`
	Kind    string          `json:"kind"`
	Summary json.RawMessage `json:"summary"`
	Hash    string          `json:"run_hash"`
}

// RecordRun stores the summary of run id. written lists the content hashes
// of the records the run wrote, in write order; it feeds the run hash.
func (s *Store) RecordRun(ctx context.Context, id, kind string, summary any, written []string) (Run, error) {
	payload, err := ir.Canonicalize(summary)
	if err != nil {
		return Run{}, fmt.Errorf("record run %s: %w", id, err)
	}
	hash, err := ir.RunHash(summary, written)
	if err != nil {
		return Run{}, fmt.Errorf("record run %s: %w", id, err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, kind, summary, run_hash) VALUES (?, ?, ?, ?)
	`, id, kind, string(payload), hash)
	if err != nil {
		return Run{}, fmt.Errorf("record run %s: %w", id, err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return Run{}, fmt.Errorf("record run %s: %w", id, err)
	}
	return Run{Seq: seq, ID: id, Kind: kind, Summary: payload, Hash: hash}, nil
}

// Runs returns every recorded run in insertion order.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, run_id, kind, summary, run_hash FROM runs ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		var summary string
		if err := rows.Scan(&r.Seq, &r.ID, &r.Kind, &summary, &r.Hash); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Summary = json.RawMessage(summary)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
