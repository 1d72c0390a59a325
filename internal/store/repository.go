package store

import (
	"context"
)

// Repository binds a Store to one run. It satisfies the lookup and
// persistence interfaces of the migrator and remembers every write.
type Repository struct {
	store  *Store
	runID  string
	dryRun bool

	written []WriteResult
}

// NewRepository returns a repository writing under runID. With dryRun set,
// StoreByName only plans writes.
func NewRepository(s *Store, runID string, dryRun bool) *Repository {
	return &Repository{store: s, runID: runID, dryRun: dryRun}
}

// Find returns the matching records.
func (r *Repository) Find(ctx context.Context, kind, pattern string, sel VersionSelector) ([]Record, error) {
	return r.store.Find(ctx, kind, pattern, sel)
}

// StoreByName writes (or, in dry-run mode, plans) value under name.
func (r *Repository) StoreByName(ctx context.Context, kind, name string, value any) (WriteResult, error) {
	var (
		res WriteResult
		err error
	)
	if r.dryRun {
		res, err = r.store.Plan(ctx, kind, name, value)
	} else {
		res, err = r.store.StoreByName(ctx, kind, name, value, r.runID)
	}
	if err != nil {
		return WriteResult{}, err
	}
	r.written = append(r.written, res)
	return res, nil
}

// Written returns the results of every StoreByName call so far.
func (r *Repository) Written() []WriteResult {
	out := make([]WriteResult, len(r.written))
	copy(out, r.written)
	return out
}

// Hashes returns the content hashes of every write, in order.
func (r *Repository) Hashes() []string {
	out := make([]string, len(r.written))
	for i, w := range r.written {
		out[i] = w.ContentHash
	}
	return out
}

// RecordRun persists the run summary unless the repository is a dry run.
func (r *Repository) RecordRun(ctx context.Context, kind string, summary any) (Run, error) {
	if r.dryRun {
		return Run{ID: r.runID, Kind: kind}, nil
	}
	return r.store.RecordRun(ctx, r.runID, kind, summary, r.Hashes())
}
