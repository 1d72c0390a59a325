package importer

import (
	"context"
	"fmt"

	"github.com/roach88/curvemigrate/internal/legacy"
	"github.com/roach88/curvemigrate/internal/store"
)

// Writer persists one record by name.
type Writer interface {
	StoreByName(ctx context.Context, kind, name string, value any) (store.WriteResult, error)
}

// Store writes every loaded record through w: definitions, identifier
// sources, calculation configs, then FX forward definitions. It stops at the
// first failed write.
func (r *Result) Store(ctx context.Context, w Writer) ([]store.WriteResult, error) {
	var out []store.WriteResult
	write := func(kind, name string, value any) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := w.StoreByName(ctx, kind, name, value)
		if err != nil {
			return &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("store %s %q: %v", kind, name, err)}
		}
		out = append(out, res)
		return nil
	}

	for _, d := range r.Definitions {
		if err := write(legacy.KindYieldCurveDefinition, d.Name, d); err != nil {
			return out, err
		}
	}
	for _, s := range r.Sources {
		if err := write(legacy.KindIdentifierSource, s.Name, s); err != nil {
			return out, err
		}
	}
	for _, c := range r.Calculations {
		if err := write(legacy.KindCalculationConfig, c.Name, c); err != nil {
			return out, err
		}
	}
	for _, f := range r.FXForwards {
		if err := write(legacy.KindFXForwardDefinition, f.Name, f); err != nil {
			return out, err
		}
	}
	return out, nil
}
