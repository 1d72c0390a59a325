package importer

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/curvemigrate/internal/ident"
	"github.com/roach88/curvemigrate/internal/legacy"
	"github.com/roach88/curvemigrate/internal/tenor"
)

// CompileError represents a record compilation error with source position.
type CompileError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CompileYieldCurveDefinition parses a yield curve definition. name is the
// repository name and must end in "_" plus the currency.
//
//	yield_curve_definition: "FUNDING_USD": {
//		currency:           "USD"
//		interpolator:       "Linear"
//		left_extrapolator:  "FlatExtrapolator"
//		right_extrapolator: "FlatExtrapolator"
//		strips: [{type: "CASH", tenor: "ON", convention: "DEFAULT"}]
//	}
func CompileYieldCurveDefinition(name string, v cue.Value) (legacy.YieldCurveDefinition, error) {
	if err := v.Err(); err != nil {
		return legacy.YieldCurveDefinition{}, formatCUEError(err)
	}

	d := legacy.YieldCurveDefinition{Name: name}
	var err error
	if d.Currency, err = stringField(v, "currency", true); err != nil {
		return d, err
	}
	if !strings.HasSuffix(name, "_"+d.Currency) {
		return d, &CompileError{
			Code:    ErrCodeNameMismatch,
			Field:   "currency",
			Message: fmt.Sprintf("record name %q does not end in _%s", name, d.Currency),
			Pos:     v.Pos(),
		}
	}
	if d.Interpolator, err = stringField(v, "interpolator", true); err != nil {
		return d, err
	}
	if d.LeftExtrapolator, err = stringField(v, "left_extrapolator", false); err != nil {
		return d, err
	}
	if d.RightExtrapolator, err = stringField(v, "right_extrapolator", false); err != nil {
		return d, err
	}

	stripsVal := v.LookupPath(cue.ParsePath("strips"))
	if !stripsVal.Exists() {
		return d, missing(v, "strips")
	}
	iter, err := stripsVal.List()
	if err != nil {
		return d, &CompileError{Code: ErrCodeInvalidType, Field: "strips", Message: "strips must be a list", Pos: stripsVal.Pos()}
	}
	for i := 0; iter.Next(); i++ {
		strip, err := compileStrip(iter.Value(), fmt.Sprintf("strips[%d]", i))
		if err != nil {
			return d, err
		}
		d.Strips = append(d.Strips, strip)
	}
	if len(d.Strips) == 0 {
		return d, &CompileError{Code: ErrCodeMissingField, Field: "strips", Message: "at least one strip is required", Pos: stripsVal.Pos()}
	}
	return d, nil
}

func compileStrip(v cue.Value, field string) (legacy.Strip, error) {
	var s legacy.Strip

	typeName, err := stringField(v, "type", true)
	if err != nil {
		return s, prefixed(err, field)
	}
	if s.Type, err = legacy.ParseStripType(typeName); err != nil {
		return s, &CompileError{Code: ErrCodeInvalidStripType, Field: field + ".type", Message: err.Error(), Pos: v.Pos()}
	}
	if s.Tenor, err = tenorField(v, "tenor", true); err != nil {
		return s, prefixed(err, field)
	}
	if s.Convention, err = stringField(v, "convention", true); err != nil {
		return s, prefixed(err, field)
	}
	if s.PayTenor, err = tenorField(v, "pay_tenor", false); err != nil {
		return s, prefixed(err, field)
	}
	if s.ReceiveTenor, err = tenorField(v, "receive_tenor", false); err != nil {
		return s, prefixed(err, field)
	}
	if s.PayIndex, err = indexField(v, "pay_index"); err != nil {
		return s, prefixed(err, field)
	}
	if s.ReceiveIndex, err = indexField(v, "receive_index"); err != nil {
		return s, prefixed(err, field)
	}

	if countVal := v.LookupPath(cue.ParsePath("future_count")); countVal.Exists() {
		n, err := countVal.Int64()
		if err != nil {
			return s, &CompileError{Code: ErrCodeInvalidType, Field: field + ".future_count", Message: "future_count must be an integer", Pos: countVal.Pos()}
		}
		s.FutureCount = int(n)
	}

	if err := s.Validate(); err != nil {
		return s, &CompileError{Code: ErrCodeInvalidStrip, Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	return s, nil
}

// CompileIdentifierSource parses an identifier source. Every field must be
// one of the nineteen provider slots; each slot maps tenors to providers.
//
//	identifier_source: "DEFAULT_USD": {
//		cash: "ON": {kind: "synthetic", currency: "USD", instrument_type: "CASH", scheme: "OG_SYNTHETIC_TICKER"}
//		future: "3M": {kind: "synthetic_future", future_code: "ED"}
//		libor: "3M": {kind: "static", identifier: "BLOOMBERG_TICKER~US0003M Index"}
//	}
func CompileIdentifierSource(name string, v cue.Value) (legacy.IdentifierSource, error) {
	if err := v.Err(); err != nil {
		return legacy.IdentifierSource{}, formatCUEError(err)
	}

	src := legacy.IdentifierSource{Name: name}
	known := make(map[string]legacy.SourceField, len(legacy.SourceFields))
	for _, f := range legacy.SourceFields {
		known[f.Key] = f
	}

	iter, err := v.Fields()
	if err != nil {
		return src, &CompileError{Code: ErrCodeInvalidType, Field: "source", Message: "identifier source must be a struct", Pos: v.Pos()}
	}
	for iter.Next() {
		key := selectorName(iter.Selector())
		f, ok := known[key]
		if !ok {
			return src, &CompileError{
				Code:    ErrCodeInvalidProvider,
				Field:   key,
				Message: fmt.Sprintf("unknown identifier source field %q", key),
				Pos:     iter.Value().Pos(),
			}
		}
		m, err := compileProviderMap(iter.Value(), key)
		if err != nil {
			return src, err
		}
		*f.Get(&src) = m
	}
	return src, nil
}

func compileProviderMap(v cue.Value, field string) (ident.ProviderMap, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, &CompileError{Code: ErrCodeInvalidType, Field: field, Message: "expected a struct of tenor to provider", Pos: v.Pos()}
	}
	m := ident.ProviderMap{}
	keys := map[tenor.Tenor]string{}
	for iter.Next() {
		key := selectorName(iter.Selector())
		t, err := tenor.Parse(key)
		if err != nil {
			return nil, &CompileError{Code: ErrCodeInvalidTenor, Field: field + "." + key, Message: err.Error(), Pos: iter.Value().Pos()}
		}
		if prev, dup := keys[t]; dup {
			return nil, &CompileError{
				Code:    ErrCodeDuplicateTenor,
				Field:   field + "." + key,
				Message: fmt.Sprintf("duplicate tenor %s (also keyed %q)", t, prev),
				Pos:     iter.Value().Pos(),
			}
		}
		keys[t] = key
		p, err := compileProvider(iter.Value(), field+"."+key)
		if err != nil {
			return nil, err
		}
		m[t] = p
	}
	return m, nil
}

func compileProvider(v cue.Value, field string) (ident.Provider, error) {
	kind, err := stringField(v, "kind", true)
	if err != nil {
		return ident.Provider{}, prefixed(err, field)
	}

	var p ident.Provider
	switch ident.Kind(kind) {
	case ident.KindSynthetic:
		var ccy, typ, scheme string
		if ccy, err = stringField(v, "currency", false); err != nil {
			return p, prefixed(err, field)
		}
		if typ, err = stringField(v, "instrument_type", false); err != nil {
			return p, prefixed(err, field)
		}
		if scheme, err = stringField(v, "scheme", false); err != nil {
			return p, prefixed(err, field)
		}
		p = ident.SyntheticIdentifier(ccy, typ, scheme)
	case ident.KindSyntheticFuture:
		code, err := stringField(v, "future_code", false)
		if err != nil {
			return p, prefixed(err, field)
		}
		p = ident.SyntheticFuture(code)
	case ident.KindStatic:
		raw, err := stringField(v, "identifier", true)
		if err != nil {
			return p, prefixed(err, field)
		}
		id, err := ident.ParseExternalID(raw)
		if err != nil {
			return p, &CompileError{Code: ErrCodeInvalidProvider, Field: field + ".identifier", Message: err.Error(), Pos: v.Pos()}
		}
		dataField, err := stringField(v, "data_field", false)
		if err != nil {
			return p, prefixed(err, field)
		}
		dataFieldType, err := stringField(v, "data_field_type", false)
		if err != nil {
			return p, prefixed(err, field)
		}
		p = ident.Static(id, dataField, dataFieldType)
	default:
		p = ident.Provider{Kind: ident.Kind(kind)}
	}

	if err := p.Validate(); err != nil {
		return p, &CompileError{Code: ErrCodeInvalidProvider, Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	return p, nil
}

// CompileCalculationConfig parses a multi-curve calculation config.
//
//	calculation_config: "DefaultTwoCurveUSDConfig": {
//		target:      "USD"
//		curve_names: ["FUNDING", "FORWARD_3M"]
//		method:      "PresentValue"
//	}
func CompileCalculationConfig(name string, v cue.Value) (legacy.CalculationConfig, error) {
	if err := v.Err(); err != nil {
		return legacy.CalculationConfig{}, formatCUEError(err)
	}

	c := legacy.CalculationConfig{Name: name}
	var err error
	if c.Target, err = stringField(v, "target", true); err != nil {
		return c, err
	}
	if c.CurveNames, err = stringList(v, "curve_names", true); err != nil {
		return c, err
	}
	if len(c.CurveNames) == 0 {
		return c, &CompileError{Code: ErrCodeMissingField, Field: "curve_names", Message: "at least one curve name is required", Pos: v.Pos()}
	}
	method, err := stringField(v, "method", true)
	if err != nil {
		return c, err
	}
	if c.Method, err = legacy.ParseCalculationMethod(method); err != nil {
		return c, &CompileError{Code: ErrCodeInvalidMethod, Field: "method", Message: err.Error(), Pos: v.Pos()}
	}
	if c.Exogenous, err = stringList(v, "exogenous", false); err != nil {
		return c, err
	}
	return c, nil
}

// CompileFXForwardDefinition parses an FX forward curve definition.
func CompileFXForwardDefinition(name string, v cue.Value) (legacy.FXForwardCurveDefinition, error) {
	if err := v.Err(); err != nil {
		return legacy.FXForwardCurveDefinition{}, formatCUEError(err)
	}

	f := legacy.FXForwardCurveDefinition{Name: name}
	raw, err := stringList(v, "tenors", false)
	if err != nil {
		return f, err
	}
	for _, s := range raw {
		t, err := tenor.Parse(s)
		if err != nil {
			return f, &CompileError{Code: ErrCodeInvalidTenor, Field: "tenors", Message: err.Error(), Pos: v.Pos()}
		}
		f.Tenors = append(f.Tenors, t)
	}
	return f, nil
}

func missing(v cue.Value, field string) *CompileError {
	return &CompileError{Code: ErrCodeMissingField, Field: field, Message: field + " is required", Pos: v.Pos()}
}

// prefixed qualifies the field of a CompileError with its parent path.
func prefixed(err error, parent string) error {
	if ce, ok := err.(*CompileError); ok {
		return &CompileError{Code: ce.Code, Field: parent + "." + ce.Field, Message: ce.Message, Pos: ce.Pos}
	}
	return err
}

func stringField(v cue.Value, field string, required bool) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		if required {
			return "", missing(v, field)
		}
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{Code: ErrCodeInvalidType, Field: field, Message: field + " must be a string", Pos: fv.Pos()}
	}
	return s, nil
}

func stringList(v cue.Value, field string, required bool) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		if required {
			return nil, missing(v, field)
		}
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, &CompileError{Code: ErrCodeInvalidType, Field: field, Message: field + " must be a list of strings", Pos: fv.Pos()}
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Code: ErrCodeInvalidType, Field: field, Message: field + " must be a list of strings", Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}

func tenorField(v cue.Value, field string, required bool) (tenor.Tenor, error) {
	s, err := stringField(v, field, required)
	if err != nil || s == "" {
		return tenor.Zero, err
	}
	t, err := tenor.Parse(s)
	if err != nil {
		return tenor.Zero, &CompileError{Code: ErrCodeInvalidTenor, Field: field, Message: err.Error(), Pos: v.LookupPath(cue.ParsePath(field)).Pos()}
	}
	return t, nil
}

func indexField(v cue.Value, field string) (legacy.IndexType, error) {
	s, err := stringField(v, field, false)
	if err != nil || s == "" {
		return "", err
	}
	idx, err := legacy.ParseIndexType(s)
	if err != nil {
		return "", &CompileError{Code: ErrCodeInvalidStripType, Field: field, Message: err.Error(), Pos: v.LookupPath(cue.ParsePath(field)).Pos()}
	}
	return idx, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Code:    ErrCodeBuildFailed,
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
