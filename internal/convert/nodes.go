package convert

import (
	"fmt"

	"github.com/roach88/curvemigrate/internal/curve"
	"github.com/roach88/curvemigrate/internal/ident"
	"github.com/roach88/curvemigrate/internal/legacy"
	"github.com/roach88/curvemigrate/internal/tenor"
)

// stripInput is what one conversion rule sees.
type stripInput struct {
	strip    legacy.Strip
	currency string
	source   *legacy.IdentifierSource
	mapper   string // remapped convention name, before qualifier and currency
}

func (in stripInput) mapperName(qualifier string) string {
	return Default(qualifier).Rename(in.mapper, in.currency)
}

// NodeRule converts one strip into one node.
type NodeRule func(in stripInput) (curve.Node, error)

// NodeConverters is the strip-to-node table. It is an immutable value: build
// it once with NewNodeConverters and pass it to the drivers.
type NodeConverters struct {
	rules map[legacy.StripType]NodeRule
	remap map[string]string
}

// NewNodeConverters builds the full table. remap renames convention names
// before they are used in mapper names (e.g. SECONDARY to Default).
func NewNodeConverters(remap map[string]string) NodeConverters {
	rules := map[legacy.StripType]NodeRule{
		legacy.Cash:              cashRule,
		legacy.Libor:             liborRule,
		legacy.Euribor:           iborCashRule("EUR", "6m", (*legacy.IdentifierSource).EuriborID),
		legacy.Cibor:             iborCashRule("DKK", "3m", (*legacy.IdentifierSource).CiborID),
		legacy.Stibor:            iborCashRule("SEK", "6m", (*legacy.IdentifierSource).StiborID),
		legacy.Cdor:              iborCashRule("CAD", "3m", (*legacy.IdentifierSource).CdorID),
		legacy.Fra3m:             fraRule(3, "3m"),
		legacy.Fra6m:             fraRule(6, "6m"),
		legacy.Future:            futureRule,
		legacy.BankersAcceptance: bankersAcceptanceRule,
		legacy.OisSwap:           oisRule,
		legacy.Swap3m:            fixedIborSwapRule("3M", "3m"),
		legacy.Swap6m:            fixedIborSwapRule("6M", "6m"),
		legacy.Swap12m:           fixedIborSwapRule("12M", "12m"),
		legacy.Swap28d:           fixedIborSwapRule("28D", "28d"),
		legacy.BasisSwap:         basisSwapRule,
		legacy.TenorSwap:         basisSwapRule,
	}
	copied := make(map[string]string, len(remap))
	for k, v := range remap {
		copied[k] = v
	}
	return NodeConverters{rules: rules, remap: copied}
}

// DefaultNodeConverters builds the table without convention renaming.
func DefaultNodeConverters() NodeConverters {
	return NewNodeConverters(nil)
}

// Supports reports whether strips of type t can be converted.
func (c NodeConverters) Supports(t legacy.StripType) bool {
	_, ok := c.rules[t]
	return ok
}

// Convert turns strip into a node. Fra, Swap, Spread and the three
// zero-deposit types always fail with an unsupported error; ibor types
// outside their home currency fail with a currency mismatch. source may be
// nil when the strip type needs no identifiers.
func (c NodeConverters) Convert(strip legacy.Strip, currency string, source *legacy.IdentifierSource) (curve.Node, error) {
	rule, ok := c.rules[strip.Type]
	if !ok {
		return nil, unsupported(strip, currency)
	}
	mapper := strip.Convention
	if renamed, ok := c.remap[mapper]; ok {
		mapper = renamed
	}
	return rule(stripInput{strip: strip, currency: currency, source: source, mapper: mapper})
}

func cashRule(in stripInput) (curve.Node, error) {
	convention := in.currency + " Deposit"
	if in.strip.Tenor.IsOvernightLike() {
		convention = in.currency + " Overnight"
	}
	return curve.CashNode{
		Start:      tenor.Zero,
		Maturity:   in.strip.Tenor,
		Convention: ident.Convention(convention),
		Mapper:     in.mapperName(""),
	}, nil
}

type lookupFunc func(*legacy.IdentifierSource, tenor.Tenor) (ident.ExternalID, bool)

// lookup resolves the identifier a node needs from the strip's source.
func lookup(in stripInput, fn lookupFunc, at tenor.Tenor, family string) (ident.ExternalID, error) {
	if in.source == nil {
		return ident.ExternalID{}, missingIdentifier(in.strip, in.currency,
			fmt.Sprintf("no identifier source for convention %q", in.strip.Convention))
	}
	id, ok := fn(in.source, at)
	if !ok {
		return ident.ExternalID{}, missingIdentifier(in.strip, in.currency,
			fmt.Sprintf("no %s identifier at %s in %s", family, at, in.source.Name))
	}
	return id, nil
}

func liborRule(in stripInput) (curve.Node, error) {
	id, err := lookup(in, (*legacy.IdentifierSource).LiborID, in.strip.Tenor, "libor")
	if err != nil {
		return nil, err
	}
	qualifier := "6m"
	if in.currency == "USD" || in.currency == "CAD" {
		qualifier = "3m"
	}
	return curve.CashNode{Start: tenor.Zero, Maturity: in.strip.Tenor, Convention: id, Mapper: in.mapperName(qualifier)}, nil
}

func iborCashRule(home, qualifier string, fn lookupFunc) NodeRule {
	return func(in stripInput) (curve.Node, error) {
		if in.currency != home {
			return nil, currencyMismatch(in.strip, in.currency, home)
		}
		id, err := lookup(in, fn, in.strip.Tenor, string(in.strip.Type))
		if err != nil {
			return nil, err
		}
		return curve.CashNode{Start: tenor.Zero, Maturity: in.strip.Tenor, Convention: id, Mapper: in.mapperName(qualifier)}, nil
	}
}

func fraRule(months int, qualifier string) NodeRule {
	return func(in stripInput) (curve.Node, error) {
		id, err := lookup(in, (*legacy.IdentifierSource).LiborID, tenor.OfMonths(months), "libor")
		if err != nil {
			return nil, err
		}
		end := in.strip.Tenor
		start, ok := end.MinusMonths(months)
		if !ok {
			return nil, fixingBeforeSpot(in.strip, in.currency, months)
		}
		return curve.FRANode{
			FixingStart: start,
			FixingEnd:   end,
			Convention:  id,
			Mapper:      in.mapperName(qualifier),
		}, nil
	}
}

func rateFuture(in stripInput, id ident.ExternalID) curve.Node {
	return curve.RateFutureNode{
		FutureCount:     in.strip.FutureCount,
		StartTenor:      in.strip.Tenor,
		FutureTenor:     tenor.ThreeMonths,
		UnderlyingTenor: tenor.ThreeMonths,
		Convention:      id,
		Mapper:          in.mapperName(""),
	}
}

func futureRule(in stripInput) (curve.Node, error) {
	fn, family := lookupFunc((*legacy.IdentifierSource).LiborID), "libor"
	if in.currency == "EUR" {
		fn, family = (*legacy.IdentifierSource).EuriborID, "euribor"
	}
	id, err := lookup(in, fn, tenor.ThreeMonths, family)
	if err != nil {
		return nil, err
	}
	return rateFuture(in, id), nil
}

func bankersAcceptanceRule(in stripInput) (curve.Node, error) {
	if in.currency != "CAD" {
		return nil, currencyMismatch(in.strip, in.currency, "CAD")
	}
	id, err := lookup(in, (*legacy.IdentifierSource).CdorID, tenor.ThreeMonths, "CDOR")
	if err != nil {
		return nil, err
	}
	return rateFuture(in, id), nil
}

func swap(in stripInput, pay, receive, qualifier string) curve.Node {
	return curve.SwapNode{
		Start:      tenor.Zero,
		Maturity:   in.strip.Tenor,
		PayLeg:     ident.Convention(pay),
		ReceiveLeg: ident.Convention(receive),
		Mapper:     in.mapperName(qualifier),
	}
}

func oisRule(in stripInput) (curve.Node, error) {
	return swap(in, in.currency+" OIS Fixed Leg", in.currency+" OIS Overnight Leg", ""), nil
}

func fixedIborSwapRule(bucket, qualifier string) NodeRule {
	return func(in stripInput) (curve.Node, error) {
		return swap(in, in.currency+" IRS Fixed Leg", in.currency+" "+bucket+" IRS Ibor Leg", qualifier), nil
	}
}

// basisLeg names a floating leg convention: "USD 3M IRS Ibor Leg". Leg
// periods are spelled in months ("12M"), never years.
func basisLeg(currency string, t tenor.Tenor, index legacy.IndexType) string {
	return fmt.Sprintf("%s %s IRS %s Leg", currency, t.PeriodString(), index.LegName())
}

func basisSwapRule(in stripInput) (curve.Node, error) {
	s := in.strip
	if s.PayIndex == "" || s.ReceiveIndex == "" {
		return nil, missingIdentifier(s, in.currency, "pay and receive index types are required")
	}
	pay := basisLeg(in.currency, s.PayTenor, s.PayIndex)
	receive := basisLeg(in.currency, s.ReceiveTenor, s.ReceiveIndex)
	return swap(in, pay, receive, ""), nil
}
