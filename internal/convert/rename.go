package convert

// Renamer computes the target record name from a source name and the
// currency being processed.
type Renamer interface {
	Rename(name, currency string) string
}

// DefaultRenamer produces "name [qualifier] currency".
type DefaultRenamer struct {
	Qualifier string
}

// Default returns a renamer that appends the optional qualifier and the
// currency argument.
func Default(qualifier ...string) DefaultRenamer {
	if len(qualifier) > 0 {
		return DefaultRenamer{Qualifier: qualifier[0]}
	}
	return DefaultRenamer{}
}

func (r DefaultRenamer) Rename(name, currency string) string {
	return join(name, r.Qualifier, currency)
}

// FixedCurrencyRenamer produces "name [qualifier] boundCurrency". The currency
// passed to Rename is ignored: instrument families that only exist in one
// currency always land in the same target record.
type FixedCurrencyRenamer struct {
	Currency  string
	Qualifier string
}

// FixedCurrency returns a renamer bound to currency.
func FixedCurrency(currency string, qualifier ...string) FixedCurrencyRenamer {
	r := FixedCurrencyRenamer{Currency: currency}
	if len(qualifier) > 0 {
		r.Qualifier = qualifier[0]
	}
	return r
}

func (r FixedCurrencyRenamer) Rename(name, _ string) string {
	return join(name, r.Qualifier, r.Currency)
}

func join(name, qualifier, currency string) string {
	if qualifier == "" {
		return name + " " + currency
	}
	return name + " " + qualifier + " " + currency
}
