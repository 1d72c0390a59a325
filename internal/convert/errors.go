package convert

import (
	"errors"
	"fmt"

	"github.com/roach88/curvemigrate/internal/legacy"
	"github.com/roach88/curvemigrate/internal/tenor"
)

// ErrorCode categorizes conversion failures.
type ErrorCode string

const (
	// ErrCodeUnsupported: the strip type carries too little information to
	// rebuild a node.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED"

	// ErrCodeCurrencyMismatch: the strip type only exists in another currency.
	ErrCodeCurrencyMismatch ErrorCode = "CURRENCY_MISMATCH"

	// ErrCodeMissingIdentifier: the identifier source, or the provider at the
	// tenor the node needs, is absent.
	ErrCodeMissingIdentifier ErrorCode = "MISSING_IDENTIFIER"
)

// ConversionError reports why one strip could not become a node.
type ConversionError struct {
	Code      ErrorCode
	StripType legacy.StripType
	Currency  string
	Tenor     tenor.Tenor
	Message   string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: %s strip at %s in %s: %s", e.Code, e.StripType, e.Tenor, e.Currency, e.Message)
}

func unsupported(s legacy.Strip, currency string) error {
	return &ConversionError{
		Code:      ErrCodeUnsupported,
		StripType: s.Type,
		Currency:  currency,
		Tenor:     s.Tenor,
		Message:   "cannot convert strips of this type",
	}
}

func currencyMismatch(s legacy.Strip, currency, required string) error {
	return &ConversionError{
		Code:      ErrCodeCurrencyMismatch,
		StripType: s.Type,
		Currency:  currency,
		Tenor:     s.Tenor,
		Message:   fmt.Sprintf("only valid for %s", required),
	}
}

// fixingBeforeSpot rejects FRAs whose fixing start would precede spot.
func fixingBeforeSpot(s legacy.Strip, currency string, months int) error {
	return &ConversionError{
		Code:      ErrCodeUnsupported,
		StripType: s.Type,
		Currency:  currency,
		Tenor:     s.Tenor,
		Message:   fmt.Sprintf("fixing start before spot: %s minus %dM", s.Tenor, months),
	}
}

func missingIdentifier(s legacy.Strip, currency, msg string) error {
	return &ConversionError{
		Code:      ErrCodeMissingIdentifier,
		StripType: s.Type,
		Currency:  currency,
		Tenor:     s.Tenor,
		Message:   msg,
	}
}

func hasCode(err error, code ErrorCode) bool {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsUnsupported reports whether err is an unsupported strip type.
// Uses errors.As to handle wrapped errors.
func IsUnsupported(err error) bool { return hasCode(err, ErrCodeUnsupported) }

// IsCurrencyMismatch reports whether err is a currency/instrument mismatch.
func IsCurrencyMismatch(err error) bool { return hasCode(err, ErrCodeCurrencyMismatch) }

// IsMissingIdentifier reports whether err is a missing identifier.
func IsMissingIdentifier(err error) bool { return hasCode(err, ErrCodeMissingIdentifier) }
