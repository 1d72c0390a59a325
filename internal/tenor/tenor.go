// Package tenor models the time periods that anchor strips and curve nodes.
//
// A Tenor is either the overnight tenor (ON) or a period of whole months plus
// days. Years are normalised to months on parse, so "1Y" and "12M" are the
// same value and period arithmetic never produces mixed-sign periods such as
// "1Y-6M".
package tenor

import (
	"fmt"
	"strconv"
	"strings"
)

// Tenor is a comparable period value. The zero value is the zero period (0D).
type Tenor struct {
	months    int
	days      int
	overnight bool
}

// Common tenors.
var (
	Zero        = Tenor{}
	Overnight   = Tenor{overnight: true}
	OneDay      = Tenor{days: 1}
	OneMonth    = Tenor{months: 1}
	ThreeMonths = Tenor{months: 3}
	SixMonths   = Tenor{months: 6}
	OneYear     = Tenor{months: 12}
)

// ParseError reports a string that is not a valid tenor.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid tenor %q: %s", e.Input, e.Reason)
}

// OfMonths returns a period of n months.
func OfMonths(n int) Tenor { return Tenor{months: n} }

// OfYears returns a period of n years.
func OfYears(n int) Tenor { return Tenor{months: 12 * n} }

// OfDays returns a period of n days.
func OfDays(n int) Tenor { return Tenor{days: n} }

// OfWeeks returns a period of n weeks, held as days.
func OfWeeks(n int) Tenor { return Tenor{days: 7 * n} }

// Parse reads tenors such as "ON", "1D", "2W", "3M", "1Y" or "1Y6M".
// A leading "P" (ISO-8601 period) is accepted and ignored.
func Parse(s string) (Tenor, error) {
	in := strings.ToUpper(strings.TrimSpace(s))
	if in == "" {
		return Tenor{}, &ParseError{Input: s, Reason: "empty"}
	}
	if in == "ON" || in == "OVERNIGHT" {
		return Overnight, nil
	}
	in = strings.TrimPrefix(in, "P")
	if in == "" {
		return Tenor{}, &ParseError{Input: s, Reason: "no period components"}
	}

	var t Tenor
	num := ""
	for _, r := range in {
		if r >= '0' && r <= '9' {
			num += string(r)
			continue
		}
		if num == "" {
			return Tenor{}, &ParseError{Input: s, Reason: fmt.Sprintf("unit %q without a number", r)}
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return Tenor{}, &ParseError{Input: s, Reason: err.Error()}
		}
		switch r {
		case 'Y':
			t.months += 12 * n
		case 'M':
			t.months += n
		case 'W':
			t.days += 7 * n
		case 'D':
			t.days += n
		default:
			return Tenor{}, &ParseError{Input: s, Reason: fmt.Sprintf("unknown unit %q", r)}
		}
		num = ""
	}
	if num != "" {
		return Tenor{}, &ParseError{Input: s, Reason: "missing unit"}
	}
	return t, nil
}

// MustParse is like Parse but panics on error.
// Use only in tests or for literals known to be valid.
func MustParse(s string) Tenor {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Months returns the month component (years included).
func (t Tenor) Months() int { return t.months }

// Days returns the day component.
func (t Tenor) Days() int { return t.days }

// IsOvernight reports whether t is the overnight tenor.
func (t Tenor) IsOvernight() bool { return t.overnight }

// IsOvernightLike reports whether t is ON, 0D or 1D. Cash strips at these
// tenors use the overnight deposit convention.
func (t Tenor) IsOvernightLike() bool {
	return t == Overnight || t == Zero || t == OneDay
}

// MinusMonths subtracts n months from the period. It reports false when the
// result would be negative or t is ON, neither of which is a period.
func (t Tenor) MinusMonths(n int) (Tenor, bool) {
	if t.overnight || t.months < n {
		return Tenor{}, false
	}
	return Tenor{months: t.months - n, days: t.days}, true
}

// PeriodString renders the period in months and days without folding months
// into years: 12 months is "12M", not "1Y". Convention names are spelled
// this way.
func (t Tenor) PeriodString() string {
	switch {
	case t.overnight:
		return "ON"
	case t.months == 0 && t.days == 0:
		return "0D"
	case t.days == 0:
		return fmt.Sprintf("%dM", t.months)
	case t.months == 0:
		return fmt.Sprintf("%dD", t.days)
	}
	return fmt.Sprintf("%dM%dD", t.months, t.days)
}

// String renders the period without the "P" prefix, e.g. "ON", "1Y", "18M".
// Weeks are held as days, so "2W" renders as "14D".
func (t Tenor) String() string {
	if t.overnight {
		return "ON"
	}
	if t.months == 0 && t.days == 0 {
		return "0D"
	}
	var b strings.Builder
	if t.months != 0 {
		if t.months%12 == 0 && t.days == 0 {
			fmt.Fprintf(&b, "%dY", t.months/12)
			return b.String()
		}
		fmt.Fprintf(&b, "%dM", t.months)
	}
	if t.days != 0 {
		fmt.Fprintf(&b, "%dD", t.days)
	}
	return b.String()
}

// approxDays orders tenors by length; a month counts as 30 days.
func (t Tenor) approxDays() int {
	if t.overnight {
		return 0
	}
	return t.months*30 + t.days
}

// Compare orders tenors by approximate length. ON sorts before 0D and 1D;
// ties are broken on the month component so the order is total.
func Compare(a, b Tenor) int {
	if a == b {
		return 0
	}
	if a.overnight != b.overnight {
		if a.overnight {
			return -1
		}
		return 1
	}
	da, db := a.approxDays(), b.approxDays()
	switch {
	case da < db:
		return -1
	case da > db:
		return 1
	case a.months < b.months:
		return -1
	default:
		return 1
	}
}

// MarshalText implements encoding.TextMarshaler so tenors can key JSON maps.
func (t Tenor) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tenor) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
