package money

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Amount is a monetary value held as integer cents. All arithmetic on
// amounts stays in cents so currency totals never drift the way binary
// floats do.
type Amount struct {
	cents int64
}

const centsPerUnit = 100

// amounts above this would overflow int64 when scaled to cents
const maxUnits = (1<<63 - 1) / centsPerUnit

var Zero = Amount{}

func FromCents(cents int64) Amount {
	return Amount{cents: cents}
}

// Parse reads a positive decimal string into an Amount. Both '.' and
// ',' work as the decimal separator. Anything beyond two fractional
// digits is rounded half-up on the third digit. The minimum accepted
// value is one cent.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Zero, fmt.Errorf("invalid amount %q", s)
	}
	s = strings.ReplaceAll(s, ",", ".")

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	if strings.Contains(fracPart, ".") || !digitsOnly(intPart) || !digitsOnly(fracPart) {
		return Zero, fmt.Errorf("invalid amount %q", s)
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || units > maxUnits {
		return Zero, fmt.Errorf("invalid amount %q", s)
	}

	var cents int64
	if len(fracPart) > 0 {
		cents = int64(fracPart[0]-'0') * 10
	}
	if len(fracPart) > 1 {
		cents += int64(fracPart[1] - '0')
	}
	if len(fracPart) > 2 && fracPart[2] >= '5' {
		cents++
	}

	res := units*centsPerUnit + cents
	if res <= 0 {
		return Zero, fmt.Errorf("amount %q must be at least 0.01", s)
	}
	return Amount{cents: res}, nil
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func (a Amount) Cents() int64 {
	return a.cents
}

func (a Amount) IsPositive() bool {
	return a.cents > 0
}

func (a Amount) Add(b Amount) Amount {
	return Amount{cents: a.cents + b.cents}
}

// Float returns the value in currency units for display math only,
// never for recomputing totals.
func (a Amount) Float() float64 {
	return float64(a.cents) / centsPerUnit
}

func (a Amount) String() string {
	sign := ""
	c := a.cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/centsPerUnit, c%centsPerUnit)
}
