package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in paise (1/100 rupee) so sums stay exact. Negative
// values are allowed for derived totals and balances. On the wire it is a
// plain JSON number in rupees (150, 99.5), which keeps stored blobs and
// backup files compatible with records written by earlier versions.
type Money struct {
	Cents int64
}

// Rupees builds Money from whole rupees.
func Rupees(r int64) Money { return Money{Cents: r * 100} }

// MoneyFromDecimal rounds d half away from zero to two places.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Round(2).Shift(2).IntPart()}
}

// Decimal returns the rupee value.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the rupee value as a float64 for spreadsheet cells and
// other display sinks. Use Cents for arithmetic.
func (m Money) Float() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) Mul(n int64) Money { return Money{Cents: m.Cents * n} }
func (m Money) IsZero() bool { return m.Cents == 0 }
func (m Money) String() string { return m.Decimal().StringFixed(2) }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts JSON numbers and numeric strings. null and the empty
// string decode to zero.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = Money{}
		return nil
	}
	s := string(b)
	if strings.HasPrefix(s, `"`) {
		s = strings.Trim(s, `"`)
		if strings.TrimSpace(s) == "" {
			*m = Money{}
			return nil
		}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, string(b))
	}
	*m = MoneyFromDecimal(d)
	return nil
}

// ParseMoney converts a user-entered decimal string to Money.
//
// Commas are digit grouping (1,200 or 1,23,456) and are dropped; the dot is
// the only decimal separator. Rounds half-up to paise. Zero is accepted,
// negative values are not.
//
// Examples:
//
//	ParseMoney("12.34")    -> 1234 paise
//	ParseMoney("1,200")    -> 120000 paise
//	ParseMoney("1,23,456") -> 12345600 paise
//	ParseMoney("0")        -> 0 paise
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	if !validGrouping(s) {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	// Guard the int64 paise range.
	if d.GreaterThan(decimal.New(1, 16)) {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d), nil
}

// validGrouping reports whether the commas in s only separate digits of the
// whole part. 1,200 and 12,34,567 pass; 1,,2 and 1.2,3 do not.
func validGrouping(s string) bool {
	whole, _, _ := strings.Cut(s, ".")
	if strings.Contains(s[len(whole):], ",") {
		return false
	}
	if whole == "" || !strings.Contains(whole, ",") {
		return true
	}
	for _, group := range strings.Split(whole, ",") {
		if group == "" {
			return false
		}
	}
	return true
}

// FormatINR renders m with the rupee sign and Indian digit grouping
// (₹1,23,456.5). Trailing zero paise are dropped, negatives get a leading
// minus: -₹50.
func FormatINR(m Money) string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := fmt.Sprintf("%d", cents/100)
	frac := cents % 100

	out := "₹" + groupIndian(whole)
	if frac != 0 {
		out += strings.TrimRight(fmt.Sprintf(".%02d", frac), "0")
	}
	return sign + out
}

// groupIndian inserts separators after the last three digits and then every
// two digits: 12345678 -> 1,23,45,678.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}
