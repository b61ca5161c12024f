package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"enrollments-backend/internal/enrollment"
)

// ErrUnparseableCurrency is returned for a money value that is neither
// empty, "n/a" nor a dollar amount.
var ErrUnparseableCurrency = errors.New("unparseable currency")

// ZeroDollars replaces missing money values in the archive.
const ZeroDollars = "$0.00"

// missingMoney reports whether the portal left a money field blank.
func missingMoney(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "n/a")
}

var currencyReplacer = strings.NewReplacer("$", "", ",", "")

// ParseFloat also accepts Inf, NaN and exponents, none of which are dollars.
var decimalRegex = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// ParseCurrency converts a dollar string like "$1,234.00" to a number.
// Empty and "n/a" values are 0.
func ParseCurrency(s string) (float64, error) {
	if missingMoney(s) {
		return 0, nil
	}
	amount := strings.TrimSpace(currencyReplacer.Replace(s))
	if !decimalRegex.MatchString(amount) {
		return 0, fmt.Errorf("%w: %q", ErrUnparseableCurrency, s)
	}
	value, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnparseableCurrency, s)
	}
	return value, nil
}

// FixArchiveRow applies the fixes the archive itself carries: missing
// money values become "$0.00" and the stray "zz" the portal sometimes
// inserts into locations is removed.
func FixArchiveRow(s *enrollment.Section) {
	for _, money := range []*string{
		&s.TuitionResident,
		&s.TuitionNonResident,
		&s.CourseFees,
		&s.BookCost,
	} {
		if missingMoney(*money) {
			*money = ZeroDollars
		}
	}
	s.Location = strings.ReplaceAll(s.Location, "zz", "")
}
