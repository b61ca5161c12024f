package enrollment

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Term is a 5 digit fiscal year term code, YYYYT. T is 1 (summer),
// 3 (fall) or 5 (spring). Spring belongs to calendar year YYYY while
// summer and fall belong to YYYY - 1.
type Term string

var termRegex = regexp.MustCompile(`^\d{4}[135]$`)

// ErrInvalidTerm is returned when a term code does not match YYYYT.
var ErrInvalidTerm = errors.New("invalid term code")

func ParseTerm(s string) (Term, error) {
	if !termRegex.MatchString(s) {
		return "", fmt.Errorf("%w: %q (expected a code like 20255)", ErrInvalidTerm, s)
	}
	return Term(s), nil
}

func (t Term) Valid() bool {
	return termRegex.MatchString(string(t))
}

func (t Term) String() string {
	return string(t)
}

// Int returns the term code as an integer, 0 if it is not valid.
func (t Term) Int() int {
	if !t.Valid() {
		return 0
	}
	n, _ := strconv.Atoi(string(t))
	return n
}

func (t Term) FiscalYear() int {
	if !t.Valid() {
		return 0
	}
	n, _ := strconv.Atoi(string(t[:4]))
	return n
}

func (t Term) Digit() int {
	if !t.Valid() {
		return 0
	}
	return int(t[4] - '0')
}

// Season returns Summer, Fall or Spring.
func (t Term) Season() string {
	switch t.Digit() {
	case 1:
		return "Summer"
	case 3:
		return "Fall"
	case 5:
		return "Spring"
	}
	return ""
}

// CalendarYear is the year the term is actually taught in.
func (t Term) CalendarYear() int {
	if t.Digit() == 5 {
		return t.FiscalYear()
	}
	return t.FiscalYear() - 1
}

// Label is the human readable form, "Fall 2023" for 20243.
func (t Term) Label() string {
	if !t.Valid() {
		return ""
	}
	return fmt.Sprintf("%s %d", t.Season(), t.CalendarYear())
}
