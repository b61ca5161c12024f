package analytics

import (
	"fmt"
	"strings"

	"enrollments-backend/internal/enrollment"
)

// Filter is the set of optional predicates a consumer can combine. The
// zero value selects every section of the most recent term.
type Filter struct {
	Subject string
	College string
	// Number matches the course number exactly, NumberPrefix matches its
	// beginning.
	Number       string
	NumberPrefix string
	// LASCArea is a case insensitive substring of the LASC/WI tags.
	LASCArea string
	// LASC selects sections that carry any LASC area other than WI alone.
	LASC             bool
	WritingIntensive bool
	Online18         bool

	Term     enrollment.Term
	TermFrom enrollment.Term
	TermTo   enrollment.Term
	// AllTerms disables the most recent term default when no term
	// predicate is set.
	AllTerms bool
}

func (f Filter) hasTermPredicate() bool {
	return f.Term != "" || f.TermFrom != "" || f.TermTo != ""
}

func checkTerm(t enrollment.Term) error {
	if t != "" && !t.Valid() {
		return fmt.Errorf("%w: %q", enrollment.ErrInvalidTerm, t)
	}
	return nil
}

// predicates returns the non term predicates.
func (f Filter) predicates() ([]string, []any) {
	var clauses []string
	var args []any
	if f.Subject != "" {
		clauses = append(clauses, `"Subj" = ?`)
		args = append(args, strings.ToUpper(strings.TrimSpace(f.Subject)))
	}
	if f.College != "" {
		clauses = append(clauses, `"College" = ?`)
		args = append(args, strings.TrimSpace(f.College))
	}
	if f.Number != "" {
		clauses = append(clauses, `"#" = ?`)
		args = append(args, strings.TrimSpace(f.Number))
	}
	if f.NumberPrefix != "" {
		clauses = append(clauses, `starts_with("#", ?)`)
		args = append(args, strings.TrimSpace(f.NumberPrefix))
	}
	if f.LASCArea != "" {
		clauses = append(clauses, `contains(lower("LASC/WI"), ?)`)
		args = append(args, strings.ToLower(strings.TrimSpace(f.LASCArea)))
	}
	if f.LASC {
		clauses = append(clauses, `"LASC/WI" <> '' AND "LASC/WI" <> 'WI'`)
	}
	if f.WritingIntensive {
		clauses = append(clauses, `list_contains(string_split(replace("LASC/WI", ' ', ''), ','), 'WI')`)
	}
	if f.Online18 {
		clauses = append(clauses, `"18online"`)
	}
	return clauses, args
}

func (f Filter) where() (string, []any, error) {
	for _, t := range []enrollment.Term{f.Term, f.TermFrom, f.TermTo} {
		err := checkTerm(t)
		if err != nil {
			return "", nil, err
		}
	}

	clauses, args := f.predicates()
	base := "true"
	if len(clauses) > 0 {
		base = strings.Join(clauses, " AND ")
	}

	switch {
	case f.Term != "":
		clauses = append(clauses, `"Fiscal yrtr" = ?`)
		args = append(args, f.Term.Int())
	case f.hasTermPredicate():
		if f.TermFrom != "" {
			clauses = append(clauses, `"Fiscal yrtr" >= ?`)
			args = append(args, f.TermFrom.Int())
		}
		if f.TermTo != "" {
			clauses = append(clauses, `"Fiscal yrtr" <= ?`)
			args = append(args, f.TermTo.Int())
		}
	case !f.AllTerms:
		// the most recent term among the rows the other predicates select
		clauses = append(clauses, fmt.Sprintf(
			`"Fiscal yrtr" = (SELECT max("Fiscal yrtr") FROM %s WHERE %s)`,
			tableName, base,
		))
		args = append(args, args...)
	}

	if len(clauses) == 0 {
		return "true", nil, nil
	}
	return strings.Join(clauses, " AND "), args, nil
}
