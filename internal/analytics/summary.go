package analytics

import (
	"strconv"
	"strings"

	"enrollments-backend/internal/enrollment"
	"enrollments-backend/internal/normalize"
)

// variableCreditHours is the credit value counted for a "Vari." section.
const variableCreditHours = 1

const statusCancelled = "Cancelled"

// Summary aggregates a set of sections.
type Summary struct {
	Sections int
	// CreditHours is the student credit hours, credits times enrolled.
	// Fractional credits are kept.
	CreditHours    float64
	SeatsAvailable int
	SeatsFilled    int
	SeatsEmpty     int
	// TuitionRevenue is the resident tuition of every enrolled student.
	TuitionRevenue float64
}

func creditHours(credits string) float64 {
	credits = strings.TrimSpace(credits)
	if credits == enrollment.VariableCredits {
		return variableCreditHours
	}
	f, err := strconv.ParseFloat(credits, 64)
	if err != nil {
		return 0
	}
	return f
}

// Summarize computes the summary of rows. Unknown sizes (-1) count as 0
// and cancelled sections contribute no seats.
func Summarize(rows []normalize.Analytical) Summary {
	var s Summary
	for _, row := range rows {
		s.Sections++
		enrolled := max(row.Enrolled, 0)
		size := max(row.Size, 0)
		credits := creditHours(row.Credits)

		s.CreditHours += float64(enrolled) * credits

		tuition := row.TuitionResident * float64(enrolled)
		if row.TuitionUnit == enrollment.PerCredit {
			tuition *= credits
		}
		s.TuitionRevenue += tuition

		if row.Status == statusCancelled {
			continue
		}
		s.SeatsAvailable += size
		s.SeatsFilled += enrolled
		s.SeatsEmpty += max(size-enrolled, 0)
	}
	return s
}
