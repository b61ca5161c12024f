package enrollment

import (
	"fmt"
	"strconv"
	"strings"
)

// VariableCredits is the credit value the registrar uses for variable credit courses.
const VariableCredits = "Vari."

// Tuition units.
const (
	PerCourse = "course"
	PerCredit = "credit"
)

// Section is one offered course section as scraped from the registrar.
// Money fields are kept as the raw strings shown on the portal.
type Section struct {
	CourseID string
	Rubric   string
	Number   string
	Section  string
	Title    string
	Dates    string
	Days     string
	Time     string
	// Size and Enrolled are -1 when the portal could not report them.
	Size           int
	Enrolled       int
	Credits        string
	Status         string
	Instructor     string
	DeliveryMethod string
	BookCost       string
	Location       string
	// LASC is the comma joined list of LASC area and writing intensive tags.
	LASC               string
	Online18           bool
	TuitionResident    string
	TuitionUnit        string
	TuitionNonResident string
	CourseLevel        string
	CourseFees         string
	// Timestamp is the time the detail page was fetched in unix seconds.
	Timestamp float64
	Term      Term
}

// Column names shared by the scrape output and the archive.
const (
	ColCourseID           = "ID #"
	ColRubric             = "Subj"
	ColNumber             = "#"
	ColSection            = "Sec"
	ColTitle              = "Title"
	ColDates              = "Dates"
	ColDays               = "Days"
	ColTime               = "Time"
	ColSize               = "Size:"
	ColEnrolled           = "Enrolled"
	ColEnrolledRaw        = "Enrolled:"
	ColCredits            = "Crds"
	ColCreditsRaw         = "Cr/Hr"
	ColStatus             = "Status"
	ColInstructor         = "Instructor"
	ColDeliveryMethod     = "Delivery Method"
	ColBookCost           = "Book Cost"
	ColLocation           = "Loc"
	ColLASC               = "LASC/WI"
	ColOnline18           = "18online"
	ColTuitionResident    = "Tuition -resident"
	ColTuitionUnit        = "Tuition unit"
	ColTuitionNonResident = "Tuition -nonresident"
	ColCourseLevel        = "Course level"
	ColCourseFees         = "Approximate Course Fees"
	ColTimestamp          = "timestamp"
	ColTerm               = "year_term"
)

type field struct {
	// names are every header this field is read from, the first one is canonical
	names []string
	get   func(s *Section) string
	set   func(s *Section, v string) error
}

func stringField(names []string, ptr func(s *Section) *string) field {
	return field{
		names: names,
		get:   func(s *Section) string { return *ptr(s) },
		set: func(s *Section, v string) error {
			*ptr(s) = v
			return nil
		},
	}
}

func intField(names []string, ptr func(s *Section) *int) field {
	return field{
		names: names,
		get:   func(s *Section) string { return strconv.Itoa(*ptr(s)) },
		set: func(s *Section, v string) error {
			v = strings.TrimSpace(v)
			if v == "" {
				*ptr(s) = -1
				return nil
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				// some writers emit integer columns as floats
				f, ferr := strconv.ParseFloat(v, 64)
				if ferr != nil || f != float64(int(f)) {
					return fmt.Errorf("%s: not an integer: %q", names[0], v)
				}
				n = int(f)
			}
			*ptr(s) = n
			return nil
		},
	}
}

var fields = []field{
	stringField([]string{ColCourseID}, func(s *Section) *string { return &s.CourseID }),
	stringField([]string{ColRubric}, func(s *Section) *string { return &s.Rubric }),
	stringField([]string{ColNumber}, func(s *Section) *string { return &s.Number }),
	stringField([]string{ColSection}, func(s *Section) *string { return &s.Section }),
	stringField([]string{ColTitle}, func(s *Section) *string { return &s.Title }),
	stringField([]string{ColDates}, func(s *Section) *string { return &s.Dates }),
	stringField([]string{ColDays}, func(s *Section) *string { return &s.Days }),
	stringField([]string{ColTime}, func(s *Section) *string { return &s.Time }),
	intField([]string{ColSize}, func(s *Section) *int { return &s.Size }),
	intField([]string{ColEnrolled, ColEnrolledRaw}, func(s *Section) *int { return &s.Enrolled }),
	stringField([]string{ColCredits, ColCreditsRaw}, func(s *Section) *string { return &s.Credits }),
	stringField([]string{ColStatus}, func(s *Section) *string { return &s.Status }),
	stringField([]string{ColInstructor}, func(s *Section) *string { return &s.Instructor }),
	stringField([]string{ColDeliveryMethod}, func(s *Section) *string { return &s.DeliveryMethod }),
	stringField([]string{ColBookCost}, func(s *Section) *string { return &s.BookCost }),
	stringField([]string{ColLocation}, func(s *Section) *string { return &s.Location }),
	stringField([]string{ColLASC}, func(s *Section) *string { return &s.LASC }),
	{
		names: []string{ColOnline18},
		get: func(s *Section) string {
			if s.Online18 {
				return "True"
			}
			return "False"
		},
		set: func(s *Section, v string) error {
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true":
				s.Online18 = true
			case "false", "":
				s.Online18 = false
			default:
				return fmt.Errorf("%s: not a boolean: %q", ColOnline18, v)
			}
			return nil
		},
	},
	stringField([]string{ColTuitionResident}, func(s *Section) *string { return &s.TuitionResident }),
	stringField([]string{ColTuitionUnit}, func(s *Section) *string { return &s.TuitionUnit }),
	stringField([]string{ColTuitionNonResident}, func(s *Section) *string { return &s.TuitionNonResident }),
	stringField([]string{ColCourseLevel}, func(s *Section) *string { return &s.CourseLevel }),
	stringField([]string{ColCourseFees}, func(s *Section) *string { return &s.CourseFees }),
	{
		names: []string{ColTimestamp},
		get: func(s *Section) string {
			return strconv.FormatFloat(s.Timestamp, 'f', -1, 64)
		},
		set: func(s *Section, v string) error {
			v = strings.TrimSpace(v)
			if v == "" {
				s.Timestamp = 0
				return nil
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: not a number: %q", ColTimestamp, v)
			}
			s.Timestamp = f
			return nil
		},
	},
	{
		names: []string{ColTerm},
		get:   func(s *Section) string { return string(s.Term) },
		set: func(s *Section, v string) error {
			s.Term = Term(strings.TrimSpace(v))
			return nil
		},
	},
}

var fieldsByName = func() map[string]*field {
	out := map[string]*field{}
	for i := range fields {
		for _, name := range fields[i].names {
			out[name] = &fields[i]
		}
	}
	return out
}()

// Get returns the value of a column by any of its accepted names.
func (s *Section) Get(column string) (string, bool) {
	f, ok := fieldsByName[column]
	if !ok {
		return "", false
	}
	return f.get(s), true
}

// Set assigns a column by any of its accepted names. Unknown columns
// report false and are otherwise ignored.
func (s *Section) Set(column, value string) (bool, error) {
	f, ok := fieldsByName[column]
	if !ok {
		return false, nil
	}
	return true, f.set(s, value)
}

// IsKnownColumn reports whether column maps to a Section field.
func IsKnownColumn(column string) bool {
	_, ok := fieldsByName[column]
	return ok
}
