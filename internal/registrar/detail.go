package registrar

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"enrollments-backend/internal/enrollment"
	"enrollments-backend/lib/htmlutil"
	"enrollments-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	SystemErrorMarker = "System Error"
	Online18Marker    = "18 On-Line"
)

// SizeLabels carry colons since instructor names like "Sizer" and free
// text containing "Enrolled" appear on some pages.
var SizeLabels = []string{"Enrolled:", "Size:"}

// tuition labels in order: resident, non-resident, course fees
var (
	CourseTuitionLabels = []string{
		"Tuition -resident",
		"Tuition -nonresident",
		"Approximate Course Fees",
	}
	CreditTuitionLabels = []string{
		"Tuition per credit -resident",
		"Tuition per credit -nonresident",
		"Approximate Course Fees",
	}
)

// LASCAreas are tagged with the code before the dash, "1B", "WI"...
var LASCAreas = textutil.PrefixVocabulary(
	"-",
	"10-People and the Environment",
	"11-Information Literacy",
	"1A-Oral Communication",
	"1B-Written Communication",
	"2-Critical Thinking",
	"3-Natural Sciences",
	"3L-Natural Sciences with Lab",
	"4-Math/Logical Reasoning",
	"5-History and the Social Sciences",
	"6-Humanities and Fine Arts",
	"7-Human Diversity",
	"8-Global Perspective",
	"9-Ethical and Civic Responsibility",
	"WI-Writing Intensive",
)

// CourseLevelFollowers are the section headers that can come right after
// the course level on a detail page.
var CourseLevelFollowers = []string{
	"Description",
	"General/Liberal",
	"Lectures/Labs",
	"Corequisites",
	"Add To Wait List",
	"Minnesota Transfer Curriculum Goal",
	"Non-Course Prerequisites",
}

var courseLevelRegex = func() *regexp.Regexp {
	quoted := make([]string, len(CourseLevelFollowers))
	for i, f := range CourseLevelFollowers {
		quoted[i] = regexp.QuoteMeta(f)
	}
	return regexp.MustCompile(`.*Course Level\s+(\w+)\s+(?:` + strings.Join(quoted, "|") + `)`)
}()

// ErrCourseLevelNotFound means the detail page no longer has the layout
// this parser expects.
var ErrCourseLevelNotFound = errors.New(`"Course Level" not found in detail page`)

// Detail holds the fields scraped from a course detail page.
type Detail struct {
	// Size and Enrolled are -1 when the page errored or did not list them.
	Size               int
	Enrolled           int
	TuitionResident    string
	TuitionNonResident string
	CourseFees         string
	TuitionUnit        string
	LASC               string
	Online18           bool
	CourseLevel        string
	SystemError        bool
}

// ParseDetail extracts a Detail from a detail page. A system error page is
// not an error, it yields sentinel sizes.
func ParseDetail(body []byte) (Detail, error) {
	text := string(body)
	if strings.Contains(text, SystemErrorMarker) {
		return Detail{Size: -1, Enrolled: -1, SystemError: true}, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Detail{}, err
	}

	detail := Detail{
		Enrolled: parseSize(labelValue(doc, SizeLabels[0])),
		Size:     parseSize(labelValue(doc, SizeLabels[1])),
		LASC:     strings.Join(LASCAreas.Tags(text), ","),
		Online18: strings.Contains(text, Online18Marker),
	}

	tuitionLabels := CourseTuitionLabels
	detail.TuitionUnit = enrollment.PerCourse
	if strings.Contains(text, CreditTuitionLabels[0]) {
		tuitionLabels = CreditTuitionLabels
		detail.TuitionUnit = enrollment.PerCredit
	}
	detail.TuitionResident = labelValue(doc, tuitionLabels[0])
	detail.TuitionNonResident = labelValue(doc, tuitionLabels[1])
	detail.CourseFees = labelValue(doc, tuitionLabels[2])

	match := courseLevelRegex.FindStringSubmatch(htmlutil.SelectionText(doc.Selection))
	if match == nil {
		return detail, ErrCourseLevelNotFound
	}
	detail.CourseLevel = match[1]

	return detail, nil
}

// the value of a label is whatever follows the first colon in the text
// of the label's parent element.
func labelValue(doc *goquery.Document, label string) string {
	node := htmlutil.FindByOwnText(doc.Selection, label)
	if node == nil || node.Parent == nil {
		return ""
	}
	parts := strings.Split(htmlutil.GetText(node.Parent), ":")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func parseSize(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return n
}
