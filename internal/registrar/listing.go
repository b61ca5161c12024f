package registrar

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"enrollments-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Row is one row of a portal results table keyed by column header.
type Row map[string]string

// ErrTableNotFound is returned when a page lacks the expected results table.
var ErrTableNotFound = errors.New("results table not found")

// ParseSubjects returns the values of the subject options tagged with term.
func ParseSubjects(body []byte, term string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	selectBox := doc.Find("select#subject")
	if selectBox.Length() == 0 {
		return nil, fmt.Errorf("subject select box not found")
	}

	var subjects []string
	selectBox.Find("option").Each(func(_ int, option *goquery.Selection) {
		if !option.HasClass(term) {
			return
		}
		value, ok := option.Attr("value")
		if ok && value != "" {
			subjects = append(subjects, value)
		}
	})
	return subjects, nil
}

// ParseResultsTable parses the subject search results table.
func ParseResultsTable(body []byte) ([]Row, error) {
	return parseTable(body, "table#resultsTable")
}

// ParseMyPlanTable parses the summary table at the top of a course detail page.
func ParseMyPlanTable(body []byte) ([]Row, error) {
	return parseTable(body, "table.myplantable")
}

// the first cell of every row holds action buttons and the last one holds
// the location icon, every other cell lines up with the headers.
func parseTable(body []byte, selector string) ([]Row, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	table := doc.Find(selector).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, selector)
	}

	var headers []string
	table.Find("th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, htmlutil.Clean(htmlutil.SelectionText(th)))
	})

	var rows []Row
	table.Find("tbody > tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td")
		if cells.Length() < 2 {
			return
		}

		var values []string
		cells.Slice(1, cells.Length()-1).Each(func(_ int, td *goquery.Selection) {
			values = append(values, htmlutil.Clean(htmlutil.SelectionText(td)))
		})
		values = append(values, parseLocation(cells.Last()))

		row := Row{}
		for i := 0; i < len(headers) && i < len(values); i++ {
			row[headers[i]] = values[i]
		}
		rows = append(rows, row)
	})
	return rows, nil
}

// rooms are only present in the alt text of the location icon, one
// "Building/Room: <room>" line per meeting place.
func parseLocation(cell *goquery.Selection) string {
	alt, ok := cell.Find("img").First().Attr("alt")
	if !ok {
		return ""
	}
	var rooms []string
	for _, line := range strings.Split(alt, "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.HasPrefix(line, "Building") {
			continue
		}
		_, room, found := strings.Cut(line, "Building/Room: ")
		if found {
			rooms = append(rooms, room)
		}
	}
	return strings.Join(rooms, "\n")
}
