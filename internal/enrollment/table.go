package enrollment

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Layout is the ordered list of columns a table is written with.
type Layout []string

// ScrapeLayout is the column order of collector output.
var ScrapeLayout = Layout{
	ColCourseID, ColRubric, ColNumber, ColSection, ColTitle, ColDates, ColDays, ColTime,
	ColSize, ColEnrolledRaw, ColCreditsRaw, ColStatus, ColInstructor, ColDeliveryMethod,
	ColBookCost, ColLocation, ColLASC, ColOnline18, ColTuitionResident, ColTuitionUnit,
	ColTuitionNonResident, ColCourseLevel, ColCourseFees, ColTimestamp, ColTerm,
}

// ArchiveLayout is ScrapeLayout with the canonical enrolled and credit names.
var ArchiveLayout = Layout{
	ColCourseID, ColRubric, ColNumber, ColSection, ColTitle, ColDates, ColDays, ColTime,
	ColSize, ColEnrolled, ColCredits, ColStatus, ColInstructor, ColDeliveryMethod,
	ColBookCost, ColLocation, ColLASC, ColOnline18, ColTuitionResident, ColTuitionUnit,
	ColTuitionNonResident, ColCourseLevel, ColCourseFees, ColTimestamp, ColTerm,
}

var requiredColumns = []string{ColCourseID, ColRubric, ColNumber, ColTerm}

// ErrMissingColumn is returned when a table lacks one of the key columns.
var ErrMissingColumn = errors.New("missing required column")

// Read parses a table written in either layout. Columns that are not
// part of a Section are ignored.
func Read(r io.Reader) ([]Section, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		// utf-8 byte order mark
		header[0] = trimBOM(header[0])
	}

	seen := map[*field]string{}
	columns := make([]*field, len(header))
	for i, name := range header {
		f, ok := fieldsByName[name]
		if !ok {
			continue
		}
		if other, dup := seen[f]; dup {
			return nil, fmt.Errorf("columns %q and %q hold the same field", other, name)
		}
		seen[f] = name
		columns[i] = f
	}
	for _, name := range requiredColumns {
		if _, ok := seen[fieldsByName[name]]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}

	var rows []Section
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)

		var row Section
		for i, value := range record {
			if columns[i] == nil {
				continue
			}
			err = columns[i].set(&row, value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func trimBOM(s string) string {
	if len(s) >= 3 && s[0] == 0xef && s[1] == 0xbb && s[2] == 0xbf {
		return s[3:]
	}
	return s
}

func ReadFile(path string) ([]Section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// Write renders rows with the columns of layout.
func Write(w io.Writer, layout Layout, rows []Section) error {
	columns := make([]*field, len(layout))
	for i, name := range layout {
		f, ok := fieldsByName[name]
		if !ok {
			return fmt.Errorf("unknown column %q", name)
		}
		columns[i] = f
	}

	writer := csv.NewWriter(w)
	err := writer.Write(layout)
	if err != nil {
		return err
	}
	record := make([]string, len(columns))
	for i := range rows {
		for j, f := range columns {
			record[j] = f.get(&rows[i])
		}
		err = writer.Write(record)
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile writes rows to a temporary file next to path and renames it
// into place, readers never observe a partially written table.
func WriteFile(path string, layout Layout, rows []Section) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	err = Write(tmp, layout, rows)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Sync()
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// CountRows counts the data rows of a table on disk.
func CountRows(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.ReuseRecord = true
	_, err = reader.Read()
	if errors.Is(err, io.EOF) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n := 0
	for {
		_, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("%s: %w", path, err)
		}
		n++
	}
}
