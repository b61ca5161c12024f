package normalize

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	colRubric      = "Rubric"
	colCollegeCode = "CollegeCode"
)

// Colleges maps a rubric (subject code) to the code of the college that
// owns it.
type Colleges map[string]string

// College returns the owning college of rubric, ok is false for an
// unmapped rubric.
func (c Colleges) College(rubric string) (string, bool) {
	college, ok := c[strings.TrimSpace(rubric)]
	return college, ok
}

// ReadColleges reads a rubric mapping csv with the columns "Rubric" and
// "CollegeCode". Other columns are ignored.
func ReadColleges(path string) (Colleges, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	colleges, err := readColleges(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return colleges, nil
}

func readColleges(r io.Reader) (Colleges, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Colleges{}, nil
	}
	if err != nil {
		return nil, err
	}

	rubricCol, collegeCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case colRubric:
			rubricCol = i
		case colCollegeCode:
			collegeCol = i
		}
	}
	if rubricCol < 0 || collegeCol < 0 {
		return nil, fmt.Errorf("columns %q and %q are required", colRubric, colCollegeCode)
	}

	colleges := Colleges{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return colleges, nil
		}
		if err != nil {
			return nil, err
		}
		if rubricCol >= len(record) || collegeCol >= len(record) {
			continue
		}
		rubric := strings.TrimSpace(record[rubricCol])
		if rubric == "" {
			continue
		}
		colleges[rubric] = strings.TrimSpace(record[collegeCol])
	}
}
