package collector

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"enrollments-backend/internal/enrollment"
)

// ReadPairs reads a course id list, a csv with at least the columns
// "ID #" and "year_term". Course ids are zero padded to 6 digits.
func ReadPairs(path string) ([]Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pairs, err := readPairs(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pairs, nil
}

func readPairs(r io.Reader) ([]Pair, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []Pair{}, nil
	}
	if err != nil {
		return nil, err
	}

	idCol, termCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case enrollment.ColCourseID:
			idCol = i
		case enrollment.ColTerm:
			termCol = i
		}
	}
	if idCol < 0 || termCol < 0 {
		return nil, fmt.Errorf("%w: %q and %q are required", enrollment.ErrMissingColumn, enrollment.ColCourseID, enrollment.ColTerm)
	}

	pairs := []Pair{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return pairs, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)

		id, err := strconv.Atoi(strings.TrimSpace(record[idCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d: course id %q is not a number", line, record[idCol])
		}
		pairs = append(pairs, Pair{
			CourseID: fmt.Sprintf("%06d", id),
			Term:     enrollment.Term(strings.TrimSpace(record[termCol])),
		})
	}
}
