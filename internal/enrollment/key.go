package enrollment

import (
	"strings"
)

// Key is the natural identity of a course section record.
type Key struct {
	Term     Term
	CourseID string
	Rubric   string
	Number   string
}

// KeyOf derives the key of a section. Components are trimmed and the
// course id is compared without leading zeros, the section itself is
// never modified.
func KeyOf(s Section) Key {
	return Key{
		Term:     Term(strings.TrimSpace(string(s.Term))),
		CourseID: canonicalCourseID(s.CourseID),
		Rubric:   strings.TrimSpace(s.Rubric),
		Number:   strings.TrimSpace(s.Number),
	}
}

func canonicalCourseID(id string) string {
	id = strings.TrimSpace(id)
	trimmed := strings.TrimLeft(id, "0")
	if trimmed == "" && id != "" {
		return "0"
	}
	return trimmed
}

func (k Key) String() string {
	return strings.Join([]string{string(k.Term), k.CourseID, k.Rubric, k.Number}, "|")
}

// Index maps keys to positions in a slice of sections.
type Index map[Key]int

// NewIndex indexes rows by key. When a key repeats the last position
// wins and the earlier positions are returned as duplicates.
func NewIndex(rows []Section) (Index, []int) {
	index := make(Index, len(rows))
	var duplicates []int
	for i, row := range rows {
		key := KeyOf(row)
		prev, exists := index[key]
		if exists {
			duplicates = append(duplicates, prev)
		}
		index[key] = i
	}
	return index, duplicates
}
