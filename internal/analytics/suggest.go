package analytics

import (
	"context"
	"slices"
	"strings"

	"enrollments-backend/lib/textutil"

	"github.com/antzucaro/matchr"
)

const suggestThreshold = 0.75

// SuggestSubjects returns up to limit published rubrics that are closest
// to subject, best match first.
func (r *Reader) SuggestSubjects(ctx context.Context, subject string, limit int) ([]string, error) {
	subjects, err := r.Subjects(ctx)
	if err != nil {
		return nil, err
	}
	return suggest(subjects, subject, limit), nil
}

func suggest(candidates []string, target string, limit int) []string {
	target = textutil.NormalizeName(target)

	type scored struct {
		subject    string
		similarity float64
	}
	var matches []scored
	for _, c := range candidates {
		similarity := matchr.JaroWinkler(target, textutil.NormalizeName(c), false)
		if similarity < suggestThreshold {
			continue
		}
		matches = append(matches, scored{subject: c, similarity: similarity})
	}
	slices.SortStableFunc(matches, func(a, b scored) int {
		switch {
		case a.similarity > b.similarity:
			return -1
		case a.similarity < b.similarity:
			return 1
		}
		return strings.Compare(a.subject, b.subject)
	})

	var out []string
	for i := 0; i < len(matches) && i < limit; i++ {
		out = append(out, matches[i].subject)
	}
	return out
}
