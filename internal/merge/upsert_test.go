package merge

import (
	"testing"

	"enrollments-backend/internal/enrollment"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func row(id, number string, term enrollment.Term, title string) enrollment.Section {
	return enrollment.Section{
		CourseID: id,
		Rubric:   "MATH",
		Number:   number,
		Section:  "01",
		Title:    title,
		Size:     30,
		Enrolled: 10,
		Term:     term,
	}
}

func titles(rows []enrollment.Section) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.CourseID + " " + string(r.Term) + " " + r.Title
	}
	return out
}

func TestUpsert(t *testing.T) {
	archive := []enrollment.Section{
		row("000100", "100", "20243", "a"),
		row("000127", "127", "20243", "a"),
		row("000127", "127", "20245", "a"),
	}
	batch := []enrollment.Section{
		row("000127", "127", "20245", "b"),
		row("000229", "229", "20245", "b"),
	}

	result := Upsert(archive, batch)
	require.Equal(t, 1, result.Inserted)
	require.Equal(t, 1, result.Updated)
	require.Empty(t, result.Collapsed)
	require.Equal(t, []string{
		"000100 20243 a",
		"000127 20243 a",
		"000127 20245 b",
		"000229 20245 b",
	}, titles(result.Rows))

	// inputs are untouched
	require.Equal(t, "a", archive[2].Title)
}

func TestUpsertTieBreak(t *testing.T) {
	batch := []enrollment.Section{
		row("000229", "229", "20245", "first"),
		row("000300", "300", "20245", "only"),
		row("229", "229", "20245", "last"),
	}
	result := Upsert(nil, batch)
	require.Equal(t, 2, result.Inserted)
	require.Equal(t, []string{"229 20245 last", "000300 20245 only"}, titles(result.Rows))
}

func TestUpsertLeadingZeros(t *testing.T) {
	archive := []enrollment.Section{row("000123", "127", "20245", "a")}
	result := Upsert(archive, []enrollment.Section{row("123", "127", "20245", "b")})
	require.Equal(t, 0, result.Inserted)
	require.Equal(t, 1, result.Updated)
	require.Len(t, result.Rows, 1)
}

func TestUpsertCollapsesLegacyDuplicates(t *testing.T) {
	archive := []enrollment.Section{
		row("000127", "127", "20245", "old"),
		row("000100", "100", "20245", "a"),
		row("000127", "127", "20245", "new"),
	}
	result := Upsert(archive, nil)
	require.Equal(t, []string{"000100 20245 a", "000127 20245 new"}, titles(result.Rows))
	require.Equal(t, []enrollment.Key{enrollment.KeyOf(archive[0])}, result.Collapsed)
}

func TestUpsertIdempotent(t *testing.T) {
	archive := []enrollment.Section{
		row("000100", "100", "20243", "a"),
		row("000127", "127", "20245", "a"),
	}
	batch := []enrollment.Section{
		row("000127", "127", "20245", "b"),
		row("000229", "229", "20245", "b"),
		row("000229", "229", "20245", "c"),
	}

	once := Upsert(archive, batch)
	twice := Upsert(once.Rows, batch)
	if diff := cmp.Diff(once.Rows, twice.Rows); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, 0, twice.Inserted)
	require.Equal(t, 2, twice.Updated)

	_, duplicates := enrollment.NewIndex(twice.Rows)
	require.Empty(t, duplicates)
}
