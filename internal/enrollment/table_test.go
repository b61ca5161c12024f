package enrollment

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func sampleSection() Section {
	return Section{
		CourseID:           "000123",
		Rubric:             "MATH",
		Number:             "127",
		Section:            "01",
		Title:              "College Algebra",
		Dates:              "08/26/2024 - 12/13/2024",
		Days:               "MWF",
		Time:               "09:00AM - 09:50AM",
		Size:               30,
		Enrolled:           -1,
		Credits:            "3",
		Status:             "Open",
		Instructor:         "Smith, J",
		DeliveryMethod:     "",
		BookCost:           "$45.00",
		Location:           "Bridges 260",
		LASC:               "4",
		Online18:           true,
		TuitionResident:    "$1,234.56",
		TuitionUnit:        PerCourse,
		TuitionNonResident: "$1,234.56",
		CourseLevel:        "Lower",
		CourseFees:         "n/a",
		Timestamp:          1718000000.25,
		Term:               "20253",
	}
}

func TestWriteRead(t *testing.T) {
	rows := []Section{sampleSection()}

	var buff bytes.Buffer
	err := Write(&buff, ScrapeLayout, rows)
	require.NoError(t, err)

	header, _, _ := strings.Cut(buff.String(), "\n")
	require.Equal(t, strings.Join(ScrapeLayout, ","), header)
	require.Contains(t, buff.String(), `"$1,234.56"`)
	require.Contains(t, buff.String(), ",True,")

	parsed, err := Read(&buff)
	require.NoError(t, err)
	diff := cmp.Diff(rows, parsed)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestReadAcceptsBothLayouts(t *testing.T) {
	var scrape, archive bytes.Buffer
	require.NoError(t, Write(&scrape, ScrapeLayout, []Section{sampleSection()}))
	require.NoError(t, Write(&archive, ArchiveLayout, []Section{sampleSection()}))

	fromScrape, err := Read(&scrape)
	require.NoError(t, err)
	fromArchive, err := Read(&archive)
	require.NoError(t, err)
	require.Equal(t, fromScrape, fromArchive)
}

func TestReadErrors(t *testing.T) {
	_, err := Read(strings.NewReader("ID #,Subj,#\n1,MATH,101\n"))
	require.True(t, errors.Is(err, ErrMissingColumn))

	_, err = Read(strings.NewReader("ID #,Subj,#,year_term,Enrolled,Enrolled:\n1,MATH,101,20243,1,1\n"))
	require.Error(t, err)

	_, err = Read(strings.NewReader("ID #,Subj,#,year_term,Size:\n1,MATH,101,20243,lots\n"))
	require.ErrorContains(t, err, "line 2")

	rows, err := Read(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestReadLenientValues(t *testing.T) {
	rows, err := Read(strings.NewReader(
		"\ufeffID #,Subj,#,year_term,Size:,Enrolled,18online,Extra\n" +
			"7,ART,100,20245,24.0,,false,ignored\n",
	))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 24, rows[0].Size)
	require.Equal(t, -1, rows[0].Enrolled)
	require.False(t, rows[0].Online18)
	require.Equal(t, Term("20245"), rows[0].Term)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all_enrollments.csv")
	rows := []Section{sampleSection(), sampleSection()}
	rows[1].CourseID = "000124"

	require.NoError(t, WriteFile(path, ArchiveLayout, rows))
	n, err := CountRows(path)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	parsed, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, rows, parsed)
}

func TestSectionGetSet(t *testing.T) {
	var s Section
	ok, err := s.Set("Cr/Hr", "Vari.")
	require.True(t, ok)
	require.NoError(t, err)
	require.Equal(t, VariableCredits, s.Credits)

	ok, err = s.Set("Seats", "3")
	require.False(t, ok)
	require.NoError(t, err)

	value, ok := s.Get("Crds")
	require.True(t, ok)
	require.Equal(t, "Vari.", value)
	require.True(t, IsKnownColumn("Enrolled:"))
	require.False(t, IsKnownColumn("Seats"))
}
