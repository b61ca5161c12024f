package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"enrollments-backend/internal/chrono"
	"enrollments-backend/internal/enrollment"
	"enrollments-backend/internal/registrar"
	"enrollments-backend/internal/telemetry"

	"github.com/stretchr/testify/require"
)

func serveFixture(t *testing.T, w http.ResponseWriter, name string) {
	body, err := os.ReadFile(filepath.Join("..", "registrar", "testdata", name))
	require.NoError(t, err)
	w.Write(body)
}

func TestRunAgainstPortal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/registration/search/basic.html", func(w http.ResponseWriter, r *http.Request) {
		serveFixture(t, w, "basic.html")
	})
	mux.HandleFunc("/registration/search/advancedSubmit.html", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("subject") {
		case "MATH":
			serveFixture(t, w, "results_math.html")
		case "ART":
			serveFixture(t, w, "results_empty.html")
		default:
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		}
	})
	mux.HandleFunc("/registration/search/detail.html", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("courseid") {
		case "000123":
			serveFixture(t, w, "detail_course.html")
		default:
			serveFixture(t, w, "detail_cancelled.html")
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := registrar.NewClient(registrar.Options{
		BaseURL:           server.URL + "/registration/search/",
		RequestsPerSecond: 1000,
		Timeout:           5 * time.Second,
	})
	require.NoError(t, err)

	c := New(client, Config{
		DataDir: t.TempDir(),
		Clock:   chrono.NewFixedTime(runStart),
	}, telemetry.NewRecorderAPI())

	result, err := c.Run(context.Background(), Request{Term: "20253"})
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)
	require.Equal(t, []string{"PHIL"}, result.Failed)
	require.Equal(t, []string{"ART"}, result.Skipped)
	require.Equal(t, 2, result.Rows)

	rows, err := enrollment.ReadFile(result.OutputPath)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	calculus := rows[0]
	require.Equal(t, "000123", calculus.CourseID)
	require.Equal(t, 30, calculus.Size)
	require.Equal(t, 24, calculus.Enrolled)
	require.Equal(t, "$1,234.56", calculus.TuitionResident)
	require.Equal(t, "1B,4", calculus.LASC)
	require.True(t, calculus.Online18)
	require.Equal(t, "Bridges 260\nBridges 262", calculus.Location)

	cancelled := rows[1]
	require.Equal(t, "000124", cancelled.CourseID)
	require.Equal(t, "Cancelled", cancelled.Status)
	require.Equal(t, -1, cancelled.Size)
	require.Equal(t, -1, cancelled.Enrolled)
}

func TestRunSystemErrorPageWithErrorStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/registration/search/basic.html", func(w http.ResponseWriter, r *http.Request) {
		serveFixture(t, w, "basic.html")
	})
	mux.HandleFunc("/registration/search/advancedSubmit.html", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("subject") == "MATH" {
			serveFixture(t, w, "results_math.html")
			return
		}
		serveFixture(t, w, "results_empty.html")
	})
	mux.HandleFunc("/registration/search/detail.html", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		serveFixture(t, w, "detail_error.html")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := registrar.NewClient(registrar.Options{
		BaseURL:           server.URL + "/registration/search/",
		RequestsPerSecond: 1000,
		Timeout:           5 * time.Second,
	})
	require.NoError(t, err)

	c := New(client, Config{
		DataDir: t.TempDir(),
		Clock:   chrono.NewFixedTime(runStart),
	}, telemetry.NewRecorderAPI())

	result, err := c.Run(context.Background(), Request{Term: "20253"})
	require.NoError(t, err)
	require.Empty(t, result.Failed)
	require.Empty(t, result.FailedCourses)
	require.Equal(t, 2, result.Rows)

	rows, err := enrollment.ReadFile(result.OutputPath)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		require.Equal(t, -1, row.Size)
		require.Equal(t, -1, row.Enrolled)
	}
}
