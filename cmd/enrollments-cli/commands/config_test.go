package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "enrollments.json5")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, defaultConfig, cfg)

	require.NoError(t, os.WriteFile(path, []byte(`{
		// a different campus
		campus_id: 71,
		archive: "/srv/enrollments/all_enrollments.csv",
	}`), 0666))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "enrollments.local.json5"), []byte(`{
		requests_per_second: 0.5,
	}`), 0666))

	cfg, err = loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 71, cfg.CampusID)
	require.Equal(t, "/srv/enrollments/all_enrollments.csv", cfg.Archive)
	require.Equal(t, 0.5, cfg.RequestsPerSecond)
	require.Equal(t, "data", cfg.DataDir)
	require.Equal(t, 30, cfg.TimeoutSeconds)
}

func TestScrapeRequest(t *testing.T) {
	scrapeYearTerm, scrapeCidList = "", ""
	_, err := scrapeRequest()
	require.Error(t, err)

	scrapeYearTerm = "20253"
	req, err := scrapeRequest()
	require.NoError(t, err)
	require.Equal(t, "20253", req.Term)

	path := filepath.Join(t.TempDir(), "ids.csv")
	require.NoError(t, os.WriteFile(path, []byte("ID #,year_term\n123,20253\n"), 0666))
	scrapeCidList = path
	_, err = scrapeRequest()
	require.Error(t, err)

	scrapeYearTerm = ""
	req, err = scrapeRequest()
	require.NoError(t, err)
	require.Len(t, req.Pairs, 1)
	scrapeCidList = ""
}
