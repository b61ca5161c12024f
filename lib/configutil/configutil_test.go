package configutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	ArchivePath string `json:"archive_path"`
	CampusId    int    `json:"campus_id"`
	Debug       bool   `json:"debug"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "enrollments.json5")

	_, err := ReadConfig[testConfig](name)
	require.True(t, errors.Is(err, os.ErrNotExist))

	err = os.WriteFile(name, []byte(`{
		// comments are allowed
		archive_path: "data/all_enrollments.csv",
		campus_id: 72,
	}`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, testConfig{ArchivePath: "data/all_enrollments.csv", CampusId: 72}, cfg)

	err = os.WriteFile(LocalPath(name), []byte(`{ campus_id: 71, debug: true }`), 0600)
	require.NoError(t, err)

	cfg, err = ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, testConfig{ArchivePath: "data/all_enrollments.csv", CampusId: 71, Debug: true}, cfg)
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, "conf/enrollments.local.json5", LocalPath("conf/enrollments.json5"))
	require.Equal(t, "telemetry.local.json5", LocalPath("telemetry.json5"))
}

func TestWithDefaults(t *testing.T) {
	cfg, err := WithDefaults(
		testConfig{CampusId: 71},
		testConfig{ArchivePath: "data/all_enrollments.csv", CampusId: 72},
	)
	require.NoError(t, err)
	require.Equal(t, testConfig{ArchivePath: "data/all_enrollments.csv", CampusId: 71}, cfg)
}
