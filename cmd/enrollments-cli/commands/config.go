package commands

import (
	"errors"
	"log/slog"
	"os"

	"enrollments-backend/lib/configutil"
)

type Config struct {
	DataDir           string  `json:"data_dir"`
	CampusID          int     `json:"campus_id"`
	BaseURL           string  `json:"base_url"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	UserAgent         string  `json:"user_agent"`
	// HttpDumpDir receives a text dump of every portal request when set.
	HttpDumpDir string `json:"http_dump_dir"`

	Archive   string `json:"archive"`
	BackupDir string `json:"backup_dir"`
	Parquet   string `json:"parquet"`
	Colleges  string `json:"colleges"`
	Semesters string `json:"semesters"`

	RunLog string `json:"run_log"`
}

var defaultConfig = Config{
	DataDir:           "data",
	CampusID:          72,
	RequestsPerSecond: 2,
	TimeoutSeconds:    30,
	Archive:           "data/all_enrollments.csv",
	BackupDir:         "data/backups",
	Parquet:           "data/enrollments.parquet",
	RunLog:            "data/runs.db",
}

// loadConfig reads path and its local override. A missing file leaves
// every setting at its default.
func loadConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("config not found, using defaults", "path", path)
		err = nil
	}
	if err != nil {
		return Config{}, err
	}
	return configutil.WithDefaults(cfg, defaultConfig)
}
