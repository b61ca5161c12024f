package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	"enrollments-backend/lib/telemetry"

	_ "modernc.org/sqlite"
)

type ServiceParams struct {
	Name string
	// if unspecified, it will skip setting up a db
	DbSchema string
	// if unspecified, it will use `:memory:`
	DbPath string
}

type ServiceResult struct {
	DB *sql.DB
}

// SetupService sets up telemetry for a test and, when a schema is given,
// an sqlite database with the schema applied. Both are released by
// t.Cleanup.
func SetupService(t testing.TB, params ServiceParams) ServiceResult {
	shutdown := telemetry.SetupForTesting(fmt.Sprintf("test:%s", params.Name))
	t.Cleanup(shutdown)

	if params.DbSchema == "" {
		return ServiceResult{}
	}

	dbpath := ":memory:"
	if params.DbPath != "" {
		dbpath = params.DbPath
	}
	db, err := sql.Open("sqlite", dbpath)
	if err != nil {
		t.Fatal(err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(params.DbSchema)
	if err != nil {
		t.Fatal(err)
	}
	return ServiceResult{DB: db}
}
