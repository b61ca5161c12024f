package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"enrollments-backend/internal/normalize"

	duckdb "github.com/duckdb/duckdb-go/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("enrollments.analytics")

// WriteParquet loads rows into an in-memory duckdb table and copies it to
// path as parquet. The file is written next to path and renamed into
// place.
func WriteParquet(ctx context.Context, path string, rows []normalize.Analytical) error {
	ctx, span := tracer.Start(ctx, "WriteParquet")
	defer span.End()
	span.SetAttributes(attribute.Int("rows", len(rows)))

	connector, err := duckdb.NewConnector("", nil)
	if err != nil {
		return fmt.Errorf("failed to create duckdb connector: %w", err)
	}
	defer connector.Close()
	db := sql.OpenDB(connector)
	defer db.Close()

	_, err = db.ExecContext(ctx, createTableSQL())
	if err != nil {
		return err
	}

	conn, err := connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to get native connection: %w", err)
	}
	defer conn.Close()

	appender, err := duckdb.NewAppenderFromConn(conn, "", tableName)
	if err != nil {
		return fmt.Errorf("failed to create appender: %w", err)
	}
	for _, row := range rows {
		err = appender.AppendRow(values(row)...)
		if err != nil {
			appender.Close()
			return fmt.Errorf("append %s %s: %w", row.CourseID, row.Term, err)
		}
	}
	// Close flushes the remaining rows.
	err = appender.Close()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp.Close()
	defer os.Remove(tmp.Name())

	_, err = db.ExecContext(ctx, fmt.Sprintf(
		"COPY %s TO %s (FORMAT PARQUET)",
		tableName, quoteLiteral(tmp.Name()),
	))
	if err != nil {
		return fmt.Errorf("copy to parquet: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
