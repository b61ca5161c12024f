package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"enrollments-backend/internal/enrollment"
	"enrollments-backend/internal/normalize"
	"enrollments-backend/lib/timezone"

	duckdb "github.com/duckdb/duckdb-go/v2"
)

// Reader serves queries over an analytical parquet file.
type Reader struct {
	connector *duckdb.Connector
	db        *sql.DB
}

// Open exposes the parquet file at path as the sections view of an
// in-memory duckdb database.
func Open(ctx context.Context, path string) (*Reader, error) {
	_, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	connector, err := duckdb.NewConnector("", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create duckdb connector: %w", err)
	}
	db := sql.OpenDB(connector)

	_, err = db.ExecContext(ctx, fmt.Sprintf(
		"CREATE VIEW %s AS SELECT * FROM read_parquet(%s)",
		tableName, quoteLiteral(path),
	))
	if err != nil {
		db.Close()
		connector.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Reader{connector: connector, db: db}, nil
}

func (r *Reader) Close() error {
	err := r.db.Close()
	if err != nil {
		return err
	}
	return r.connector.Close()
}

// Query returns the rows matching f ordered by term, subject, course
// number and section.
func (r *Reader) Query(ctx context.Context, f Filter) ([]normalize.Analytical, error) {
	ctx, span := tracer.Start(ctx, "Query")
	defer span.End()

	where, args, err := f.where()
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE %s ORDER BY "Fiscal yrtr", "Subj", "#", "Sec"`,
		selectList(), tableName, where,
	)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []normalize.Analytical
	for rows.Next() {
		var row normalize.Analytical
		var college sql.NullString
		var lastUpdated sql.NullTime
		err = rows.Scan(
			&row.Term,
			&row.FiscalYrtr,
			&row.CourseID,
			&row.Rubric,
			&row.Number,
			&row.Section,
			&row.Title,
			&row.Credits,
			&row.Enrolled,
			&row.Size,
			&row.Status,
			&row.Dates,
			&row.Days,
			&row.Time,
			&row.Instructor,
			&row.DeliveryMethod,
			&row.Location,
			&row.LASC,
			&row.Online18,
			&row.CourseLevel,
			&college,
			&row.TuitionUnit,
			&row.TuitionResident,
			&row.TuitionNonResident,
			&row.CourseFees,
			&row.BookCost,
			&lastUpdated,
		)
		if err != nil {
			return nil, err
		}
		if college.Valid {
			row.College = &college.String
		}
		if lastUpdated.Valid {
			row.LastUpdated = lastUpdated.Time.In(timezone.Location)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Terms lists every published term, newest first.
func (r *Reader) Terms(ctx context.Context) ([]normalize.Semester, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT DISTINCT "Fiscal yrtr", "Term" FROM %s ORDER BY "Fiscal yrtr" DESC`,
		tableName,
	))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []normalize.Semester
	for rows.Next() {
		var yrtr int
		var label string
		err = rows.Scan(&yrtr, &label)
		if err != nil {
			return nil, err
		}
		out = append(out, normalize.Semester{
			YearTerm: enrollment.Term(strconv.Itoa(yrtr)),
			Term:     label,
		})
	}
	return out, rows.Err()
}

// Subjects lists every published rubric in alphabetical order.
func (r *Reader) Subjects(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT DISTINCT "Subj" FROM %s ORDER BY "Subj"`,
		tableName,
	))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var subject string
		err = rows.Scan(&subject)
		if err != nil {
			return nil, err
		}
		out = append(out, subject)
	}
	return out, rows.Err()
}
