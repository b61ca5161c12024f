package runlog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"enrollments-backend/internal/chrono"
	"enrollments-backend/lib/timezone"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Kind string

const (
	KindScrape Kind = "scrape"
	KindMerge  Kind = "merge"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Counts is the accounting a run reports when it finishes. Scrape runs
// fill the first three, merge runs the rest.
type Counts struct {
	Processed int
	Failed    int
	Skipped   int
	Inserted  int
	Updated   int
	Total     int
	Output    string
}

type Run struct {
	Id         int64
	Kind       Kind
	StartedAt  time.Time
	FinishedAt time.Time
	Status     Status
	Counts
	Error string
}

// Open opens the ledger database. A dsn starting with libsql:// is a
// remote libsql database, anything else is a local sqlite file that is
// created when missing.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("a path was not specified")
	}
	if strings.HasPrefix(dsn, "libsql://") {
		return sql.Open("libsql", dsn)
	}

	if dsn != ":memory:" {
		_, statErr := os.Stat(dsn)
		if os.IsNotExist(statErr) {
			f, err := os.Create(dsn)
			if err != nil {
				return nil, err
			}
			f.Close()
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)
	if dsn != ":memory:" {
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

type Ledger struct {
	db    *sql.DB
	clock chrono.TimeAPI
}

// New creates the runs table if it does not exist yet.
func New(ctx context.Context, db *sql.DB, clock chrono.TimeAPI) (*Ledger, error) {
	if clock == nil {
		clock = chrono.NewStandardTime()
	}
	_, err := db.ExecContext(ctx, Schema)
	if err != nil {
		return nil, fmt.Errorf("apply runlog schema: %w", err)
	}
	return &Ledger{db: db, clock: clock}, nil
}

// Start records a running run and returns its id.
func (l *Ledger) Start(ctx context.Context, kind Kind) (int64, error) {
	res, err := l.db.ExecContext(
		ctx,
		"insert into runs (kind, started_at, status) values (?, ?, ?)",
		string(kind), l.clock.Now().Unix(), string(StatusRunning),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Finish marks run id as succeeded, or failed when runErr is not nil.
func (l *Ledger) Finish(ctx context.Context, id int64, counts Counts, runErr error) error {
	status := StatusSucceeded
	message := ""
	if runErr != nil {
		status = StatusFailed
		message = runErr.Error()
	}
	_, err := l.db.ExecContext(
		ctx,
		`update runs set
			finished_at = ?, status = ?,
			processed = ?, failed = ?, skipped = ?,
			inserted = ?, updated = ?, total = ?,
			output = ?, error = ?
		where id = ?`,
		l.clock.Now().Unix(), string(status),
		counts.Processed, counts.Failed, counts.Skipped,
		counts.Inserted, counts.Updated, counts.Total,
		counts.Output, message,
		id,
	)
	return err
}

// Latest returns up to limit runs, newest first.
func (l *Ledger) Latest(ctx context.Context, limit int) ([]Run, error) {
	rows, err := l.db.QueryContext(
		ctx,
		`select
			id, kind, started_at, finished_at, status,
			processed, failed, skipped, inserted, updated, total,
			output, error
		from runs
		order by id desc
		limit ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		var kind, status string
		var startedAt int64
		var finishedAt sql.NullInt64
		err = rows.Scan(
			&run.Id, &kind, &startedAt, &finishedAt, &status,
			&run.Processed, &run.Failed, &run.Skipped,
			&run.Inserted, &run.Updated, &run.Total,
			&run.Output, &run.Error,
		)
		if err != nil {
			return nil, err
		}
		run.Kind = Kind(kind)
		run.Status = Status(status)
		run.StartedAt = time.Unix(startedAt, 0).In(timezone.Location)
		if finishedAt.Valid {
			run.FinishedAt = time.Unix(finishedAt.Int64, 0).In(timezone.Location)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
