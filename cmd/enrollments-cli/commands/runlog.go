package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"enrollments-backend/internal/runlog"
)

// ledgerRun records one command in the run ledger. Ledger failures are
// logged and never fail the command itself.
type ledgerRun struct {
	ledger *runlog.Ledger
	id     int64
}

func openLedger(ctx context.Context) (*runlog.Ledger, func(), error) {
	if cfg.RunLog != ":memory:" && !strings.HasPrefix(cfg.RunLog, "libsql://") {
		err := os.MkdirAll(filepath.Dir(cfg.RunLog), 0777)
		if err != nil {
			return nil, nil, err
		}
	}
	db, err := runlog.Open(cfg.RunLog)
	if err != nil {
		return nil, nil, err
	}
	ledger, err := runlog.New(ctx, db, nil)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return ledger, func() { db.Close() }, nil
}

func startRun(ctx context.Context, kind runlog.Kind) (ledgerRun, func()) {
	if cfg.RunLog == "" {
		return ledgerRun{}, func() {}
	}
	ledger, closeLedger, err := openLedger(ctx)
	if err != nil {
		slog.WarnContext(ctx, "run ledger unavailable", "path", cfg.RunLog, "err", err)
		return ledgerRun{}, func() {}
	}
	id, err := ledger.Start(ctx, kind)
	if err != nil {
		slog.WarnContext(ctx, "failed to record run start", "err", err)
		return ledgerRun{}, closeLedger
	}
	return ledgerRun{ledger: ledger, id: id}, closeLedger
}

func (r ledgerRun) finish(counts runlog.Counts, runErr error) {
	if r.ledger == nil {
		return
	}
	// the command context may already be cancelled
	err := r.ledger.Finish(context.Background(), r.id, counts, runErr)
	if err != nil {
		slog.Warn("failed to record run result", "err", err)
	}
}
