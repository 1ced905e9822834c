package publish

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/backmassage/cbzscan/internal/report"
)

const schema = `
CREATE TABLE IF NOT EXISTS scan_runs (
	id              text PRIMARY KEY,
	tool_version    text NOT NULL,
	root            text NOT NULL,
	started_at      timestamptz NOT NULL,
	finished_at     timestamptz NOT NULL,
	archives        integer NOT NULL,
	entries_checked integer NOT NULL,
	bytes_checked   bigint NOT NULL,
	archive_errors  integer NOT NULL,
	unreadable      integer NOT NULL,
	corrupted       integer NOT NULL
);
CREATE TABLE IF NOT EXISTS scan_diagnostics (
	run_id  text NOT NULL REFERENCES scan_runs(id) ON DELETE CASCADE,
	seq     integer NOT NULL,
	kind    text NOT NULL,
	archive text NOT NULL,
	entry   text NOT NULL,
	detail  text NOT NULL,
	class   text NOT NULL,
	PRIMARY KEY (run_id, seq)
);`

var diagnosticColumns = []string{"run_id", "seq", "kind", "archive", "entry", "detail", "class"}

// PostgresRecorder appends finished runs to the scan_runs and
// scan_diagnostics tables.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder connects to url, pings, and ensures the schema exists.
func NewPostgresRecorder(ctx context.Context, url string) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	r := &PostgresRecorder{pool: pool}
	if err := r.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := r.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

func (r *PostgresRecorder) Name() string { return "postgres" }

// Ping checks connectivity.
func (r *PostgresRecorder) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// EnsureSchema creates the history tables if they are missing.
func (r *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Publish inserts the run row and bulk-loads its diagnostics in one
// transaction.
func (r *PostgresRecorder) Publish(ctx context.Context, run *Run) error {
	doc := run.Doc
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	s := doc.Summary
	_, err = tx.Exec(ctx, `
		INSERT INTO scan_runs (id, tool_version, root, started_at, finished_at,
			archives, entries_checked, bytes_checked, archive_errors, unreadable, corrupted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, doc.RunID, doc.ToolVersion, doc.Root, doc.StartedAt, doc.FinishedAt,
		s.Archives, s.EntriesChecked, int64(s.BytesChecked), s.ArchiveErrors, s.Unreadable, s.Corrupted)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(doc.Diagnostics) > 0 {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"scan_diagnostics"}, diagnosticColumns,
			pgx.CopyFromRows(diagnosticRows(doc.RunID, doc.Diagnostics)))
		if err != nil {
			return fmt.Errorf("copy diagnostics: %w", err)
		}
		if int(n) != len(doc.Diagnostics) {
			return fmt.Errorf("copy diagnostics: wrote %d of %d rows", n, len(doc.Diagnostics))
		}
	}
	return tx.Commit(ctx)
}

func (r *PostgresRecorder) Close() error {
	r.pool.Close()
	return nil
}

// diagnosticRows flattens diags into COPY rows matching diagnosticColumns.
// seq preserves report order.
func diagnosticRows(runID string, diags []report.Diagnostic) [][]any {
	rows := make([][]any, len(diags))
	for i, d := range diags {
		rows[i] = []any{runID, int32(i), d.Kind.String(), d.Archive, d.Entry, d.Detail, string(d.Class)}
	}
	return rows
}
