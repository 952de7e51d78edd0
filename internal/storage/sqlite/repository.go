package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"article-saver/internal/observability"
	"article-saver/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS exports (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	site        TEXT NOT NULL,
	keyword     TEXT NOT NULL,
	mode        TEXT NOT NULL,
	start_page  INTEGER NOT NULL,
	end_page    INTEGER NOT NULL,
	pages       INTEGER NOT NULL,
	total       INTEGER NOT NULL,
	succeeded   INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	filename    TEXT NOT NULL,
	checksum    TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exports_checksum ON exports(checksum);
CREATE INDEX IF NOT EXISTS idx_exports_site_created ON exports(site, created_at);
`

// Repository keeps the export ledger in a local SQLite file.
type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(dsn string, commandTimeoutMS int, logger *observability.Logger) (*Repository, error) {
	if logger == nil {
		logger = observability.Nop()
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single writer avoids "database is locked" on a file database.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Repository{
		db:             db,
		commandTimeout: time.Duration(commandTimeoutMS) * time.Millisecond,
		logger:         logger,
	}, nil
}

func (r *Repository) SaveExport(ctx context.Context, rec *storage.ExportRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO exports
			(run_id, site, keyword, mode, start_page, end_page, pages,
			 total, succeeded, failed, filename, checksum, created_at)
		VALUES
			(@run_id, @site, @keyword, @mode, @start_page, @end_page, @pages,
			 @total, @succeeded, @failed, @filename, @checksum, @created_at)`,
		sql.Named("run_id", rec.RunID),
		sql.Named("site", rec.Site),
		sql.Named("keyword", rec.Keyword),
		sql.Named("mode", rec.Mode),
		sql.Named("start_page", rec.StartPage),
		sql.Named("end_page", rec.EndPage),
		sql.Named("pages", rec.Pages),
		sql.Named("total", rec.Total),
		sql.Named("succeeded", rec.Succeeded),
		sql.Named("failed", rec.Failed),
		sql.Named("filename", rec.Filename),
		sql.Named("checksum", rec.CheckSum),
		sql.Named("created_at", rec.CreatedAt.UTC()),
	)
	if err != nil {
		return fmt.Errorf("failed to insert export: %w", err)
	}
	return nil
}

func (r *Repository) RecentExports(ctx context.Context, site string, limit int) ([]storage.ExportRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT run_id, site, keyword, mode, start_page, end_page, pages,
		       total, succeeded, failed, filename, checksum, created_at
		FROM exports
		WHERE (@site = '' OR site = @site)
		ORDER BY created_at DESC, id DESC
		LIMIT @limit`,
		sql.Named("site", site),
		sql.Named("limit", limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query database: %w", err)
	}
	defer rows.Close()

	var out []storage.ExportRecord
	for rows.Next() {
		var rec storage.ExportRecord
		if err := rows.Scan(
			&rec.RunID, &rec.Site, &rec.Keyword, &rec.Mode, &rec.StartPage, &rec.EndPage, &rec.Pages,
			&rec.Total, &rec.Succeeded, &rec.Failed, &rec.Filename, &rec.CheckSum, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan export: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repository) ExistsByChecksum(ctx context.Context, checksum string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exports WHERE checksum = @checksum`,
		sql.Named("checksum", checksum)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query database: %w", err)
	}
	return count > 0, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
