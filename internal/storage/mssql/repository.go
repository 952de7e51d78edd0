package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"article-saver/internal/observability"
	"article-saver/internal/storage"
)

const schema = `
IF OBJECT_ID(N'TblExports', N'U') IS NULL
CREATE TABLE TblExports (
	[UID]        INT IDENTITY(1,1) PRIMARY KEY,
	[RunID]      NVARCHAR(36)  NOT NULL,
	[Site]       NVARCHAR(64)  NOT NULL,
	[Keyword]    NVARCHAR(256) NOT NULL,
	[Mode]       NVARCHAR(16)  NOT NULL,
	[StartPage]  INT NOT NULL,
	[EndPage]    INT NOT NULL,
	[Pages]      INT NOT NULL,
	[Total]      INT NOT NULL,
	[Succeeded]  INT NOT NULL,
	[Failed]     INT NOT NULL,
	[Filename]   NVARCHAR(512) NOT NULL,
	[CheckSum]   CHAR(64) NOT NULL,
	[CreatedAt]  DATETIME2 NOT NULL
);
`

type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

func NewRepository(dsn string, commandTimeoutMS int, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

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

	query := `
		INSERT INTO TblExports
			([RunID], [Site], [Keyword], [Mode], [StartPage], [EndPage], [Pages],
			 [Total], [Succeeded], [Failed], [Filename], [CheckSum], [CreatedAt])
		VALUES
			(@RunID, @Site, @Keyword, @Mode, @StartPage, @EndPage, @Pages,
			 @Total, @Succeeded, @Failed, @Filename, @CheckSum, @CreatedAt);
	`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	_, err = stmt.ExecContext(ctx,
		sql.Named("RunID", rec.RunID),
		sql.Named("Site", rec.Site),
		sql.Named("Keyword", rec.Keyword),
		sql.Named("Mode", rec.Mode),
		sql.Named("StartPage", rec.StartPage),
		sql.Named("EndPage", rec.EndPage),
		sql.Named("Pages", rec.Pages),
		sql.Named("Total", rec.Total),
		sql.Named("Succeeded", rec.Succeeded),
		sql.Named("Failed", rec.Failed),
		sql.Named("Filename", rec.Filename),
		sql.Named("CheckSum", rec.CheckSum),
		sql.Named("CreatedAt", rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert export: %w", err)
	}

	return nil
}

func (r *Repository) RecentExports(ctx context.Context, site string, limit int) ([]storage.ExportRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `
		SELECT TOP (@Limit)
			[RunID], [Site], [Keyword], [Mode], [StartPage], [EndPage], [Pages],
			[Total], [Succeeded], [Failed], [Filename], [CheckSum], [CreatedAt]
		FROM TblExports
		WHERE (@Site = N'' OR [Site] = @Site)
		ORDER BY [CreatedAt] DESC, [UID] DESC
	`

	rows, err := r.db.QueryContext(ctx, query, sql.Named("Limit", limit), sql.Named("Site", site))
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

	query := `SELECT COUNT(*) FROM TblExports WHERE [CheckSum] = @CheckSum`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return false, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	var count int
	if err := stmt.QueryRowContext(ctx, sql.Named("CheckSum", checksum)).Scan(&count); err != nil {
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
