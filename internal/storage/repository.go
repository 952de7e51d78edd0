package storage

import (
	"context"
	"time"
)

const (
	ModeBatch   = "batch"
	ModeArticle = "article"
)

// ExportRecord is one finished export in the ledger. Article content is never stored.
type ExportRecord struct {
	RunID     string
	Site      string
	Keyword   string
	Mode      string
	StartPage int
	EndPage   int
	Pages     int
	Total     int
	Succeeded int
	Failed    int
	Filename  string
	// CheckSum is the SHA256 of the exported article set.
	CheckSum  string
	CreatedAt time.Time
}

// Repository is the export ledger.
type Repository interface {
	// SaveExport appends a record.
	SaveExport(ctx context.Context, rec *ExportRecord) error

	// RecentExports lists the newest records first; an empty site lists all sites.
	RecentExports(ctx context.Context, site string, limit int) ([]ExportRecord, error)

	// ExistsByChecksum reports whether the same article set was exported before.
	ExistsByChecksum(ctx context.Context, checksum string) (bool, error)

	Close() error
}
