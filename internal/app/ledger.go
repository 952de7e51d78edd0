package app

import (
	"fmt"

	"article-saver/internal/config"
	"article-saver/internal/observability"
	"article-saver/internal/storage"
	"article-saver/internal/storage/mssql"
	"article-saver/internal/storage/sqlite"
)

// OpenLedger connects the export ledger named by storage.driver. It returns a
// nil Repository when the ledger is disabled.
func OpenLedger(cfg *config.Config, logger *observability.Logger) (storage.Repository, error) {
	switch cfg.Storage.Driver {
	case "", config.DriverNone:
		return nil, nil
	case config.DriverMSSQL:
		repo, err := mssql.NewRepository(cfg.Storage.DSN, cfg.Storage.CommandTimeoutMS, logger.With("component", "ledger"))
		if err != nil {
			return nil, fmt.Errorf("failed to open mssql ledger: %w", err)
		}
		return repo, nil
	case config.DriverSQLite:
		repo, err := sqlite.NewRepository(cfg.Storage.DSN, cfg.Storage.CommandTimeoutMS, logger.With("component", "ledger"))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite ledger: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
