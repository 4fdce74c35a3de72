package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Fau-Caudullo/happyapp/internal/blob"
	blobpg "github.com/Fau-Caudullo/happyapp/internal/blob/postgres"
	blobsqlite "github.com/Fau-Caudullo/happyapp/internal/blob/sqlite"
	"github.com/Fau-Caudullo/happyapp/internal/config"
)

// NewBlobStore returns the blob.Store selected by cfg.BlobDriver.
// Postgres is pinged and its schema created before the store is returned.
func NewBlobStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (blob.Store, error) {
	switch cfg.BlobDriver {
	case "memory":
		log.Warn().Msg("blob store is in memory; day bundles are lost on exit")
		return blob.NewMemory(), nil

	case "sqlite":
		db, err := blobsqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite blob store: %w", err)
		}
		st, err := blobsqlite.New(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return st, nil

	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("HAPPYAPP_POSTGRES_DSN is required when BLOB_DRIVER=postgres")
		}
		// Open pings synchronously, so health checks can use the store immediately.
		db, err := blobpg.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres blob store: %w", err)
		}
		initCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.BootstrapTimeoutSeconds)*time.Second)
		defer cancel()
		st, err := blobpg.New(initCtx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Debug().Str("driver", cfg.BlobDriver).Msg("blob store ready")
		return st, nil

	default:
		return nil, fmt.Errorf("unknown BLOB_DRIVER: %s", cfg.BlobDriver)
	}
}
