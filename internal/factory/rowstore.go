package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Fau-Caudullo/happyapp/internal/config"
	"github.com/Fau-Caudullo/happyapp/internal/rowstore"
	"github.com/Fau-Caudullo/happyapp/internal/rowstore/postgrest"
	rowsqlite "github.com/Fau-Caudullo/happyapp/internal/rowstore/sqlite"
)

// NewRowStore returns the rowstore.Store selected by cfg.RowStoreDriver.
// The PostgREST client is pinged asynchronously; startup does not wait on it.
func NewRowStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (rowstore.Store, error) {
	switch cfg.RowStoreDriver {
	case "sqlite":
		st, err := rowsqlite.Open(ctx, cfg.RowStoreSQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite row store: %w", err)
		}
		return st, nil

	case "postgrest":
		if cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "" {
			return nil, fmt.Errorf("supabase URL and anon key are required when ROWSTORE_DRIVER=postgrest")
		}
		c := postgrest.New(postgrest.Options{
			BaseURL:    cfg.SupabaseURL,
			APIKey:     cfg.SupabaseAnonKey,
			MaxRetries: cfg.RowStoreMaxRetries,
		}, log)

		go func() {
			warmupTimeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
			warmupCtx, cancel := context.WithTimeout(ctx, warmupTimeout)
			defer cancel()

			if err := c.HealthPing(warmupCtx); err != nil {
				log.Warn().Err(err).Str("url", cfg.SupabaseURL).Msg("row store warmup failed")
			} else {
				log.Debug().Str("url", cfg.SupabaseURL).Msg("row store warmup completed")
			}
		}()
		return c, nil

	default:
		return nil, fmt.Errorf("unknown ROWSTORE_DRIVER: %s", cfg.RowStoreDriver)
	}
}
