package migrate

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/farmstand-backend/pkg/config"
	"github.com/angelmondragon/farmstand-backend/pkg/db"
	"github.com/angelmondragon/farmstand-backend/pkg/logger"
)

// shouldAutoRun is true for local sqlite catalogs, which start empty, and for dev
// postgres when FARMSTAND_AUTO_MIGRATE is set. Production schema changes go through
// cmd/migrate only.
func shouldAutoRun(cfg *config.Config) bool {
	if cfg == nil {
		return false
	}
	if cfg.FeatureFlags.UseSQLite {
		return true
	}
	return cfg.App.IsDev() && cfg.FeatureFlags.AutoMigrate
}

// MaybeRunDev brings the catalog schema up to date on startup when shouldAutoRun allows.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !shouldAutoRun(cfg) {
		return nil
	}
	if err := ValidateEmbedded(); err != nil {
		return fmt.Errorf("embedded migrations: %w", err)
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	dialect := client.Dialect()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dialect": dialect})
	logg.Info(ctx, "migrate.autorun.start")

	if err := Run(ctx, sqlDB, dialect, "up"); err != nil {
		return err
	}
	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logg.Info(logg.WithField(ctx, "schema_version", version), "migrate.autorun.complete")
	return nil
}
