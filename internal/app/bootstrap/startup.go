// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/campstaff/internal/app/system/indexes"
	"github.com/dalemusser/campstaff/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	t := timeouts.Current()
	logger.Info("request timeouts",
		zap.Duration("short", t.Short),
		zap.Duration("medium", t.Medium),
		zap.Duration("long", t.Long),
		zap.Duration("batch", t.Batch))

	ok, err := indexes.HasActiveTripleIndex(ctx, deps.MongoDatabase)
	if err != nil {
		return err
	}
	if !ok {
		logger.Warn("active assignment index missing; concurrent creates are not guarded",
			zap.String("index", indexes.ActiveTripleIndex))
	}
	return nil
}
