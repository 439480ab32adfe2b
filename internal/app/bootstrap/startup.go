// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	userstore "github.com/dalemusser/clubsphere/internal/app/store/users"
	"github.com/dalemusser/clubsphere/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	if appCfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, logger); err != nil {
			return err
		}
	}
	return nil
}

// ensureAdmin creates or promotes the configured admin user.
func ensureAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	changed, err := userstore.New(deps.MongoDatabase).EnsureAdmin(ctx, email)
	if err != nil {
		logger.Error("admin bootstrap failed", zap.String("email", email), zap.Error(err))
		return err
	}
	if changed {
		logger.Info("admin user ensured", zap.String("email", email))
	}
	return nil
}
