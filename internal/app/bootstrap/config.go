// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/campstaff/internal/app/services/legacymigrate"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvPrefix is the environment variable prefix for app keys
// (CAMPSTAFF_MONGO_URI, CAMPSTAFF_SESSION_KEY, ...).
const EnvPrefix = "CAMPSTAFF"

// appConfigKeys defines the configuration keys for the assignment service.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: CAMPSTAFF_MONGO_URI, CAMPSTAFF_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "campstaff", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "campstaff-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Legacy migration
	{Name: "migration_actor", Default: legacymigrate.DefaultActor, Desc: "update_by recorded on migrated assignments"},
	{Name: "seasonal_project_code", Default: legacymigrate.SummerCampProject, Desc: "Project code with a fixed seasonal window"},
	{Name: "seasonal_window_start", Default: "07-01", Desc: "Seasonal window start (MM-DD)"},
	{Name: "seasonal_window_end", Default: "08-31", Desc: "Seasonal window end (MM-DD)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, CAMPSTAFF_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	return coreCfg, appConfigFrom(appValues), nil
}

// appConfigFrom maps loaded key values onto AppConfig.
func appConfigFrom(appValues config.AppConfigValues) AppConfig {
	return AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),

		MigrationActor:      appValues.String("migration_actor"),
		SeasonalProjectCode: appValues.Int("seasonal_project_code"),
		SeasonalWindowStart: appValues.String("seasonal_window_start"),
		SeasonalWindowEnd:   appValues.String("seasonal_window_end"),
	}
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI format is checked before any connection attempt, and the
// seasonal window must parse so the migration tool cannot start with a
// broken policy.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must be set")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}
	if appCfg.SeasonalProjectCode <= 0 {
		return fmt.Errorf("seasonal_project_code must be greater than 0")
	}
	if _, err := appCfg.MigrationPolicy(time.Now().UTC().Year()); err != nil {
		return fmt.Errorf("invalid seasonal window: %w", err)
	}
	return nil
}
