// internal/app/bootstrap/appconfig.go
package bootstrap

import "github.com/dalemusser/campstaff/internal/app/services/legacymigrate"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS, body limits); this
// struct covers the assignment service itself.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: campstaff-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Legacy migration defaults, shared with cmd/assignmigrate
	MigrationActor      string // update_by recorded on migrated assignments
	SeasonalProjectCode int    // project code with a fixed seasonal window
	SeasonalWindowStart string // MM-DD
	SeasonalWindowEnd   string // MM-DD
}

// MigrationPolicy builds the date policy for year from the seasonal settings.
func (c AppConfig) MigrationPolicy(year int) (legacymigrate.DatePolicy, error) {
	w, err := legacymigrate.WindowFromMonthDay(year, c.SeasonalWindowStart, c.SeasonalWindowEnd)
	if err != nil {
		return legacymigrate.DatePolicy{}, err
	}
	return legacymigrate.DatePolicy{
		Seasonal: map[int]legacymigrate.Window{c.SeasonalProjectCode: w},
	}, nil
}
