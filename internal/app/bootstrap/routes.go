// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	assignmentsfeature "github.com/dalemusser/campstaff/internal/app/features/assignments"
	healthfeature "github.com/dalemusser/campstaff/internal/app/features/health"
	assignmentsvc "github.com/dalemusser/campstaff/internal/app/services/assignments"
	"github.com/dalemusser/campstaff/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// sessionMaxAge is the lifetime of the signed session cookie.
const sessionMaxAge = 12 * time.Hour

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. The session middleware loads the signed-in
// user for every request; the assignment API gates its routes by role.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, sessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoDatabase, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Worker assignments
	svc := assignmentsvc.New(deps.MongoDatabase, logger.Named("assignments"))
	assignHandler := assignmentsfeature.NewHandler(svc, logger)
	r.Mount("/api/assignments", assignmentsfeature.Routes(assignHandler, sessionMgr))

	return r, nil
}
