// internal/app/features/health/routes.go
package health

import "github.com/go-chi/chi/v5"

// Routes serves the health report at the mount point (/health). HEAD is
// answered too so load balancers can check liveness without a body.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	r.Head("/", h.Serve)
	return r
}
