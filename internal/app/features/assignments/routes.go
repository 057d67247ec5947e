// internal/app/features/assignments/routes.go
package assignments

import (
	"github.com/dalemusser/campstaff/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the assignment API. Every route needs a signed-in user.
// Reads are open to admins and coordinators; every write and the
// maintenance views are admin only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Group(func(rr chi.Router) {
		rr.Use(sm.RequireRole("admin", "coordinator"))

		rr.Get("/check", h.ServeCheck)
		rr.Get("/active", h.ServeActiveOn)

		rr.Get("/workers/{workerID}", h.ServeWorker)
		rr.Get("/workers/{workerID}/history", h.ServeWorkerHistory)
		rr.Get("/classes/{classID}", h.ServeClass)
		rr.Get("/classes/{classID}/history", h.ServeClassHistory)
		rr.Get("/projects/{code}", h.ServeProject)

		rr.Get("/{id}", h.ServeGet)
	})

	r.Group(func(ar chi.Router) {
		ar.Use(sm.RequireRole("admin"))

		ar.Post("/", h.HandleCreate)
		ar.Post("/batch", h.HandleBatch)

		ar.Get("/flagged", h.ServeFlagged)
		ar.Get("/lapsed", h.ServeLapsed)
		ar.Get("/stats", h.ServeStats)

		ar.Patch("/{id}", h.HandleUpdate)
		ar.Post("/{id}/end", h.HandleEnd)
		ar.Delete("/{id}", h.HandleDelete)
	})

	return r
}
