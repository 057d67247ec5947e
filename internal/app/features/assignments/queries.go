// internal/app/features/assignments/queries.go
package assignments

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/campstaff/internal/app/system/timeouts"
	"github.com/dalemusser/campstaff/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type listResponse struct {
	Count       int                     `json:"count"`
	Assignments []models.AssignmentView `json:"assignments"`
}

// serveList runs a list query under the Medium budget and writes the result.
func (h *Handler) serveList(w http.ResponseWriter, r *http.Request, op string, q func(context.Context) ([]models.AssignmentView, error)) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, op)
	defer cancel()

	views, err := q(ctx)
	if err != nil {
		h.writeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Count: len(views), Assignments: views})
}

// ServeGet handles GET /api/assignments/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "assignment get")
	defer cancel()

	v, err := h.Svc.GetAssignment(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type checkResponse struct {
	Active     bool                     `json:"active"`
	Assignment *models.WorkerAssignment `json:"assignment,omitempty"`
}

// ServeCheck handles GET /api/assignments/check?worker_id&class_id&project_code.
func (h *Handler) ServeCheck(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	project, err := parseProject(q.Get("project_code"))
	if err != nil {
		h.writeError(w, "check", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "assignment check")
	defer cancel()

	a, err := h.Svc.CheckActiveAssignment(ctx, q.Get("worker_id"), q.Get("class_id"), project)
	if err != nil {
		h.writeError(w, "check", err)
		return
	}
	writeJSON(w, http.StatusOK, checkResponse{Active: a != nil, Assignment: a})
}

// ServeActiveOn handles GET /api/assignments/active?date=YYYY-MM-DD.
// The date defaults to today (UTC).
func (h *Handler) ServeActiveOn(w http.ResponseWriter, r *http.Request) {
	day := time.Now().UTC()
	if s := strings.TrimSpace(r.URL.Query().Get("date")); s != "" {
		d, err := parseDate("date", s)
		if err != nil {
			h.writeError(w, "active on date", err)
			return
		}
		day = d
	}
	h.serveList(w, r, "active on date", func(ctx context.Context) ([]models.AssignmentView, error) {
		return h.Svc.GetActiveAssignmentsOnDate(ctx, day)
	})
}

// ServeFlagged handles GET /api/assignments/flagged.
func (h *Handler) ServeFlagged(w http.ResponseWriter, r *http.Request) {
	h.serveList(w, r, "flagged active", h.Svc.GetFlaggedActive)
}

// ServeLapsed handles GET /api/assignments/lapsed?as_of=YYYY-MM-DD: active
// assignments whose end date has passed without anyone ending them.
func (h *Handler) ServeLapsed(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now().UTC()
	if s := strings.TrimSpace(r.URL.Query().Get("as_of")); s != "" {
		d, err := parseDate("as_of", s)
		if err != nil {
			h.writeError(w, "lapsed", err)
			return
		}
		asOf = d
	}
	h.serveList(w, r, "lapsed", func(ctx context.Context) ([]models.AssignmentView, error) {
		return h.Svc.GetLapsedActive(ctx, asOf)
	})
}

// ServeStats handles GET /api/assignments/stats.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "assignment stats")
	defer cancel()

	sum, err := h.Svc.Summary(ctx)
	if err != nil {
		h.writeError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// ServeWorker handles GET /api/assignments/workers/{workerID}?active=.
func (h *Handler) ServeWorker(w http.ResponseWriter, r *http.Request) {
	active, err := activeOnly(r)
	if err != nil {
		h.writeError(w, "worker assignments", err)
		return
	}
	id := chi.URLParam(r, "workerID")
	h.serveList(w, r, "worker assignments", func(ctx context.Context) ([]models.AssignmentView, error) {
		return h.Svc.GetWorkerAssignments(ctx, id, active)
	})
}

// ServeWorkerHistory handles GET /api/assignments/workers/{workerID}/history.
func (h *Handler) ServeWorkerHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "workerID")
	h.serveList(w, r, "worker history", func(ctx context.Context) ([]models.AssignmentView, error) {
		return h.Svc.GetWorkerHistory(ctx, id)
	})
}

// ServeClass handles GET /api/assignments/classes/{classID}?active=.
func (h *Handler) ServeClass(w http.ResponseWriter, r *http.Request) {
	active, err := activeOnly(r)
	if err != nil {
		h.writeError(w, "class assignments", err)
		return
	}
	id := chi.URLParam(r, "classID")
	h.serveList(w, r, "class assignments", func(ctx context.Context) ([]models.AssignmentView, error) {
		return h.Svc.GetClassAssignments(ctx, id, active)
	})
}

// ServeClassHistory handles GET /api/assignments/classes/{classID}/history.
func (h *Handler) ServeClassHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "classID")
	h.serveList(w, r, "class history", func(ctx context.Context) ([]models.AssignmentView, error) {
		return h.Svc.GetClassHistory(ctx, id)
	})
}

// ServeProject handles GET /api/assignments/projects/{code}?active=.
func (h *Handler) ServeProject(w http.ResponseWriter, r *http.Request) {
	code, err := parseProject(chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, "project assignments", err)
		return
	}
	active, err := activeOnly(r)
	if err != nil {
		h.writeError(w, "project assignments", err)
		return
	}
	h.serveList(w, r, "project assignments", func(ctx context.Context) ([]models.AssignmentView, error) {
		return h.Svc.GetProjectAssignments(ctx, code, active)
	})
}
