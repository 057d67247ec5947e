// internal/app/features/assignments/lifecycle.go
package assignments

import (
	"net/http"

	assignmentsvc "github.com/dalemusser/campstaff/internal/app/services/assignments"
	"github.com/dalemusser/campstaff/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

type updateRequest struct {
	WorkerID     *string `json:"worker_id"`
	ClassID      *string `json:"class_id"`
	ProjectCode  *int    `json:"project_code"`
	RoleName     *string `json:"role_name"`
	StartDate    *string `json:"start_date"`
	EndDate      *string `json:"end_date"`
	ClearEndDate bool    `json:"clear_end_date"`
	Notes        *string `json:"notes"`
}

// HandleUpdate handles PATCH /api/assignments/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, "update", err)
		return
	}
	start, err := parseDatePtr("start_date", req.StartDate)
	if err != nil {
		h.writeError(w, "update", err)
		return
	}
	end, err := parseDatePtr("end_date", req.EndDate)
	if err != nil {
		h.writeError(w, "update", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "assignment update")
	defer cancel()

	a, err := h.Svc.UpdateAssignment(ctx, chi.URLParam(r, "id"), assignmentsvc.UpdateInput{
		WorkerID:     req.WorkerID,
		ClassID:      req.ClassID,
		ProjectCode:  req.ProjectCode,
		RoleName:     req.RoleName,
		StartDate:    start,
		EndDate:      end,
		ClearEndDate: req.ClearEndDate,
		Notes:        req.Notes,
		UpdateBy:     actor(r),
	})
	if err != nil {
		h.writeError(w, "update", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type endRequest struct {
	EndDate string `json:"end_date"`
}

// HandleEnd handles POST /api/assignments/{id}/end.
func (h *Handler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	var req endRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, "end", err)
		return
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		h.writeError(w, "end", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "assignment end")
	defer cancel()

	a, err := h.Svc.EndAssignment(ctx, chi.URLParam(r, "id"), end, actor(r))
	if err != nil {
		h.writeError(w, "end", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleDelete handles DELETE /api/assignments/{id}. Deleting erases history;
// ending is the normal way to close an assignment.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "assignment delete")
	defer cancel()

	if err := h.Svc.DeleteAssignment(ctx, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
