// internal/app/features/assignments/create.go
package assignments

import (
	"net/http"

	assignmentsvc "github.com/dalemusser/campstaff/internal/app/services/assignments"
	"github.com/dalemusser/campstaff/internal/app/system/timeouts"
	"github.com/dalemusser/campstaff/internal/domain/models"
)

type createRequest struct {
	WorkerID    string  `json:"worker_id"`
	ClassID     string  `json:"class_id"`
	ProjectCode int     `json:"project_code"`
	RoleName    string  `json:"role_name"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Notes       string  `json:"notes"`
}

func (req createRequest) input(updateBy string) (assignmentsvc.CreateInput, error) {
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return assignmentsvc.CreateInput{}, err
	}
	end, err := parseDatePtr("end_date", req.EndDate)
	if err != nil {
		return assignmentsvc.CreateInput{}, err
	}
	return assignmentsvc.CreateInput{
		WorkerID:    req.WorkerID,
		ClassID:     req.ClassID,
		ProjectCode: req.ProjectCode,
		RoleName:    req.RoleName,
		StartDate:   start,
		EndDate:     end,
		Notes:       req.Notes,
		UpdateBy:    updateBy,
	}, nil
}

// HandleCreate handles POST /api/assignments.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, "create", err)
		return
	}
	in, err := req.input(actor(r))
	if err != nil {
		h.writeError(w, "create", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "assignment create")
	defer cancel()

	a, err := h.Svc.CreateAssignment(ctx, in)
	if err != nil {
		h.writeError(w, "create", err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

type batchRequest struct {
	Assignments []createRequest `json:"assignments"`
}

type batchResponse struct {
	Count       int                       `json:"count"`
	Assignments []models.WorkerAssignment `json:"assignments"`
}

// HandleBatch handles POST /api/assignments/batch. Invalid or conflicting
// input rejects the whole batch before anything is written. On a server
// without transactions a concurrent duplicate can still stop the insert
// partway; the 409 body then lists the written items under "persisted".
func (h *Handler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, "batch create", err)
		return
	}

	by := actor(r)
	items := make([]assignmentsvc.CreateInput, 0, len(req.Assignments))
	for i, item := range req.Assignments {
		in, err := item.input(by)
		if err != nil {
			if ve, ok := err.(*assignmentsvc.ValidationError); ok {
				idx := i
				ve.Index = &idx
			}
			h.writeError(w, "batch create", err)
			return
		}
		items = append(items, in)
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "assignment batch create")
	defer cancel()

	created, err := h.Svc.CreateMultipleAssignments(ctx, items, by)
	if err != nil {
		h.writeError(w, "batch create", err)
		return
	}
	writeJSON(w, http.StatusCreated, batchResponse{Count: len(created), Assignments: created})
}
