// internal/app/features/assignments/respond.go
package assignments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	assignmentsvc "github.com/dalemusser/campstaff/internal/app/services/assignments"
	"github.com/dalemusser/campstaff/internal/app/system/auth"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// maxBodyBytes bounds request bodies; a full batch stays well under it.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error      string   `json:"error"`
	Field      string   `json:"field,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	Index      *int     `json:"index,omitempty"`
	Kind       string   `json:"kind,omitempty"`
	ID         string   `json:"id,omitempty"`
	ExistingID string   `json:"existing_id,omitempty"`
	Persisted  []string `json:"persisted,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto status codes. Anything untyped is a 500
// and is logged with the operation name.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	var (
		ve *assignmentsvc.ValidationError
		ne *assignmentsvc.NotFoundError
		ce *assignmentsvc.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error: "validation", Field: ve.Field, Reason: ve.Reason, Index: ve.Index,
		})
	case errors.As(err, &ne):
		writeJSON(w, http.StatusNotFound, errorBody{
			Error: "not_found", Kind: ne.Kind, ID: ne.ID,
		})
	case errors.As(err, &ce):
		body := errorBody{Error: "conflict", Reason: ce.Reason}
		if !ce.ExistingID.IsZero() {
			body.ExistingID = ce.ExistingID.Hex()
		}
		for _, id := range ce.Persisted {
			body.Persisted = append(body.Persisted, id.Hex())
		}
		writeJSON(w, http.StatusConflict, body)
	default:
		h.Log.Error("assignment request failed", zap.String("op", op), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal"})
	}
}

func badField(field, reason string) error {
	return &assignmentsvc.ValidationError{Field: field, Reason: reason}
}

// decode reads a JSON body, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badField("body", "malformed JSON: "+err.Error())
	}
	return nil
}

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, badField(field, field+" must be a date in YYYY-MM-DD form")
	}
	return t, nil
}

func parseDatePtr(field string, s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := parseDate(field, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// activeOnly reads the optional ?active= flag.
func activeOnly(r *http.Request) (bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get("active"))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, badField("active", "active must be true or false")
	}
	return b, nil
}

func parseProject(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, badField("project_code", "project_code must be an integer")
	}
	return n, nil
}

// actor is the update_by value for writes made by the signed-in user.
func actor(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return u.Actor()
	}
	return ""
}
