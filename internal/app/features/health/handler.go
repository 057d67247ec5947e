package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/campstaff/internal/app/system/indexes"
	"github.com/dalemusser/campstaff/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

// NewHandler constructs a health Handler with the database and logger.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:  db,
		Log: logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	UniqueIndex string `json:"unique_index,omitempty"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "unique_index":"present" }
//
// A missing active-assignment index is reported as "degraded" (still 200).
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.DB.Client().Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	ok, err := indexes.HasActiveTripleIndex(ctx, h.DB)
	switch {
	case err != nil:
		h.Log.Warn("health-check: index lookup failed", zap.Error(err))
		resp.UniqueIndex = "unknown"
	case ok:
		resp.UniqueIndex = "present"
	default:
		resp.Status = "degraded"
		resp.UniqueIndex = "missing"
	}

	_ = json.NewEncoder(w).Encode(resp)
}
