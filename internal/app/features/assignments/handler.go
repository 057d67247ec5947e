// internal/app/features/assignments/handler.go
package assignments

import (
	assignmentsvc "github.com/dalemusser/campstaff/internal/app/services/assignments"
	"go.uber.org/zap"
)

// Handler exposes the assignment service as a JSON API. It holds no state of
// its own; every rule lives in the service.
type Handler struct {
	Svc *assignmentsvc.Service
	Log *zap.Logger
}

// NewHandler constructs an assignments Handler.
func NewHandler(svc *assignmentsvc.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Svc: svc,
		Log: logger,
	}
}
