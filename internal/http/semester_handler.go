package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/semester"
)

type semesterService interface {
	Status(ctx context.Context) (application.SemesterReport, error)
}

// SemesterHandler serves the semester banner status.
type SemesterHandler struct {
	service   semesterService
	responder responder
}

func NewSemesterHandler(service semesterService, logger *slog.Logger) *SemesterHandler {
	return &SemesterHandler{service: service, responder: newResponder(logger)}
}

func (h *SemesterHandler) Status(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	report, err := h.service.Status(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, semesterStatusResponse{
		Status: report.Status,
		State:  report.State,
	})
}

type semesterStatusResponse struct {
	semester.Status
	State semester.State `json:"state"`
}
