package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/clinic-scheduler/internal/application"
)

type occupancyService interface {
	Aggregate(ctx context.Context) ([]application.OccupancyRecord, error)
}

// OccupancyHandler serves the per-professional occupancy report.
type OccupancyHandler struct {
	service   occupancyService
	responder responder
	logger    *slog.Logger
}

func NewOccupancyHandler(service occupancyService, logger *slog.Logger) *OccupancyHandler {
	base := defaultLogger(logger)
	return &OccupancyHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *OccupancyHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	records, err := h.service.Aggregate(r.Context())
	if err != nil {
		handlerLogger(r.Context(), h.logger, "OccupancyHandler", "Get").
			ErrorContext(r.Context(), "occupancy report failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]occupancyDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, occupancyDTO{
			ProfessionalID:       rec.ProfessionalID,
			ProfessionalName:     rec.ProfessionalName,
			TotalSessionMinutes:  rec.TotalSessionMinutes,
			SessionCount:         rec.SessionCount,
			DistinctPatientCount: rec.DistinctPatientCount,
			TherapyName:          rec.TherapyName,
			OccupationHours:      rec.OccupationHours,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, occupancyResponse{Professionals: out})
}

type occupancyResponse struct {
	Professionals []occupancyDTO `json:"professionals"`
}

type occupancyDTO struct {
	ProfessionalID       string  `json:"professional_id"`
	ProfessionalName     string  `json:"professional_name"`
	TotalSessionMinutes  int     `json:"total_session_minutes"`
	SessionCount         int     `json:"session_count"`
	DistinctPatientCount int     `json:"distinct_patient_count"`
	TherapyName          string  `json:"therapy_name"`
	OccupationHours      float64 `json:"occupation_hours"`
}
