package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/clinic-scheduler/internal/application"
)

type professionalService interface {
	CreateProfessional(ctx context.Context, input application.ProfessionalInput) (application.Professional, error)
	UpdateProfessional(ctx context.Context, id string, input application.ProfessionalInput) (application.Professional, error)
	ListProfessionals(ctx context.Context, opts application.ListOptions) ([]application.Professional, error)
	DeleteProfessional(ctx context.Context, id string) error
}

type ProfessionalHandler struct {
	service   professionalService
	responder responder
	logger    *slog.Logger
}

func NewProfessionalHandler(service professionalService, logger *slog.Logger) *ProfessionalHandler {
	base := defaultLogger(logger)
	return &ProfessionalHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ProfessionalHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	opts, vErr := listOptions(r)
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}
	professionals, err := h.service.ListProfessionals(r.Context(), opts)
	if err != nil {
		handlerLogger(r.Context(), h.logger, "ProfessionalHandler", "List").
			ErrorContext(r.Context(), "professional list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listProfessionalsResponse{Professionals: toProfessionalDTOs(professionals)})
}

func (h *ProfessionalHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var input application.ProfessionalInput
	if err := decodeJSON(r, &input); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	professional, err := h.service.CreateProfessional(r.Context(), input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, professionalResponse{Professional: toProfessionalDTO(professional)})
}

func (h *ProfessionalHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	var input application.ProfessionalInput
	if err := decodeJSON(r, &input); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	professional, err := h.service.UpdateProfessional(r.Context(), id, input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, professionalResponse{Professional: toProfessionalDTO(professional)})
}

func (h *ProfessionalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	if err := h.service.DeleteProfessional(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type professionalResponse struct {
	Professional professionalDTO `json:"professional"`
}

type listProfessionalsResponse struct {
	Professionals []professionalDTO `json:"professionals"`
}

type professionalDTO struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	TherapyTypeID string  `json:"therapy_type_id"`
	TherapyName   string  `json:"therapy_name,omitempty"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func toProfessionalDTO(p application.Professional) professionalDTO {
	return professionalDTO{
		ID:            p.ID,
		Name:          p.Name,
		TherapyTypeID: p.TherapyTypeID,
		TherapyName:   p.TherapyName,
		Email:         p.Email,
		Phone:         p.Phone,
		CreatedAt:     formatTimestamp(p.CreatedAt),
		UpdatedAt:     formatTimestamp(p.UpdatedAt),
	}
}

func toProfessionalDTOs(professionals []application.Professional) []professionalDTO {
	out := make([]professionalDTO, 0, len(professionals))
	for _, p := range professionals {
		out = append(out, toProfessionalDTO(p))
	}
	return out
}
