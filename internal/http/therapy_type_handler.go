package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/clinic-scheduler/internal/application"
)

type therapyTypeService interface {
	CreateTherapyType(ctx context.Context, input application.TherapyTypeInput) (application.TherapyType, error)
	UpdateTherapyType(ctx context.Context, id string, input application.TherapyTypeInput) (application.TherapyType, error)
	ListTherapyTypes(ctx context.Context, opts application.ListOptions) ([]application.TherapyType, error)
	DeleteTherapyType(ctx context.Context, id string) error
}

type TherapyTypeHandler struct {
	service   therapyTypeService
	responder responder
}

func NewTherapyTypeHandler(service therapyTypeService, logger *slog.Logger) *TherapyTypeHandler {
	return &TherapyTypeHandler{service: service, responder: newResponder(logger)}
}

func (h *TherapyTypeHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	opts, vErr := listOptions(r)
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}
	therapies, err := h.service.ListTherapyTypes(r.Context(), opts)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listTherapyTypesResponse{TherapyTypes: toTherapyTypeDTOs(therapies)})
}

func (h *TherapyTypeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var input application.TherapyTypeInput
	if err := decodeJSON(r, &input); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	therapy, err := h.service.CreateTherapyType(r.Context(), input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, therapyTypeResponse{TherapyType: toTherapyTypeDTO(therapy)})
}

func (h *TherapyTypeHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	var input application.TherapyTypeInput
	if err := decodeJSON(r, &input); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	therapy, err := h.service.UpdateTherapyType(r.Context(), id, input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, therapyTypeResponse{TherapyType: toTherapyTypeDTO(therapy)})
}

func (h *TherapyTypeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	if err := h.service.DeleteTherapyType(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type therapyTypeResponse struct {
	TherapyType therapyTypeDTO `json:"therapy_type"`
}

type listTherapyTypesResponse struct {
	TherapyTypes []therapyTypeDTO `json:"therapy_types"`
}

type therapyTypeDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	SessionMinutes int    `json:"session_minutes"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toTherapyTypeDTO(t application.TherapyType) therapyTypeDTO {
	return therapyTypeDTO{
		ID:             t.ID,
		Name:           t.Name,
		SessionMinutes: t.SessionMinutes,
		CreatedAt:      formatTimestamp(t.CreatedAt),
		UpdatedAt:      formatTimestamp(t.UpdatedAt),
	}
}

func toTherapyTypeDTOs(therapies []application.TherapyType) []therapyTypeDTO {
	out := make([]therapyTypeDTO, 0, len(therapies))
	for _, t := range therapies {
		out = append(out, toTherapyTypeDTO(t))
	}
	return out
}
