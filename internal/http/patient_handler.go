package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/clinic-scheduler/internal/application"
)

type patientService interface {
	CreatePatient(ctx context.Context, input application.PatientInput) (application.Patient, error)
	UpdatePatient(ctx context.Context, id string, input application.PatientInput) (application.Patient, error)
	ListPatients(ctx context.Context, opts application.ListOptions) ([]application.Patient, error)
	DeletePatient(ctx context.Context, id string) error
}

type PatientHandler struct {
	service   patientService
	responder responder
	logger    *slog.Logger
}

func NewPatientHandler(service patientService, logger *slog.Logger) *PatientHandler {
	base := defaultLogger(logger)
	return &PatientHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *PatientHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "PatientHandler", operation, attrs...)
}

func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	opts, vErr := listOptions(r)
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	logger := h.log(r.Context(), "List", "search", opts.Search)
	patients, err := h.service.ListPatients(r.Context(), opts)
	if err != nil {
		logger.ErrorContext(r.Context(), "patient list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(patients)).InfoContext(r.Context(), "patients listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listPatientsResponse{Patients: toPatientDTOs(patients)})
}

func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var input application.PatientInput
	if err := decodeJSON(r, &input); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode patient request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	patient, err := h.service.CreatePatient(r.Context(), input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, patientResponse{Patient: toPatientDTO(patient)})
}

func (h *PatientHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}

	var input application.PatientInput
	if err := decodeJSON(r, &input); err != nil {
		h.log(r.Context(), "Update", "patient_id", id, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode patient update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	patient, err := h.service.UpdatePatient(r.Context(), id, input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, patientResponse{Patient: toPatientDTO(patient)})
}

func (h *PatientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	if err := h.service.DeletePatient(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type patientResponse struct {
	Patient patientDTO `json:"patient"`
}

type listPatientsResponse struct {
	Patients []patientDTO `json:"patients"`
}

type patientDTO struct {
	ID        string  `json:"id"`
	FullName  string  `json:"full_name"`
	BirthDate *string `json:"birth_date"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	Notes     *string `json:"notes"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

func toPatientDTO(p application.Patient) patientDTO {
	return patientDTO{
		ID:        p.ID,
		FullName:  p.FullName,
		BirthDate: p.BirthDate,
		Phone:     p.Phone,
		Email:     p.Email,
		Notes:     p.Notes,
		CreatedAt: formatTimestamp(p.CreatedAt),
		UpdatedAt: formatTimestamp(p.UpdatedAt),
	}
}

func toPatientDTOs(patients []application.Patient) []patientDTO {
	out := make([]patientDTO, 0, len(patients))
	for _, p := range patients {
		out = append(out, toPatientDTO(p))
	}
	return out
}
