package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/samber/mo"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/calendar"
)

type planService interface {
	CreatePlan(ctx context.Context, params application.CreatePlanParams) (application.Plan, error)
	UpdatePlan(ctx context.Context, params application.UpdatePlanParams) (application.Plan, error)
	DeletePlan(ctx context.Context, principal application.Principal, id string) error
	GetPlan(ctx context.Context, id string) (application.Plan, error)
	ListActivePlans(ctx context.Context) ([]application.Plan, error)
}

// PlanHandler exposes the recurring session plans.
type PlanHandler struct {
	service   planService
	location  *time.Location
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

func NewPlanHandler(service planService, location *time.Location, now func() time.Time, logger *slog.Logger) *PlanHandler {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	base := defaultLogger(logger)
	return &PlanHandler{service: service, location: location, now: now, responder: newResponder(base), logger: base}
}

func (h *PlanHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "PlanHandler", operation, attrs...)
}

func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	plans, err := h.service.ListActivePlans(r.Context())
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "plan list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listPlansResponse{Plans: toPlanDTOs(plans)})
}

// ICS handles GET /plans.ics?from=YYYY-MM-DD. Each active plan becomes a
// weekly series starting on its first weekday on or after from (today by default).
func (h *PlanHandler) ICS(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "ICS")
	from := h.now()
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		parsed, err := application.ParseCalendarDate(raw, h.location)
		if err != nil {
			vErr := &application.ValidationError{FieldErrors: map[string]string{"from": "data inválida (use AAAA-MM-DD)"}}
			h.responder.handleServiceError(r.Context(), w, vErr)
			return
		}
		from = parsed
	}

	plans, err := h.service.ListActivePlans(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "plan list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var buf bytes.Buffer
	skipped, err := calendar.EncodePlans(&buf, "Planos de sessão", plans, from, h.location, h.now())
	if err != nil {
		logger.ErrorContext(r.Context(), "calendar encoding failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if len(skipped) > 0 {
		logger.WarnContext(r.Context(), "plans left out of calendar export", "plan_ids", skipped)
	}
	writeCalendar(w, "planos.ics", buf.Bytes())
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	plan, err := h.service.GetPlan(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, planResponse{Plan: toPlanDTO(plan)})
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	var input application.PlanInput
	if err := decodeJSON(r, &input); err != nil {
		logger.ErrorContext(r.Context(), "failed to decode plan request", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	plan, err := h.service.CreatePlan(r.Context(), application.CreatePlanParams{Principal: principal, Input: input})
	if err != nil {
		logger.ErrorContext(r.Context(), "plan creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("plan_id", plan.ID).InfoContext(r.Context(), "plan created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, planResponse{Plan: toPlanDTO(plan)})
}

// Patch handles PATCH /plans/{id}. Only the fields present in the body change.
func (h *PlanHandler) Patch(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Patch", "principal_id", principal.UserID, "plan_id", id)

	patch, err := decodePlanPatch(r)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to decode plan patch", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	plan, err := h.service.UpdatePlan(r.Context(), application.UpdatePlanParams{Principal: principal, PlanID: id, Patch: patch})
	if err != nil {
		logger.ErrorContext(r.Context(), "plan update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "plan updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, planResponse{Plan: toPlanDTO(plan)})
}

func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := pathID(r)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeletePlan(r.Context(), principal, id); err != nil {
		h.log(r.Context(), "Delete", "plan_id", id).ErrorContext(r.Context(), "plan delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func decodePlanPatch(r *http.Request) (application.PlanPatch, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return application.PlanPatch{}, err
	}

	var patch application.PlanPatch
	for key, value := range raw {
		var err error
		switch key {
		case "patient_id":
			patch.PatientID, err = someOf[string](value)
		case "professional_id":
			patch.ProfessionalID, err = someOf[string](value)
		case "therapy_type_id":
			patch.TherapyTypeID, err = someOf[string](value)
		case "day_of_week":
			patch.DayOfWeek, err = someOf[int](value)
		case "start_time":
			patch.StartTime, err = someOf[string](value)
		case "end_time":
			patch.EndTime, err = someOf[string](value)
		case "active":
			patch.Active, err = someOf[bool](value)
		default:
			err = fmt.Errorf("unknown field %q", key)
		}
		if err != nil {
			return application.PlanPatch{}, fmt.Errorf("%s: %w", key, err)
		}
	}
	return patch, nil
}

func someOf[T any](raw json.RawMessage) (mo.Option[T], error) {
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return mo.None[T](), err
	}
	return mo.Some(value), nil
}

type planResponse struct {
	Plan planDTO `json:"plan"`
}

type listPlansResponse struct {
	Plans []planDTO `json:"plans"`
}

type planDTO struct {
	ID               string `json:"id"`
	PatientID        string `json:"patient_id"`
	ProfessionalID   string `json:"professional_id"`
	TherapyTypeID    string `json:"therapy_type_id"`
	DayOfWeek        int    `json:"day_of_week"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	Active           bool   `json:"active"`
	CreatedByUserID  string `json:"created_by_user_id"`
	PatientName      string `json:"patient_name,omitempty"`
	ProfessionalName string `json:"professional_name,omitempty"`
	TherapyName      string `json:"therapy_name,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

func toPlanDTO(plan application.Plan) planDTO {
	return planDTO{
		ID:               plan.ID,
		PatientID:        plan.PatientID,
		ProfessionalID:   plan.ProfessionalID,
		TherapyTypeID:    plan.TherapyTypeID,
		DayOfWeek:        plan.DayOfWeek,
		StartTime:        plan.StartTime,
		EndTime:          plan.EndTime,
		Active:           plan.Active,
		CreatedByUserID:  plan.CreatedByUserID,
		PatientName:      plan.PatientName,
		ProfessionalName: plan.ProfessionalName,
		TherapyName:      plan.TherapyName,
		CreatedAt:        formatTimestamp(plan.CreatedAt),
		UpdatedAt:        formatTimestamp(plan.UpdatedAt),
	}
}

func toPlanDTOs(plans []application.Plan) []planDTO {
	out := make([]planDTO, 0, len(plans))
	for _, plan := range plans {
		out = append(out, toPlanDTO(plan))
	}
	return out
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
