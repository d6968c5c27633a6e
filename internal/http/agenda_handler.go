package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/calendar"
)

type agendaService interface {
	Generate(ctx context.Context, params application.AgendaParams) ([]application.CalendarEvent, error)
}

// AgendaHandler serves the expanded agenda as JSON and as an iCalendar feed.
type AgendaHandler struct {
	service   agendaService
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

func NewAgendaHandler(service agendaService, now func() time.Time, logger *slog.Logger) *AgendaHandler {
	if now == nil {
		now = time.Now
	}
	base := defaultLogger(logger)
	return &AgendaHandler{service: service, now: now, responder: newResponder(base), logger: base}
}

// List handles GET /agenda?start=&end=.
func (h *AgendaHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	events, ok := h.generate(w, r, "List")
	if !ok {
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, agendaResponse{Events: toEventDTOs(events)})
}

// ICS handles GET /agenda.ics?start=&end=.
func (h *AgendaHandler) ICS(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	events, ok := h.generate(w, r, "ICS")
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := calendar.EncodeEvents(&buf, "Agenda", events, h.now()); err != nil {
		handlerLogger(r.Context(), h.logger, "AgendaHandler", "ICS").ErrorContext(r.Context(), "calendar encoding failed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	writeCalendar(w, "agenda.ics", buf.Bytes())
}

func (h *AgendaHandler) generate(w http.ResponseWriter, r *http.Request, operation string) ([]application.CalendarEvent, bool) {
	query := r.URL.Query()
	params := application.AgendaParams{Start: query.Get("start"), End: query.Get("end")}
	logger := handlerLogger(r.Context(), h.logger, "AgendaHandler", operation, "start", params.Start, "end", params.End)

	events, err := h.service.Generate(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "agenda generation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return nil, false
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			return events[i].SourcePlanID < events[j].SourcePlanID
		}
		return events[i].Start.Before(events[j].Start)
	})
	logger.With("result_count", len(events)).InfoContext(r.Context(), "agenda generated")
	return events, true
}

func writeCalendar(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type agendaResponse struct {
	Events []eventDTO `json:"events"`
}

type eventDTO struct {
	Title            string `json:"title"`
	StartUTC         string `json:"start_utc"`
	EndUTC           string `json:"end_utc"`
	SourcePlanID     string `json:"source_plan_id"`
	TherapyName      string `json:"therapy_name"`
	ProfessionalName string `json:"professional_name"`
	PatientName      string `json:"patient_name"`
}

func toEventDTOs(events []application.CalendarEvent) []eventDTO {
	out := make([]eventDTO, 0, len(events))
	for _, ev := range events {
		out = append(out, eventDTO{
			Title:            ev.Title,
			StartUTC:         ev.Start.UTC().Format(time.RFC3339),
			EndUTC:           ev.End.UTC().Format(time.RFC3339),
			SourcePlanID:     ev.SourcePlanID,
			TherapyName:      ev.TherapyName,
			ProfessionalName: ev.ProfessionalName,
			PatientName:      ev.PatientName,
		})
	}
	return out
}
