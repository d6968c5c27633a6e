package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/clinic-scheduler/internal/application"
)

var (
	errBadRequestBody = errors.New("Formato de requisição inválido.")
	errMissingID      = errors.New("Identificador não informado.")
)

const (
	msgNotFound      = "Registro não encontrado."
	msgAlreadyExists = "Já existe um registro com estes dados."
	msgInUse         = "Não é possível excluir: o registro possui planos vinculados."
	msgValidation    = "Dados inválidos."
	msgInternal      = "Erro interno do servidor."
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError answers with err's text for client errors. Server errors are
// logged and answered with the generic status message.
func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" && status < http.StatusInternalServerError {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var (
		vErr *application.ValidationError
		cErr *application.ConflictError
		uErr *application.UpstreamError
	)
	switch {
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   msgValidation,
			Errors:    vErr.FieldErrors,
		})
	case errors.As(err, &cErr):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "SCHEDULE_CONFLICT",
			Message:   cErr.Error(),
		})
	case errors.As(err, &uErr):
		r.loggerFor(ctx).ErrorContext(ctx, "upstream failure", "error", uErr.Err)
		r.writeJSON(ctx, w, http.StatusBadGateway, errorResponse{ErrorCode: "UPSTREAM_UNAVAILABLE", Message: uErr.Message})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: msgNotFound})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "ALREADY_EXISTS", Message: msgAlreadyExists})
	case errors.Is(err, application.ErrInUse):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "IN_USE", Message: msgInUse})
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: msgInternal})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Requisição inválida."
	case http.StatusNotFound:
		return msgNotFound
	case http.StatusConflict:
		return "A requisição conflita com o estado atual do registro."
	case http.StatusUnprocessableEntity:
		return msgValidation
	case http.StatusBadGateway:
		return "Serviço de dados indisponível."
	default:
		return msgInternal
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
