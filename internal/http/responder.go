package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cuentas-claras/panel/internal/application"
)

var (
	errBadRequestBody = errors.New("El formato de la solicitud no es válido.")
	errInvalidID      = errors.New("El identificador no es válido.")
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

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps application errors to HTTP responses. Backend
// supplied detail text, when present, wins over the canned messages.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	detail := application.RemoteDetail(err)

	switch {
	case errors.Is(err, application.ErrUnauthorized), errors.Is(err, application.ErrSessionExpired):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   "Tu sesión ha expirado. Por favor, inicia sesión nuevamente.",
		})
	case errors.Is(err, application.ErrForbidden):
		message := "No tienes permiso para acceder a esta información."
		if detail != "" {
			message = detail
		}
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   message,
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "El recurso solicitado no existe."})
	case errors.Is(err, application.ErrBackendUnavailable):
		r.writeJSON(ctx, w, http.StatusBadGateway, errorResponse{
			Message: "No se pudo conectar con el servidor. Verifica tu conexión a internet.",
		})
	case errors.Is(err, application.ErrServerFault):
		r.writeJSON(ctx, w, http.StatusBadGateway, errorResponse{
			Message: "Error en el servidor. Por favor, intenta más tarde.",
		})
	case errors.Is(err, application.ErrTooManyAttempts):
		r.writeJSON(ctx, w, http.StatusTooManyRequests, errorResponse{
			Message: "Demasiados intentos. Espera un momento e intenta nuevamente.",
		})
	case errors.Is(err, application.ErrLoginInFlight):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			Message: "Ya hay un inicio de sesión en curso.",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "Revisa los datos ingresados.",
				Errors:  vErr.FieldErrors,
			})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err, "error_kind", application.ErrorKind(err))
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "Error en el servidor. Por favor, intenta más tarde."})
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
		return "La solicitud no es válida."
	case http.StatusUnauthorized:
		return "Debes iniciar sesión para continuar."
	case http.StatusForbidden:
		return "No tienes permiso para acceder a esta información."
	case http.StatusNotFound:
		return "El recurso solicitado no existe."
	case http.StatusConflict:
		return "La solicitud entra en conflicto con el estado actual."
	case http.StatusUnprocessableEntity:
		return "Revisa los datos ingresados."
	case http.StatusServiceUnavailable:
		return "El panel se está iniciando. Intenta nuevamente en unos segundos."
	default:
		return "Error en el servidor. Por favor, intenta más tarde."
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
