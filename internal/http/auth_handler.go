package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cuentas-claras/panel/internal/application"
)

type sessionService interface {
	Login(ctx context.Context, params application.LoginParams) (application.LoginResult, error)
	Logout(ctx context.Context)
	Snapshot() application.SessionSnapshot
}

// AuthHandler serves the login, logout, and session snapshot endpoints.
type AuthHandler struct {
	service   sessionService
	responder responder
	logger    *slog.Logger
}

// NewAuthHandler wires the session endpoints.
func NewAuthHandler(service sessionService, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

// Login exchanges credentials for an authenticated session and answers
// with the role dashboard the operator should land on.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Login", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode login request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	username := strings.TrimSpace(req.Username)
	logger := h.log(r.Context(), "Login", "username", username)

	result, err := h.service.Login(r.Context(), application.LoginParams{
		Username: username,
		Password: req.Password,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "login rejected", "error", err, "error_kind", application.ErrorKind(err))
		status := loginErrorStatus(err)
		h.responder.writeJSON(r.Context(), w, status, errorResponse{
			ErrorCode: loginErrorCode(err),
			Message:   application.LoginErrorMessage(err),
		})
		return
	}

	logger.With("user_id", result.User.ID, "role", result.User.Role).InfoContext(r.Context(), "login succeeded")

	h.responder.writeJSON(r.Context(), w, http.StatusOK, loginResponse{
		Redirect: result.RedirectPath,
		User:     toUserDTO(result.User),
	})
}

// Logout discards the session. Always answers 204.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.service.Logout(r.Context())
	h.log(r.Context(), "Logout").InfoContext(r.Context(), "session discarded")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Session reports the current session snapshot so the caller can decide
// which view to show.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	snapshot := h.service.Snapshot()
	resp := sessionResponse{
		Loading:       snapshot.Loading,
		Authenticated: snapshot.Authenticated,
		IsAdmin:       snapshot.IsAdmin,
		LastError:     snapshot.LastError,
	}
	if snapshot.User != nil {
		user := toUserDTO(*snapshot.User)
		resp.User = &user
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func loginErrorStatus(err error) int {
	switch application.ErrorKind(err) {
	case "invalid_credentials", "unauthorized":
		return http.StatusUnauthorized
	case "too_many_attempts":
		return http.StatusTooManyRequests
	case "login_in_flight":
		return http.StatusConflict
	case "backend_unavailable":
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}

func loginErrorCode(err error) string {
	if application.ErrorKind(err) == "invalid_credentials" {
		return "AUTH_INVALID_CREDENTIALS"
	}
	return ""
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Redirect string  `json:"redirect"`
	User     userDTO `json:"user"`
}

type sessionResponse struct {
	Loading       bool     `json:"loading"`
	Authenticated bool     `json:"authenticated"`
	IsAdmin       bool     `json:"is_admin"`
	User          *userDTO `json:"user,omitempty"`
	LastError     string   `json:"last_error,omitempty"`
}
