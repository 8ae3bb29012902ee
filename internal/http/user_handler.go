package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cuentas-claras/panel/internal/application"
)

type userService interface {
	RegisterUser(ctx context.Context, principal application.Principal, input application.UserInput) (application.UserProfile, error)
	ListUsers(ctx context.Context, principal application.Principal) ([]application.UserProfile, error)
	GetUser(ctx context.Context, principal application.Principal, id int) (application.UserProfile, error)
	UpdateUser(ctx context.Context, principal application.Principal, id int, update application.ProfileUpdate) (application.UserProfile, error)
	DeleteUser(ctx context.Context, principal application.Principal, id int) error
	UpdateOwnProfile(ctx context.Context, principal application.Principal, update application.ProfileUpdate) (application.UserProfile, error)
}

// UserHandler serves the resident management and own-profile endpoints.
type UserHandler struct {
	service   userService
	responder responder
}

// NewUserHandler wires the user endpoints.
func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

// Register creates a new account. Admin only.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	user, err := h.service.RegisterUser(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toUserDTO(user))
}

// List returns every account. Admin only.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	users, err := h.service.ListUsers(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]userDTO, len(users))
	for i, user := range users {
		out[i] = toUserDTO(user)
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

// Get fetches a single account. Admin only.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request, id int) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	user, err := h.service.GetUser(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

// Update edits an account. Admin only.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request, id int) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	user, err := h.service.UpdateUser(r.Context(), principal, id, req.toUpdate())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

// Delete removes an account. Admin only.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request, id int) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteUser(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// UpdateProfile edits the acting account.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	user, err := h.service.UpdateOwnProfile(r.Context(), principal, req.toUpdate())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

type userDTO struct {
	ID              int    `json:"id"`
	Username        string `json:"username"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Role            string `json:"rol"`
	Phone           string `json:"telefono,omitempty"`
	ResidenceNumber string `json:"numero_residencia,omitempty"`
}

func toUserDTO(user application.UserProfile) userDTO {
	return userDTO{
		ID:              user.ID,
		Username:        user.Username,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Email:           user.Email,
		Role:            string(user.Role),
		Phone:           user.Phone,
		ResidenceNumber: user.ResidenceNumber,
	}
}

type registerRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password2"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Role            string `json:"rol"`
	Phone           string `json:"telefono"`
	ResidenceNumber string `json:"numero_residencia"`
}

func (r registerRequest) toInput() application.UserInput {
	return application.UserInput{
		Username:        r.Username,
		Password:        r.Password,
		PasswordConfirm: r.PasswordConfirm,
		Email:           r.Email,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Role:            application.Role(r.Role),
		Phone:           r.Phone,
		ResidenceNumber: r.ResidenceNumber,
	}
}

type profileUpdateRequest struct {
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	Email           *string `json:"email"`
	Phone           *string `json:"telefono"`
	ResidenceNumber *string `json:"numero_residencia"`
}

func (r profileUpdateRequest) toUpdate() application.ProfileUpdate {
	return application.ProfileUpdate{
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Email:           r.Email,
		Phone:           r.Phone,
		ResidenceNumber: r.ResidenceNumber,
	}
}
