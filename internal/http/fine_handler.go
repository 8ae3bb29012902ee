package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuentas-claras/panel/internal/application"
)

type fineService interface {
	ListFines(ctx context.Context, principal application.Principal) ([]application.Fine, error)
	GetFine(ctx context.Context, principal application.Principal, id int) (application.Fine, error)
	CreateFine(ctx context.Context, principal application.Principal, input application.FineInput) (application.Fine, error)
	UpdateFine(ctx context.Context, principal application.Principal, id int, input application.FineInput) (application.Fine, error)
	DeleteFine(ctx context.Context, principal application.Principal, id int) error
	PayFine(ctx context.Context, principal application.Principal, id int) (application.Fine, error)
	VoidFine(ctx context.Context, principal application.Principal, id int) (application.Fine, error)
}

// FineHandler serves the fine endpoints.
type FineHandler struct {
	service   fineService
	responder responder
	onMutate  func()
}

// NewFineHandler wires the fine endpoints. onMutate runs after every
// successful mutation so stale dashboard aggregates get dropped.
func NewFineHandler(service fineService, onMutate func(), logger *slog.Logger) *FineHandler {
	return &FineHandler{service: service, responder: newResponder(defaultLogger(logger)), onMutate: onMutate}
}

func (h *FineHandler) mutated() {
	if h.onMutate != nil {
		h.onMutate()
	}
}

// List returns the fines visible to the caller.
func (h *FineHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	fines, err := h.service.ListFines(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]fineDTO, len(fines))
	for i, fine := range fines {
		out[i] = toFineDTO(fine)
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

// Get fetches a single fine.
func (h *FineHandler) Get(w http.ResponseWriter, r *http.Request, id int) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	fine, err := h.service.GetFine(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toFineDTO(fine))
}

// Create issues a new fine. Admin only.
func (h *FineHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req fineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	fine, err := h.service.CreateFine(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.mutated()
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toFineDTO(fine))
}

// Update replaces a fine. Admin only.
func (h *FineHandler) Update(w http.ResponseWriter, r *http.Request, id int) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req fineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	fine, err := h.service.UpdateFine(r.Context(), principal, id, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.mutated()
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toFineDTO(fine))
}

// Delete removes a fine. Admin only.
func (h *FineHandler) Delete(w http.ResponseWriter, r *http.Request, id int) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteFine(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.mutated()
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Pay settles a pending fine.
func (h *FineHandler) Pay(w http.ResponseWriter, r *http.Request, id int) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	fine, err := h.service.PayFine(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.mutated()
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toFineDTO(fine))
}

// Void annuls a pending fine. Admin only.
func (h *FineHandler) Void(w http.ResponseWriter, r *http.Request, id int) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	fine, err := h.service.VoidFine(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.mutated()
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toFineDTO(fine))
}

type fineDTO struct {
	ID          int    `json:"id"`
	ResidentID  int    `json:"residente"`
	Reason      string `json:"motivo"`
	Description string `json:"descripcion,omitempty"`
	Amount      string `json:"monto"`
	Status      string `json:"estado"`
	CreatedAt   string `json:"fecha_creacion"`
	PaidAt      string `json:"fecha_pago,omitempty"`
}

func toFineDTO(fine application.Fine) fineDTO {
	dto := fineDTO{
		ID:          fine.ID,
		ResidentID:  fine.ResidentID,
		Reason:      fine.Reason,
		Description: fine.Description,
		Amount:      fine.Amount,
		Status:      string(fine.Status),
		CreatedAt:   fine.CreatedAt.UTC().Format(time.RFC3339),
	}
	if fine.PaidAt != nil {
		dto.PaidAt = fine.PaidAt.UTC().Format(time.RFC3339)
	}
	return dto
}

type fineRequest struct {
	ResidentID  int    `json:"residente"`
	Reason      string `json:"motivo"`
	Description string `json:"descripcion"`
	Amount      string `json:"monto"`
}

func (r fineRequest) toInput() application.FineInput {
	return application.FineInput{
		ResidentID:  r.ResidentID,
		Reason:      r.Reason,
		Description: r.Description,
		Amount:      r.Amount,
	}
}
