package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuentas-claras/panel/internal/application"
)

type expenseService interface {
	ListExpenses(ctx context.Context, principal application.Principal, filter application.ExpenseFilter) ([]application.CommonExpense, error)
	GetExpense(ctx context.Context, principal application.Principal, id int) (application.CommonExpense, error)
	CreateExpense(ctx context.Context, principal application.Principal, input application.ExpenseInput) (application.CommonExpense, error)
	UpdateExpense(ctx context.Context, principal application.Principal, id int, input application.ExpenseInput) (application.CommonExpense, error)
	DeleteExpense(ctx context.Context, principal application.Principal, id int) error
	PayExpense(ctx context.Context, principal application.Principal, id int) (application.CommonExpense, error)
}

// ExpenseHandler serves the common expense endpoints.
type ExpenseHandler struct {
	service   expenseService
	responder responder
	onMutate  func()
}

// NewExpenseHandler wires the expense endpoints. onMutate runs after every
// successful mutation so stale dashboard aggregates get dropped.
func NewExpenseHandler(service expenseService, onMutate func(), logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{service: service, responder: newResponder(defaultLogger(logger)), onMutate: onMutate}
}

func (h *ExpenseHandler) mutated() {
	if h.onMutate != nil {
		h.onMutate()
	}
}

// List returns expenses, optionally narrowed by the estado query parameter.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	filter := application.ExpenseFilterAll
	switch r.URL.Query().Get("estado") {
	case "pendientes":
		filter = application.ExpenseFilterPending
	case "pagados":
		filter = application.ExpenseFilterPaid
	}

	principal, _ := PrincipalFromContext(r.Context())
	expenses, err := h.service.ListExpenses(r.Context(), principal, filter)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]expenseDTO, len(expenses))
	for i, expense := range expenses {
		out[i] = toExpenseDTO(expense)
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

// Get fetches a single expense.
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request, id int) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	expense, err := h.service.GetExpense(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toExpenseDTO(expense))
}

// Create issues a new expense. Admin only.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	expense, err := h.service.CreateExpense(r.Context(), principal, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.mutated()
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toExpenseDTO(expense))
}

// Update replaces an expense. Admin only.
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request, id int) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	expense, err := h.service.UpdateExpense(r.Context(), principal, id, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.mutated()
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toExpenseDTO(expense))
}

// Delete removes an expense. Admin only.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request, id int) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteExpense(r.Context(), principal, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.mutated()
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Pay settles a pending expense.
func (h *ExpenseHandler) Pay(w http.ResponseWriter, r *http.Request, id int) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	expense, err := h.service.PayExpense(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.mutated()
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toExpenseDTO(expense))
}

type expenseDTO struct {
	ID          int    `json:"id"`
	ResidentID  int    `json:"residente"`
	Concept     string `json:"concepto"`
	Description string `json:"descripcion,omitempty"`
	Amount      string `json:"monto"`
	Status      string `json:"estado"`
	IssuedOn    string `json:"fecha_emision"`
	DueOn       string `json:"fecha_vencimiento"`
	PaidAt      string `json:"fecha_pago,omitempty"`
}

func toExpenseDTO(expense application.CommonExpense) expenseDTO {
	dto := expenseDTO{
		ID:          expense.ID,
		ResidentID:  expense.ResidentID,
		Concept:     expense.Concept,
		Description: expense.Description,
		Amount:      expense.Amount,
		Status:      string(expense.Status),
		IssuedOn:    expense.IssuedOn,
		DueOn:       expense.DueOn,
	}
	if expense.PaidAt != nil {
		dto.PaidAt = expense.PaidAt.UTC().Format(time.RFC3339)
	}
	return dto
}

type expenseRequest struct {
	ResidentID  int    `json:"residente"`
	Concept     string `json:"concepto"`
	Description string `json:"descripcion"`
	Amount      string `json:"monto"`
	DueOn       string `json:"fecha_vencimiento"`
}

func (r expenseRequest) toInput() application.ExpenseInput {
	return application.ExpenseInput{
		ResidentID:  r.ResidentID,
		Concept:     r.Concept,
		Description: r.Description,
		Amount:      r.Amount,
		DueOn:       r.DueOn,
	}
}
