package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ExpenseGateway abstracts the backend common expense endpoints.
type ExpenseGateway interface {
	ListExpenses(ctx context.Context, filter ExpenseFilter) ([]CommonExpense, error)
	GetExpense(ctx context.Context, id int) (CommonExpense, error)
	CreateExpense(ctx context.Context, input ExpenseInput) (CommonExpense, error)
	UpdateExpense(ctx context.Context, id int, input ExpenseInput) (CommonExpense, error)
	DeleteExpense(ctx context.Context, id int) error
	PayExpense(ctx context.Context, id int) (CommonExpense, error)
	ExpenseStats(ctx context.Context) (ExpenseStats, error)
}

// ExpenseService fronts the backend expense endpoints, adding the local
// role gate and input validation so obviously bad requests never leave
// the panel.
type ExpenseService struct {
	gateway ExpenseGateway
}

// NewExpenseService wires dependencies for the expense service.
func NewExpenseService(gateway ExpenseGateway) *ExpenseService {
	return &ExpenseService{gateway: gateway}
}

// ListExpenses returns the expenses visible to the principal. The backend
// scopes residents to their own records.
func (s *ExpenseService) ListExpenses(ctx context.Context, principal Principal, filter ExpenseFilter) ([]CommonExpense, error) {
	if s == nil {
		return nil, fmt.Errorf("ExpenseService is nil")
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("expense gateway not configured")
	}
	return s.gateway.ListExpenses(ctx, filter)
}

// GetExpense fetches a single expense.
func (s *ExpenseService) GetExpense(ctx context.Context, principal Principal, id int) (CommonExpense, error) {
	if s == nil {
		return CommonExpense{}, fmt.Errorf("ExpenseService is nil")
	}
	if s.gateway == nil {
		return CommonExpense{}, fmt.Errorf("expense gateway not configured")
	}
	return s.gateway.GetExpense(ctx, id)
}

// CreateExpense validates input and issues a new expense. Admin only.
func (s *ExpenseService) CreateExpense(ctx context.Context, principal Principal, input ExpenseInput) (CommonExpense, error) {
	if s == nil {
		return CommonExpense{}, fmt.Errorf("ExpenseService is nil")
	}
	if !principal.IsAdmin {
		return CommonExpense{}, ErrForbidden
	}
	if s.gateway == nil {
		return CommonExpense{}, fmt.Errorf("expense gateway not configured")
	}

	normalized := normalizeExpenseInput(input)
	if vErr := validateExpenseInput(normalized); vErr.HasErrors() {
		return CommonExpense{}, vErr
	}
	return s.gateway.CreateExpense(ctx, normalized)
}

// UpdateExpense validates input and replaces an expense. Admin only.
func (s *ExpenseService) UpdateExpense(ctx context.Context, principal Principal, id int, input ExpenseInput) (CommonExpense, error) {
	if s == nil {
		return CommonExpense{}, fmt.Errorf("ExpenseService is nil")
	}
	if !principal.IsAdmin {
		return CommonExpense{}, ErrForbidden
	}
	if s.gateway == nil {
		return CommonExpense{}, fmt.Errorf("expense gateway not configured")
	}

	normalized := normalizeExpenseInput(input)
	if vErr := validateExpenseInput(normalized); vErr.HasErrors() {
		return CommonExpense{}, vErr
	}
	return s.gateway.UpdateExpense(ctx, id, normalized)
}

// DeleteExpense removes an expense. Admin only.
func (s *ExpenseService) DeleteExpense(ctx context.Context, principal Principal, id int) error {
	if s == nil {
		return fmt.Errorf("ExpenseService is nil")
	}
	if !principal.IsAdmin {
		return ErrForbidden
	}
	if s.gateway == nil {
		return fmt.Errorf("expense gateway not configured")
	}
	return s.gateway.DeleteExpense(ctx, id)
}

// PayExpense settles a pending expense. The backend enforces ownership.
func (s *ExpenseService) PayExpense(ctx context.Context, principal Principal, id int) (CommonExpense, error) {
	if s == nil {
		return CommonExpense{}, fmt.Errorf("ExpenseService is nil")
	}
	if s.gateway == nil {
		return CommonExpense{}, fmt.Errorf("expense gateway not configured")
	}
	return s.gateway.PayExpense(ctx, id)
}

// Stats fetches the server aggregated expense summary. Admin only.
func (s *ExpenseService) Stats(ctx context.Context, principal Principal) (ExpenseStats, error) {
	if s == nil {
		return ExpenseStats{}, fmt.Errorf("ExpenseService is nil")
	}
	if !principal.IsAdmin {
		return ExpenseStats{}, ErrForbidden
	}
	if s.gateway == nil {
		return ExpenseStats{}, fmt.Errorf("expense gateway not configured")
	}
	return s.gateway.ExpenseStats(ctx)
}

func normalizeExpenseInput(input ExpenseInput) ExpenseInput {
	input.Concept = strings.TrimSpace(input.Concept)
	input.Description = strings.TrimSpace(input.Description)
	input.Amount = strings.TrimSpace(input.Amount)
	input.DueOn = strings.TrimSpace(input.DueOn)
	return input
}

func validateExpenseInput(input ExpenseInput) *ValidationError {
	vErr := &ValidationError{}

	if input.ResidentID <= 0 {
		vErr.add("residente", "El residente es obligatorio")
	}
	if input.Concept == "" {
		vErr.add("concepto", "El concepto es obligatorio")
	}
	validateAmount(vErr, input.Amount)
	if input.DueOn == "" {
		vErr.add("fecha_vencimiento", "La fecha de vencimiento es obligatoria")
	} else if _, err := time.Parse("2006-01-02", input.DueOn); err != nil {
		vErr.add("fecha_vencimiento", "La fecha de vencimiento no es válida")
	}

	return vErr
}

func validateAmount(vErr *ValidationError, amount string) {
	if amount == "" {
		vErr.add("monto", "El monto es obligatorio")
		return
	}
	value, err := strconv.ParseFloat(amount, 64)
	if err != nil || value <= 0 {
		vErr.add("monto", "El monto debe ser un número mayor a cero")
	}
}
