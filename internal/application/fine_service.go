package application

import (
	"context"
	"fmt"
	"strings"
)

// FineGateway abstracts the backend fine endpoints.
type FineGateway interface {
	ListFines(ctx context.Context) ([]Fine, error)
	GetFine(ctx context.Context, id int) (Fine, error)
	CreateFine(ctx context.Context, input FineInput) (Fine, error)
	UpdateFine(ctx context.Context, id int, input FineInput) (Fine, error)
	DeleteFine(ctx context.Context, id int) error
	PayFine(ctx context.Context, id int) (Fine, error)
	VoidFine(ctx context.Context, id int) (Fine, error)
	FineStats(ctx context.Context) (FineStats, error)
}

// FineService fronts the backend fine endpoints with the local role gate
// and input validation.
type FineService struct {
	gateway FineGateway
}

// NewFineService wires dependencies for the fine service.
func NewFineService(gateway FineGateway) *FineService {
	return &FineService{gateway: gateway}
}

// ListFines returns the fines visible to the principal.
func (s *FineService) ListFines(ctx context.Context, principal Principal) ([]Fine, error) {
	if s == nil {
		return nil, fmt.Errorf("FineService is nil")
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("fine gateway not configured")
	}
	return s.gateway.ListFines(ctx)
}

// GetFine fetches a single fine.
func (s *FineService) GetFine(ctx context.Context, principal Principal, id int) (Fine, error) {
	if s == nil {
		return Fine{}, fmt.Errorf("FineService is nil")
	}
	if s.gateway == nil {
		return Fine{}, fmt.Errorf("fine gateway not configured")
	}
	return s.gateway.GetFine(ctx, id)
}

// CreateFine validates input and issues a new fine. Admin only.
func (s *FineService) CreateFine(ctx context.Context, principal Principal, input FineInput) (Fine, error) {
	if s == nil {
		return Fine{}, fmt.Errorf("FineService is nil")
	}
	if !principal.IsAdmin {
		return Fine{}, ErrForbidden
	}
	if s.gateway == nil {
		return Fine{}, fmt.Errorf("fine gateway not configured")
	}

	normalized := normalizeFineInput(input)
	if vErr := validateFineInput(normalized); vErr.HasErrors() {
		return Fine{}, vErr
	}
	return s.gateway.CreateFine(ctx, normalized)
}

// UpdateFine validates input and replaces a fine. Admin only.
func (s *FineService) UpdateFine(ctx context.Context, principal Principal, id int, input FineInput) (Fine, error) {
	if s == nil {
		return Fine{}, fmt.Errorf("FineService is nil")
	}
	if !principal.IsAdmin {
		return Fine{}, ErrForbidden
	}
	if s.gateway == nil {
		return Fine{}, fmt.Errorf("fine gateway not configured")
	}

	normalized := normalizeFineInput(input)
	if vErr := validateFineInput(normalized); vErr.HasErrors() {
		return Fine{}, vErr
	}
	return s.gateway.UpdateFine(ctx, id, normalized)
}

// DeleteFine removes a fine. Admin only.
func (s *FineService) DeleteFine(ctx context.Context, principal Principal, id int) error {
	if s == nil {
		return fmt.Errorf("FineService is nil")
	}
	if !principal.IsAdmin {
		return ErrForbidden
	}
	if s.gateway == nil {
		return fmt.Errorf("fine gateway not configured")
	}
	return s.gateway.DeleteFine(ctx, id)
}

// PayFine settles a pending fine. The backend enforces ownership.
func (s *FineService) PayFine(ctx context.Context, principal Principal, id int) (Fine, error) {
	if s == nil {
		return Fine{}, fmt.Errorf("FineService is nil")
	}
	if s.gateway == nil {
		return Fine{}, fmt.Errorf("fine gateway not configured")
	}
	return s.gateway.PayFine(ctx, id)
}

// VoidFine annuls a pending fine. Admin only.
func (s *FineService) VoidFine(ctx context.Context, principal Principal, id int) (Fine, error) {
	if s == nil {
		return Fine{}, fmt.Errorf("FineService is nil")
	}
	if !principal.IsAdmin {
		return Fine{}, ErrForbidden
	}
	if s.gateway == nil {
		return Fine{}, fmt.Errorf("fine gateway not configured")
	}
	return s.gateway.VoidFine(ctx, id)
}

// Stats fetches the server aggregated fine summary. Admin only.
func (s *FineService) Stats(ctx context.Context, principal Principal) (FineStats, error) {
	if s == nil {
		return FineStats{}, fmt.Errorf("FineService is nil")
	}
	if !principal.IsAdmin {
		return FineStats{}, ErrForbidden
	}
	if s.gateway == nil {
		return FineStats{}, fmt.Errorf("fine gateway not configured")
	}
	return s.gateway.FineStats(ctx)
}

func normalizeFineInput(input FineInput) FineInput {
	input.Reason = strings.TrimSpace(input.Reason)
	input.Description = strings.TrimSpace(input.Description)
	input.Amount = strings.TrimSpace(input.Amount)
	return input
}

func validateFineInput(input FineInput) *ValidationError {
	vErr := &ValidationError{}

	if input.ResidentID <= 0 {
		vErr.add("residente", "El residente es obligatorio")
	}
	if input.Reason == "" {
		vErr.add("motivo", "El motivo es obligatorio")
	}
	validateAmount(vErr, input.Amount)

	return vErr
}
