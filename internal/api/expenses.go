package api

import (
	"context"
	"fmt"
	"net/http"
)

// ListExpenses returns the caller's common expenses (all of them for admins).
func (c *Client) ListExpenses(ctx context.Context) ([]GastoComun, error) {
	var expenses []GastoComun
	if err := c.do(ctx, http.MethodGet, "/api/gastocomun/", nil, &expenses, true); err != nil {
		return nil, err
	}
	return expenses, nil
}

// PendingExpenses returns expenses still awaiting payment.
func (c *Client) PendingExpenses(ctx context.Context) ([]GastoComun, error) {
	var expenses []GastoComun
	if err := c.do(ctx, http.MethodGet, "/api/gastocomun/pendientes/", nil, &expenses, true); err != nil {
		return nil, err
	}
	return expenses, nil
}

// PaidExpenses returns already settled expenses.
func (c *Client) PaidExpenses(ctx context.Context) ([]GastoComun, error) {
	var expenses []GastoComun
	if err := c.do(ctx, http.MethodGet, "/api/gastocomun/pagados/", nil, &expenses, true); err != nil {
		return nil, err
	}
	return expenses, nil
}

// GetExpense fetches a single expense by id.
func (c *Client) GetExpense(ctx context.Context, id int) (GastoComun, error) {
	var expense GastoComun
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/gastocomun/%d/", id), nil, &expense, true); err != nil {
		return GastoComun{}, err
	}
	return expense, nil
}

// CreateExpense registers a new expense. Admin only.
func (c *Client) CreateExpense(ctx context.Context, input NuevoGastoComun) (GastoComun, error) {
	var expense GastoComun
	if err := c.do(ctx, http.MethodPost, "/api/gastocomun/", input, &expense, true); err != nil {
		return GastoComun{}, err
	}
	return expense, nil
}

// UpdateExpense replaces an expense. Admin only.
func (c *Client) UpdateExpense(ctx context.Context, id int, input NuevoGastoComun) (GastoComun, error) {
	var expense GastoComun
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/gastocomun/%d/", id), input, &expense, true); err != nil {
		return GastoComun{}, err
	}
	return expense, nil
}

// DeleteExpense removes an expense. Admin only.
func (c *Client) DeleteExpense(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/gastocomun/%d/", id), nil, nil, true)
}

// PayExpense settles a pending expense on behalf of its resident.
func (c *Client) PayExpense(ctx context.Context, id int) (GastoComun, error) {
	var expense GastoComun
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/gastocomun/%d/pagar/", id), nil, &expense, true); err != nil {
		return GastoComun{}, err
	}
	return expense, nil
}

// ExpenseStats fetches the server aggregated expense statistics. Admin only.
func (c *Client) ExpenseStats(ctx context.Context) (EstadisticasGastos, error) {
	var stats EstadisticasGastos
	if err := c.do(ctx, http.MethodGet, "/api/gastocomun/estadisticas/", nil, &stats, true); err != nil {
		return EstadisticasGastos{}, err
	}
	return stats, nil
}
