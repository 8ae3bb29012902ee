package api

import (
	"context"
	"fmt"
	"net/http"
)

// ListFines returns the caller's fines (all of them for admins).
func (c *Client) ListFines(ctx context.Context) ([]Multa, error) {
	var fines []Multa
	if err := c.do(ctx, http.MethodGet, "/api/multas/", nil, &fines, true); err != nil {
		return nil, err
	}
	return fines, nil
}

// GetFine fetches a single fine by id.
func (c *Client) GetFine(ctx context.Context, id int) (Multa, error) {
	var fine Multa
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/multas/%d/", id), nil, &fine, true); err != nil {
		return Multa{}, err
	}
	return fine, nil
}

// CreateFine issues a new fine. Admin only.
func (c *Client) CreateFine(ctx context.Context, input NuevaMulta) (Multa, error) {
	var fine Multa
	if err := c.do(ctx, http.MethodPost, "/api/multas/", input, &fine, true); err != nil {
		return Multa{}, err
	}
	return fine, nil
}

// UpdateFine replaces a fine. Admin only.
func (c *Client) UpdateFine(ctx context.Context, id int, input NuevaMulta) (Multa, error) {
	var fine Multa
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/multas/%d/", id), input, &fine, true); err != nil {
		return Multa{}, err
	}
	return fine, nil
}

// DeleteFine removes a fine. Admin only.
func (c *Client) DeleteFine(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/multas/%d/", id), nil, nil, true)
}

// PayFine settles a pending fine on behalf of its resident.
func (c *Client) PayFine(ctx context.Context, id int) (Multa, error) {
	var fine Multa
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/multas/%d/pagar/", id), nil, &fine, true); err != nil {
		return Multa{}, err
	}
	return fine, nil
}

// VoidFine annuls a pending fine. Admin only.
func (c *Client) VoidFine(ctx context.Context, id int) (Multa, error) {
	var fine Multa
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/multas/%d/anular/", id), nil, &fine, true); err != nil {
		return Multa{}, err
	}
	return fine, nil
}

// FineStats fetches the server aggregated fine statistics. Admin only.
func (c *Client) FineStats(ctx context.Context) (EstadisticasMultas, error) {
	var stats EstadisticasMultas
	if err := c.do(ctx, http.MethodGet, "/api/multas/estadisticas/", nil, &stats, true); err != nil {
		return EstadisticasMultas{}, err
	}
	return stats, nil
}
