package api

import (
	"context"
	"fmt"
	"net/http"
)

// RegisterUser creates a new account. The backend restricts this to
// administrators.
func (c *Client) RegisterUser(ctx context.Context, input RegistroUsuario) (Usuario, error) {
	var user Usuario
	if err := c.do(ctx, http.MethodPost, "/api/usuarios/registro/", input, &user, true); err != nil {
		return Usuario{}, err
	}
	return user, nil
}

// ListUsers returns every account. Admin only.
func (c *Client) ListUsers(ctx context.Context) ([]Usuario, error) {
	var users []Usuario
	if err := c.do(ctx, http.MethodGet, "/api/usuarios/lista/", nil, &users, true); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches a single account by id.
func (c *Client) GetUser(ctx context.Context, id int) (Usuario, error) {
	var user Usuario
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/usuarios/%d/", id), nil, &user, true); err != nil {
		return Usuario{}, err
	}
	return user, nil
}

// UpdateUser replaces the editable profile fields of an account.
func (c *Client) UpdateUser(ctx context.Context, id int, input ActualizacionUsuario) (Usuario, error) {
	var user Usuario
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/usuarios/%d/", id), input, &user, true); err != nil {
		return Usuario{}, err
	}
	return user, nil
}

// DeleteUser removes an account. Admin only.
func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/usuarios/%d/", id), nil, nil, true)
}
