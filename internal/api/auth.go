package api

import (
	"context"
	"net/http"
)

// ObtainToken exchanges credentials for an access/refresh token pair. This is
// the only unauthenticated call besides RefreshToken.
func (c *Client) ObtainToken(ctx context.Context, username, password string) (TokenPair, error) {
	payload := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{Username: username, Password: password}

	var pair TokenPair
	if err := c.do(ctx, http.MethodPost, "/api/token/", payload, &pair, false); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// RefreshToken trades a refresh token for a fresh access token. The backend
// does not rotate the refresh token, so only the access field is populated.
func (c *Client) RefreshToken(ctx context.Context, refresh string) (string, error) {
	payload := struct {
		Refresh string `json:"refresh"`
	}{Refresh: refresh}

	var result struct {
		Access string `json:"access"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/token/refresh/", payload, &result, false); err != nil {
		return "", err
	}
	return result.Access, nil
}

// Profile fetches the authenticated user's profile. A 401 here means the held
// access token is invalid or expired.
func (c *Client) Profile(ctx context.Context) (Usuario, error) {
	var user Usuario
	if err := c.do(ctx, http.MethodGet, "/api/usuarios/perfil/", nil, &user, true); err != nil {
		return Usuario{}, err
	}
	return user, nil
}
