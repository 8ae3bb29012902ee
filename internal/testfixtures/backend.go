package testfixtures

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/cuentas-claras/panel/internal/api"
)

// FakeBackend is an in-process stand-in for the Cuentas Claras REST backend.
// It implements the token exchange, profile, and notification endpoints with
// the same JSON shapes and error conventions, so client and integration tests
// can run against a real HTTP round trip.
type FakeBackend struct {
	mu sync.Mutex

	server *httptest.Server

	// Credentials maps accepted usernames to passwords.
	Credentials map[string]string
	// AccessToken and RefreshToken are the pair issued on a successful
	// token exchange and required on authenticated requests.
	AccessToken  string
	RefreshToken string
	// Profile is returned by the profile endpoint.
	Profile api.Usuario
	// Notifications backs the notification endpoints.
	Notifications []api.Notificacion

	// FailWith, when non-zero, makes every request answer that status.
	FailWith int

	requests map[string]int
}

// NewFakeBackend starts a fake backend and registers its shutdown with the
// provided testing.TB. Defaults accept admin/secreta and issue a fixed pair.
func NewFakeBackend(tb testing.TB) *FakeBackend {
	tb.Helper()

	backend := &FakeBackend{
		Credentials:  map[string]string{"admin": "secreta"},
		AccessToken:  "access-fixture",
		RefreshToken: "refresh-fixture",
		Profile: api.Usuario{
			ID:       1,
			Username: "admin",
			Email:    "admin@condominio.cl",
			Rol:      "admin",
		},
		requests: make(map[string]int),
	}
	backend.server = httptest.NewServer(http.HandlerFunc(backend.handle))
	tb.Cleanup(backend.server.Close)
	return backend
}

// URL reports the backend root for constructing clients.
func (b *FakeBackend) URL() string {
	return b.server.URL
}

// Requests reports how many times the given method and path were hit.
func (b *FakeBackend) Requests(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[method+" "+path]
}

// SetNotifications replaces the notification list.
func (b *FakeBackend) SetNotifications(items []api.Notificacion) {
	b.mu.Lock()
	b.Notifications = append([]api.Notificacion(nil), items...)
	b.mu.Unlock()
}

func (b *FakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.requests[r.Method+" "+r.URL.Path]++
	failWith := b.FailWith
	b.mu.Unlock()

	if failWith != 0 {
		writeDetail(w, failWith, "Error simulado")
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/token/":
		b.handleTokenObtain(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/api/token/refresh/":
		b.handleTokenRefresh(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/api/usuarios/perfil/":
		b.handleProfile(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/api/notificaciones/":
		b.handleNotificationList(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/api/notificaciones/contador/":
		b.handleUnreadCount(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/api/notificaciones/marcar_como_leidas/":
		b.handleMarkAllRead(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/notificaciones/"):
		b.handleNotificationItem(w, r)
	default:
		writeDetail(w, http.StatusNotFound, "No encontrado.")
	}
}

func (b *FakeBackend) handleTokenObtain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Solicitud inválida.")
		return
	}

	b.mu.Lock()
	password, ok := b.Credentials[req.Username]
	pair := api.TokenPair{Access: b.AccessToken, Refresh: b.RefreshToken}
	b.mu.Unlock()

	if !ok || password != req.Password {
		writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (b *FakeBackend) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Solicitud inválida.")
		return
	}

	b.mu.Lock()
	valid := req.Refresh == b.RefreshToken
	access := b.AccessToken
	b.mu.Unlock()

	if !valid {
		writeDetail(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (b *FakeBackend) handleProfile(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
		return
	}

	b.mu.Lock()
	profile := b.Profile
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, profile)
}

func (b *FakeBackend) handleNotificationList(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
		return
	}

	b.mu.Lock()
	items := append([]api.Notificacion(nil), b.Notifications...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, items)
}

func (b *FakeBackend) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
		return
	}

	b.mu.Lock()
	unread := 0
	for _, item := range b.Notifications {
		if !item.Leida {
			unread++
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"no_leidas": unread})
}

func (b *FakeBackend) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
		return
	}

	b.mu.Lock()
	for i := range b.Notifications {
		b.Notifications[i].Leida = true
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"mensaje": "Notificaciones marcadas como leídas"})
}

func (b *FakeBackend) handleNotificationItem(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r) {
		writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
		return
	}

	trimmed := strings.TrimPrefix(r.URL.Path, "/api/notificaciones/")
	idPart, action, _ := strings.Cut(strings.Trim(trimmed, "/"), "/")
	id, err := strconv.Atoi(idPart)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "No encontrado.")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	index := -1
	for i, item := range b.Notifications {
		if item.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		writeDetail(w, http.StatusNotFound, "No Notificacion matches the given query.")
		return
	}

	switch {
	case r.Method == http.MethodPost && action == "marcar_como_leida":
		b.Notifications[index].Leida = true
		writeJSON(w, http.StatusOK, map[string]string{"mensaje": "Notificación marcada como leída"})
	case r.Method == http.MethodDelete && action == "":
		b.Notifications = append(b.Notifications[:index], b.Notifications[index+1:]...)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeDetail(w, http.StatusMethodNotAllowed, "Método no permitido.")
	}
}

func (b *FakeBackend) authorized(r *http.Request) bool {
	b.mu.Lock()
	token := b.AccessToken
	b.mu.Unlock()
	return r.Header.Get("Authorization") == "Bearer "+token
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
