package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cuentas-claras/panel/internal/application"
)

type stubSessionService struct {
	result   application.LoginResult
	err      error
	snapshot application.SessionSnapshot

	loginCalls  int
	logoutCalls int
}

func (s *stubSessionService) Login(_ context.Context, params application.LoginParams) (application.LoginResult, error) {
	s.loginCalls++
	if s.err != nil {
		return application.LoginResult{}, s.err
	}
	return s.result, nil
}

func (s *stubSessionService) Logout(_ context.Context) {
	s.logoutCalls++
}

func (s *stubSessionService) Snapshot() application.SessionSnapshot {
	return s.snapshot
}

type stubNotificationService struct {
	items       []application.Notification
	refreshErr  error
	unread      int
	markReadErr error
	destination string
	openErr     error

	markedRead []int
	deleted    []int
	markedAll  int
}

func (s *stubNotificationService) RefreshList(_ context.Context) ([]application.Notification, error) {
	if s.refreshErr != nil {
		return nil, s.refreshErr
	}
	return s.items, nil
}

func (s *stubNotificationService) Unread() int { return s.unread }

func (s *stubNotificationService) MarkRead(_ context.Context, id int) error {
	s.markedRead = append(s.markedRead, id)
	return s.markReadErr
}

func (s *stubNotificationService) MarkAllRead(_ context.Context) error {
	s.markedAll++
	return nil
}

func (s *stubNotificationService) Delete(_ context.Context, id int) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubNotificationService) Open(_ context.Context, id int) (string, error) {
	if s.openErr != nil {
		return "", s.openErr
	}
	return s.destination, nil
}

func TestAuthHandlerLogin(t *testing.T) {
	t.Parallel()

	t.Run("successful login answers with the role redirect", func(t *testing.T) {
		t.Parallel()

		service := &stubSessionService{result: application.LoginResult{
			User:         application.UserProfile{ID: 1, Username: "admin", Role: application.RoleAdmin},
			RedirectPath: "/admin",
		}}
		handler := NewAuthHandler(service, nil)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"admin","password":"secreta"}`))
		handler.Login(recorder, request)

		if recorder.Code != http.StatusOK {
			t.Fatalf("unexpected status: %d", recorder.Code)
		}

		var resp struct {
			Redirect string `json:"redirect"`
			User     struct {
				Username string `json:"username"`
				Role     string `json:"rol"`
			} `json:"user"`
		}
		if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Redirect != "/admin" || resp.User.Role != "admin" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("rejected credentials answer 401 with the canned message", func(t *testing.T) {
		t.Parallel()

		service := &stubSessionService{err: application.ErrInvalidCredentials}
		handler := NewAuthHandler(service, nil)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"admin","password":"mala"}`))
		handler.Login(recorder, request)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("unexpected status: %d", recorder.Code)
		}

		var resp errorResponse
		if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.ErrorCode != "AUTH_INVALID_CREDENTIALS" {
			t.Fatalf("unexpected error code: %q", resp.ErrorCode)
		}
		if resp.Message != "Credenciales incorrectas. Verifica tu usuario y contraseña." {
			t.Fatalf("unexpected message: %q", resp.Message)
		}
	})

	t.Run("unreachable backend answers 502", func(t *testing.T) {
		t.Parallel()

		service := &stubSessionService{err: application.ErrBackendUnavailable}
		handler := NewAuthHandler(service, nil)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"admin","password":"secreta"}`))
		handler.Login(recorder, request)

		if recorder.Code != http.StatusBadGateway {
			t.Fatalf("unexpected status: %d", recorder.Code)
		}
	})

	t.Run("malformed body answers 400", func(t *testing.T) {
		t.Parallel()

		service := &stubSessionService{}
		handler := NewAuthHandler(service, nil)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{"))
		handler.Login(recorder, request)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("unexpected status: %d", recorder.Code)
		}
		if service.loginCalls != 0 {
			t.Fatal("malformed body must not reach the service")
		}
	})
}

func TestAuthHandlerLogout(t *testing.T) {
	t.Parallel()

	service := &stubSessionService{}
	handler := NewAuthHandler(service, nil)

	recorder := httptest.NewRecorder()
	handler.Logout(recorder, httptest.NewRequest(http.MethodPost, "/logout", nil))

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if service.logoutCalls != 1 {
		t.Fatalf("expected one logout call, got %d", service.logoutCalls)
	}
}

func TestNotificationHandler(t *testing.T) {
	t.Parallel()

	t.Run("list answers items and the counter", func(t *testing.T) {
		t.Parallel()

		service := &stubNotificationService{
			items:  []application.Notification{{ID: 1, Kind: "multa", Title: "Nueva multa"}},
			unread: 1,
		}
		handler := NewNotificationHandler(service, nil)

		recorder := httptest.NewRecorder()
		handler.List(recorder, httptest.NewRequest(http.MethodGet, "/notificaciones", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("unexpected status: %d", recorder.Code)
		}

		var resp struct {
			Notifications []notificationDTO `json:"notificaciones"`
			Unread        int               `json:"no_leidas"`
		}
		if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Notifications) != 1 || resp.Unread != 1 {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("expired session on refresh answers 401", func(t *testing.T) {
		t.Parallel()

		service := &stubNotificationService{refreshErr: application.ErrUnauthorized}
		handler := NewNotificationHandler(service, nil)

		recorder := httptest.NewRecorder()
		handler.List(recorder, httptest.NewRequest(http.MethodGet, "/notificaciones", nil))

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("unexpected status: %d", recorder.Code)
		}
	})

	t.Run("open answers the destination path", func(t *testing.T) {
		t.Parallel()

		service := &stubNotificationService{destination: "/admin/multas"}
		handler := NewNotificationHandler(service, nil)

		recorder := httptest.NewRecorder()
		handler.Open(recorder, httptest.NewRequest(http.MethodPost, "/notificaciones/1/abrir", nil), 1)

		if recorder.Code != http.StatusOK {
			t.Fatalf("unexpected status: %d", recorder.Code)
		}

		var resp openResponse
		if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Destination != "/admin/multas" {
			t.Fatalf("unexpected destination: %q", resp.Destination)
		}
	})
}

func TestResponderHandleServiceError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unauthorized forces 401", application.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden maps to 403", application.ErrForbidden, http.StatusForbidden},
		{"not found maps to 404", application.ErrNotFound, http.StatusNotFound},
		{"backend unavailable maps to 502", application.ErrBackendUnavailable, http.StatusBadGateway},
		{"server fault maps to 502", application.ErrServerFault, http.StatusBadGateway},
		{"validation maps to 422", &application.ValidationError{FieldErrors: map[string]string{"monto": "El monto es obligatorio"}}, http.StatusUnprocessableEntity},
		{"unknown maps to 500", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			recorder := httptest.NewRecorder()
			newResponder(nil).handleServiceError(context.Background(), recorder, tc.err)
			if recorder.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", recorder.Code, tc.wantStatus)
			}
		})
	}

	t.Run("validation payload carries field errors verbatim", func(t *testing.T) {
		t.Parallel()

		recorder := httptest.NewRecorder()
		vErr := &application.ValidationError{FieldErrors: map[string]string{"password2": "Las contraseñas no coinciden"}}
		newResponder(nil).handleServiceError(context.Background(), recorder, vErr)

		var resp errorResponse
		if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Errors["password2"] != "Las contraseñas no coinciden" {
			t.Fatalf("unexpected payload: %+v", resp)
		}
	})

	t.Run("remote detail wins over the canned forbidden text", func(t *testing.T) {
		t.Parallel()

		recorder := httptest.NewRecorder()
		err := &application.RemoteError{Kind: application.ErrForbidden, Detail: "No puedes pagar gastos de otros residentes"}
		newResponder(nil).handleServiceError(context.Background(), recorder, err)

		var resp errorResponse
		if decodeErr := json.Unmarshal(recorder.Body.Bytes(), &resp); decodeErr != nil {
			t.Fatalf("failed to decode response: %v", decodeErr)
		}
		if resp.Message != "No puedes pagar gastos de otros residentes" {
			t.Fatalf("unexpected message: %q", resp.Message)
		}
	})
}

func TestRouterRootRedirect(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		snapshot     application.SessionSnapshot
		wantStatus   int
		wantLocation string
	}{
		{"loading answers 503", application.SessionSnapshot{Loading: true}, http.StatusServiceUnavailable, ""},
		{"signed out goes to login", application.SessionSnapshot{}, http.StatusFound, "/login"},
		{"admin goes to the admin dashboard", application.SessionSnapshot{Authenticated: true, IsAdmin: true}, http.StatusFound, "/admin"},
		{"resident goes to the resident dashboard", application.SessionSnapshot{Authenticated: true}, http.StatusFound, "/resident"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sessions := &stubSessionReader{snapshot: tc.snapshot, principal: application.Principal{UserID: 1}}
			router := NewRouter(RouterConfig{Sessions: sessions})

			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

			if recorder.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", recorder.Code, tc.wantStatus)
			}
			if tc.wantLocation != "" {
				if location := recorder.Header().Get("Location"); location != tc.wantLocation {
					t.Fatalf("location = %q, want %q", location, tc.wantLocation)
				}
			}
		})
	}

	t.Run("unknown path goes to login", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(RouterConfig{Sessions: &stubSessionReader{}})

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/no-such-page", nil))

		if recorder.Code != http.StatusFound {
			t.Fatalf("unexpected status: %d", recorder.Code)
		}
		if location := recorder.Header().Get("Location"); location != "/login" {
			t.Fatalf("unexpected redirect: %s", location)
		}
	})
}

func TestParseIDPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		path     string
		prefix   string
		wantID   int
		wantRest string
		wantOK   bool
	}{
		{"bare id", "/notificaciones/12", "/notificaciones/", 12, "", true},
		{"id with action", "/admin/multas/4/anular", "/admin/multas/", 4, "anular", true},
		{"trailing slash", "/admin/multas/4/", "/admin/multas/", 4, "", true},
		{"non numeric id", "/notificaciones/abc", "/notificaciones/", 0, "", false},
		{"zero id", "/notificaciones/0", "/notificaciones/", 0, "", false},
		{"empty id", "/notificaciones/", "/notificaciones/", 0, "", false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			id, rest, ok := parseIDPath(tc.path, tc.prefix)
			if ok != tc.wantOK || id != tc.wantID || rest != tc.wantRest {
				t.Fatalf("parseIDPath = (%d, %q, %v), want (%d, %q, %v)", id, rest, ok, tc.wantID, tc.wantRest, tc.wantOK)
			}
		})
	}
}
