package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type stubVault struct {
	pair    TokenPair
	loadErr error
	saveErr error

	saved   []TokenPair
	cleared int
}

func (v *stubVault) SaveTokens(_ context.Context, pair TokenPair) error {
	v.saved = append(v.saved, pair)
	if v.saveErr != nil {
		return v.saveErr
	}
	v.pair = pair
	return nil
}

func (v *stubVault) LoadTokens(_ context.Context) (TokenPair, error) {
	if v.loadErr != nil {
		return TokenPair{}, v.loadErr
	}
	if v.pair.Access == "" {
		return TokenPair{}, ErrNotFound
	}
	return v.pair, nil
}

func (v *stubVault) ClearTokens(_ context.Context) error {
	v.cleared++
	v.pair = TokenPair{}
	return nil
}

type stubAuthGateway struct {
	pair       TokenPair
	obtainErr  error
	refreshed  string
	refreshErr error
	profile    UserProfile
	profileErr error

	obtainCalls  int
	refreshCalls int
	profileCalls int
}

func (g *stubAuthGateway) ObtainTokens(_ context.Context, username, password string) (TokenPair, error) {
	g.obtainCalls++
	if g.obtainErr != nil {
		return TokenPair{}, g.obtainErr
	}
	return g.pair, nil
}

func (g *stubAuthGateway) RefreshAccessToken(_ context.Context, refresh string) (string, error) {
	g.refreshCalls++
	if g.refreshErr != nil {
		return "", g.refreshErr
	}
	return g.refreshed, nil
}

func (g *stubAuthGateway) FetchProfile(_ context.Context, access string) (UserProfile, error) {
	g.profileCalls++
	if g.profileErr != nil {
		return UserProfile{}, g.profileErr
	}
	return g.profile, nil
}

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"exp": expiresAt.Unix(), "user_id": 7}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func fixedNow() time.Time {
	return time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
}

func TestSessionStoreInitialize(t *testing.T) {
	t.Parallel()

	adminProfile := UserProfile{ID: 7, Username: "admin", Role: RoleAdmin}

	t.Run("empty vault leaves the store signed out", func(t *testing.T) {
		t.Parallel()

		vault := &stubVault{}
		gateway := &stubAuthGateway{}
		store := NewSessionStore(vault, gateway, fixedNow)

		if err := store.Initialize(context.Background()); err != nil {
			t.Fatalf("Initialize returned error: %v", err)
		}

		snapshot := store.Snapshot()
		if snapshot.Loading {
			t.Fatal("expected loading to clear")
		}
		if snapshot.Authenticated {
			t.Fatal("expected unauthenticated store")
		}
		if gateway.profileCalls != 0 {
			t.Fatalf("expected no profile fetch, got %d", gateway.profileCalls)
		}
	})

	t.Run("valid token restores the session without refreshing", func(t *testing.T) {
		t.Parallel()

		access := signedToken(t, fixedNow().Add(time.Hour))
		vault := &stubVault{pair: TokenPair{Access: access, Refresh: "refresh-token"}}
		gateway := &stubAuthGateway{profile: adminProfile}
		store := NewSessionStore(vault, gateway, fixedNow)

		if err := store.Initialize(context.Background()); err != nil {
			t.Fatalf("Initialize returned error: %v", err)
		}

		snapshot := store.Snapshot()
		if !snapshot.Authenticated {
			t.Fatal("expected authenticated store")
		}
		if !snapshot.IsAdmin {
			t.Fatal("expected admin snapshot")
		}
		if snapshot.User == nil || snapshot.User.Username != "admin" {
			t.Fatalf("unexpected user: %+v", snapshot.User)
		}
		if gateway.refreshCalls != 0 {
			t.Fatalf("expected no refresh, got %d", gateway.refreshCalls)
		}
	})

	t.Run("expired token is refreshed before the profile fetch", func(t *testing.T) {
		t.Parallel()

		access := signedToken(t, fixedNow().Add(-time.Minute))
		vault := &stubVault{pair: TokenPair{Access: access, Refresh: "refresh-token"}}
		gateway := &stubAuthGateway{refreshed: signedToken(t, fixedNow().Add(time.Hour)), profile: adminProfile}
		store := NewSessionStore(vault, gateway, fixedNow)

		if err := store.Initialize(context.Background()); err != nil {
			t.Fatalf("Initialize returned error: %v", err)
		}

		if gateway.refreshCalls != 1 {
			t.Fatalf("expected one refresh, got %d", gateway.refreshCalls)
		}
		if !store.Snapshot().Authenticated {
			t.Fatal("expected authenticated store")
		}
		if len(vault.saved) == 0 {
			t.Fatal("expected refreshed token to be persisted")
		}
	})

	t.Run("rejected token forces a logout and clears the vault", func(t *testing.T) {
		t.Parallel()

		access := signedToken(t, fixedNow().Add(time.Hour))
		vault := &stubVault{pair: TokenPair{Access: access, Refresh: "refresh-token"}}
		gateway := &stubAuthGateway{profileErr: ErrUnauthorized}
		store := NewSessionStore(vault, gateway, fixedNow)

		if err := store.Initialize(context.Background()); err != nil {
			t.Fatalf("Initialize returned error: %v", err)
		}

		snapshot := store.Snapshot()
		if snapshot.Authenticated {
			t.Fatal("expected unauthenticated store")
		}
		if snapshot.LastError == "" {
			t.Fatal("expected session expiry message")
		}
		if vault.cleared == 0 {
			t.Fatal("expected vault to be cleared")
		}
	})

	t.Run("unreachable backend keeps the stored tokens", func(t *testing.T) {
		t.Parallel()

		access := signedToken(t, fixedNow().Add(time.Hour))
		vault := &stubVault{pair: TokenPair{Access: access, Refresh: "refresh-token"}}
		gateway := &stubAuthGateway{profileErr: ErrBackendUnavailable}
		store := NewSessionStore(vault, gateway, fixedNow)

		err := store.Initialize(context.Background())
		if !errors.Is(err, ErrBackendUnavailable) {
			t.Fatalf("expected ErrBackendUnavailable, got %v", err)
		}

		if vault.cleared != 0 {
			t.Fatal("vault must survive a transport failure")
		}
		if store.Snapshot().Loading {
			t.Fatal("expected loading to clear even on failure")
		}
	})
}

func TestSessionStoreLogin(t *testing.T) {
	t.Parallel()

	t.Run("success persists tokens and reports the role redirect", func(t *testing.T) {
		t.Parallel()

		vault := &stubVault{}
		gateway := &stubAuthGateway{
			pair:    TokenPair{Access: "access-token", Refresh: "refresh-token"},
			profile: UserProfile{ID: 3, Username: "vecina", Role: RoleResident},
		}
		store := NewSessionStore(vault, gateway, fixedNow)

		result, err := store.Login(context.Background(), LoginParams{Username: "vecina", Password: "secreta"})
		if err != nil {
			t.Fatalf("Login returned error: %v", err)
		}
		if result.RedirectPath != "/resident" {
			t.Fatalf("unexpected redirect: %s", result.RedirectPath)
		}
		if len(vault.saved) != 1 {
			t.Fatalf("expected one vault save, got %d", len(vault.saved))
		}

		snapshot := store.Snapshot()
		if !snapshot.Authenticated || snapshot.IsAdmin {
			t.Fatalf("unexpected snapshot: %+v", snapshot)
		}
		if snapshot.LastError != "" {
			t.Fatalf("expected clean error state, got %q", snapshot.LastError)
		}
	})

	t.Run("admin login redirects to the admin dashboard", func(t *testing.T) {
		t.Parallel()

		gateway := &stubAuthGateway{
			pair:    TokenPair{Access: "access-token", Refresh: "refresh-token"},
			profile: UserProfile{ID: 1, Username: "admin", Role: RoleAdmin},
		}
		store := NewSessionStore(&stubVault{}, gateway, fixedNow)

		result, err := store.Login(context.Background(), LoginParams{Username: "admin", Password: "secreta"})
		if err != nil {
			t.Fatalf("Login returned error: %v", err)
		}
		if result.RedirectPath != "/admin" {
			t.Fatalf("unexpected redirect: %s", result.RedirectPath)
		}
	})

	t.Run("rejected credentials surface the canned message", func(t *testing.T) {
		t.Parallel()

		vault := &stubVault{}
		gateway := &stubAuthGateway{obtainErr: &RemoteError{Kind: ErrUnauthorized, Detail: "No active account found"}}
		store := NewSessionStore(vault, gateway, fixedNow)

		_, err := store.Login(context.Background(), LoginParams{Username: "vecina", Password: "incorrecta"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
		if len(vault.saved) != 0 {
			t.Fatal("failed login must not persist tokens")
		}

		want := "Credenciales incorrectas. Verifica tu usuario y contraseña."
		if got := store.Snapshot().LastError; got != want {
			t.Fatalf("unexpected message: %q", got)
		}
	})

	t.Run("unreachable backend surfaces the connection message", func(t *testing.T) {
		t.Parallel()

		gateway := &stubAuthGateway{obtainErr: ErrBackendUnavailable}
		store := NewSessionStore(&stubVault{}, gateway, fixedNow)

		_, err := store.Login(context.Background(), LoginParams{Username: "vecina", Password: "secreta"})
		if !errors.Is(err, ErrBackendUnavailable) {
			t.Fatalf("expected ErrBackendUnavailable, got %v", err)
		}

		want := "No se pudo conectar con el servidor. Verifica tu conexión a internet."
		if got := store.Snapshot().LastError; got != want {
			t.Fatalf("unexpected message: %q", got)
		}
	})

	t.Run("blank credentials are rejected locally", func(t *testing.T) {
		t.Parallel()

		gateway := &stubAuthGateway{}
		store := NewSessionStore(&stubVault{}, gateway, fixedNow)

		_, err := store.Login(context.Background(), LoginParams{Username: "  ", Password: ""})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
		if gateway.obtainCalls != 0 {
			t.Fatal("blank credentials must not reach the backend")
		}
	})

	t.Run("concurrent login attempts are refused", func(t *testing.T) {
		t.Parallel()

		store := NewSessionStore(&stubVault{}, &stubAuthGateway{}, fixedNow)
		store.mu.Lock()
		store.loginInFlight = true
		store.mu.Unlock()

		_, err := store.Login(context.Background(), LoginParams{Username: "vecina", Password: "secreta"})
		if !errors.Is(err, ErrLoginInFlight) {
			t.Fatalf("expected ErrLoginInFlight, got %v", err)
		}
	})

	t.Run("burst of attempts trips the rate limit", func(t *testing.T) {
		t.Parallel()

		gateway := &stubAuthGateway{obtainErr: ErrUnauthorized}
		store := NewSessionStore(&stubVault{}, gateway, fixedNow)

		var err error
		for i := 0; i < 6; i++ {
			_, err = store.Login(context.Background(), LoginParams{Username: "vecina", Password: "incorrecta"})
		}
		if !errors.Is(err, ErrTooManyAttempts) {
			t.Fatalf("expected ErrTooManyAttempts, got %v", err)
		}
	})
}

func TestSessionStoreLogout(t *testing.T) {
	t.Parallel()

	vault := &stubVault{}
	gateway := &stubAuthGateway{
		pair:    TokenPair{Access: "access-token", Refresh: "refresh-token"},
		profile: UserProfile{ID: 3, Username: "vecina", Role: RoleResident},
	}
	store := NewSessionStore(vault, gateway, fixedNow)
	if _, err := store.Login(context.Background(), LoginParams{Username: "vecina", Password: "secreta"}); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	store.Logout(context.Background())
	store.Logout(context.Background())

	snapshot := store.Snapshot()
	if snapshot.Authenticated || snapshot.User != nil {
		t.Fatalf("expected signed out snapshot, got %+v", snapshot)
	}
	if vault.cleared == 0 {
		t.Fatal("expected vault to be cleared")
	}
	if _, err := store.Token(context.Background()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized token source, got %v", err)
	}
}

func TestSessionStoreSetUser(t *testing.T) {
	t.Parallel()

	gateway := &stubAuthGateway{
		pair:    TokenPair{Access: "access-token", Refresh: "refresh-token"},
		profile: UserProfile{ID: 3, Username: "vecina", FirstName: "Ana", Phone: "111", Role: RoleResident},
	}
	store := NewSessionStore(&stubVault{}, gateway, fixedNow)
	if _, err := store.Login(context.Background(), LoginParams{Username: "vecina", Password: "secreta"}); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	phone := "222"
	store.SetUser(ProfileUpdate{Phone: &phone})

	user := store.Snapshot().User
	if user == nil {
		t.Fatal("expected a user in the snapshot")
	}
	if user.Phone != "222" {
		t.Fatalf("expected merged phone, got %q", user.Phone)
	}
	if user.FirstName != "Ana" {
		t.Fatalf("untouched field changed: %q", user.FirstName)
	}
}

func TestSessionStorePrincipal(t *testing.T) {
	t.Parallel()

	store := NewSessionStore(&stubVault{}, &stubAuthGateway{}, fixedNow)
	if _, err := store.Principal(); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
