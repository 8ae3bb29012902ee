package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

// TokenPair holds the backend issued JWT pair.
type TokenPair struct {
	Access  string
	Refresh string
}

// AuthGateway abstracts the backend authentication endpoints.
type AuthGateway interface {
	ObtainTokens(ctx context.Context, username, password string) (TokenPair, error)
	RefreshAccessToken(ctx context.Context, refresh string) (string, error)
	FetchProfile(ctx context.Context, access string) (UserProfile, error)
}

// CredentialVault persists the token pair across restarts.
type CredentialVault interface {
	SaveTokens(ctx context.Context, pair TokenPair) error
	LoadTokens(ctx context.Context) (TokenPair, error)
	ClearTokens(ctx context.Context) error
}

// LoginParams carries the credentials submitted by the operator.
type LoginParams struct {
	Username string
	Password string
}

// LoginResult reports a successful login and where to send the operator.
type LoginResult struct {
	User         UserProfile
	RedirectPath string
}

// refreshMargin is how close to expiry an access token is still considered
// usable. Tokens within the margin are refreshed before the profile fetch.
const refreshMargin = 30 * time.Second

// SessionStore owns the operator session: the token pair, the loaded
// profile, and the loading/authenticated flags the route guard reads.
// All state transitions happen under the store's lock; Snapshot returns
// a consistent value copy.
type SessionStore struct {
	vault   CredentialVault
	gateway AuthGateway
	limiter *rate.Limiter
	now     func() time.Time
	logger  *slog.Logger

	mu            sync.RWMutex
	loading       bool
	authenticated bool
	loginInFlight bool
	user          *UserProfile
	lastError     string
	tokens        TokenPair
}

// NewSessionStore constructs a SessionStore with the provided dependencies.
func NewSessionStore(vault CredentialVault, gateway AuthGateway, now func() time.Time) *SessionStore {
	return NewSessionStoreWithLogger(vault, gateway, now, nil)
}

// NewSessionStoreWithLogger constructs a SessionStore with a specified logger.
func NewSessionStoreWithLogger(vault CredentialVault, gateway AuthGateway, now func() time.Time, logger *slog.Logger) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{
		vault:   vault,
		gateway: gateway,
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 5),
		now:     now,
		logger:  defaultLogger(logger),
		loading: true,
	}
}

func (s *SessionStore) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SessionStore", operation, attrs...)
}

// Initialize restores a persisted session. It always clears the loading
// flag, whether or not a session could be restored. A rejected token pair
// is purged from the vault; a mere transport failure keeps it for the next
// start.
func (s *SessionStore) Initialize(ctx context.Context) (err error) {
	if s == nil {
		return fmt.Errorf("SessionStore is nil")
	}
	if s.gateway == nil {
		return fmt.Errorf("auth gateway not configured")
	}

	logger := s.loggerWith(ctx, "Initialize")
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		if err != nil {
			logger.ErrorContext(ctx, "session restore failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session restore finished", "authenticated", s.Snapshot().Authenticated)
	}()

	var pair TokenPair
	if s.vault != nil {
		pair, err = s.vault.LoadTokens(ctx)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				err = nil
			}
			return
		}
	}
	if pair.Access == "" {
		return
	}

	access := pair.Access
	if tokenExpiresWithin(access, s.now(), refreshMargin) {
		var refreshed string
		refreshed, err = s.gateway.RefreshAccessToken(ctx, pair.Refresh)
		if err != nil {
			if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrSessionExpired) {
				s.forceLogout(ctx, "Tu sesión ha expirado. Por favor, inicia sesión nuevamente.")
				err = nil
			}
			return
		}
		access = refreshed
		pair.Access = refreshed
		if s.vault != nil {
			if saveErr := s.vault.SaveTokens(ctx, pair); saveErr != nil {
				logger.ErrorContext(ctx, "failed to persist refreshed token", "error", saveErr)
			}
		}
	}

	var profile UserProfile
	profile, err = s.gateway.FetchProfile(ctx, access)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrSessionExpired) {
			s.forceLogout(ctx, "Tu sesión ha expirado. Por favor, inicia sesión nuevamente.")
			err = nil
		}
		return
	}

	s.mu.Lock()
	s.tokens = pair
	s.user = &profile
	s.authenticated = true
	s.lastError = ""
	s.mu.Unlock()
	return
}

// Login exchanges credentials for a token pair and loads the profile.
// Tokens are persisted only after the whole exchange succeeds, so a failed
// login never clobbers a restorable session.
func (s *SessionStore) Login(ctx context.Context, params LoginParams) (result LoginResult, err error) {
	if s == nil {
		err = fmt.Errorf("SessionStore is nil")
		return
	}
	if s.gateway == nil {
		err = fmt.Errorf("auth gateway not configured")
		return
	}

	username := strings.TrimSpace(params.Username)
	logger := s.loggerWith(ctx, "Login", "username", username)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID, "role", result.User.Role).InfoContext(ctx, "login succeeded")
	}()

	if username == "" || params.Password == "" {
		err = ErrInvalidCredentials
		s.recordError(loginErrorMessage(err))
		return
	}

	s.mu.Lock()
	if s.loginInFlight {
		s.mu.Unlock()
		err = ErrLoginInFlight
		return
	}
	s.loginInFlight = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loginInFlight = false
		s.mu.Unlock()
	}()

	if !s.limiter.Allow() {
		err = ErrTooManyAttempts
		s.recordError(loginErrorMessage(err))
		return
	}

	var pair TokenPair
	pair, err = s.gateway.ObtainTokens(ctx, username, params.Password)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			err = &RemoteError{Kind: ErrInvalidCredentials, Detail: RemoteDetail(err)}
		}
		s.recordError(loginErrorMessage(err))
		return
	}

	var profile UserProfile
	profile, err = s.gateway.FetchProfile(ctx, pair.Access)
	if err != nil {
		s.recordError(loginErrorMessage(err))
		return
	}

	if s.vault != nil {
		if saveErr := s.vault.SaveTokens(ctx, pair); saveErr != nil {
			logger.ErrorContext(ctx, "failed to persist tokens", "error", saveErr)
		}
	}

	s.mu.Lock()
	s.tokens = pair
	s.user = &profile
	s.authenticated = true
	s.loading = false
	s.lastError = ""
	s.mu.Unlock()

	redirect := "/resident"
	if profile.Role.IsAdmin() {
		redirect = "/admin"
	}
	result = LoginResult{User: profile, RedirectPath: redirect}
	return
}

// Logout discards the session. It never fails: vault errors are logged and
// swallowed so the operator always ends up signed out locally.
func (s *SessionStore) Logout(ctx context.Context) {
	if s == nil {
		return
	}
	logger := s.loggerWith(ctx, "Logout")

	s.mu.Lock()
	wasAuthenticated := s.authenticated
	s.tokens = TokenPair{}
	s.user = nil
	s.authenticated = false
	s.lastError = ""
	s.mu.Unlock()

	if s.vault != nil {
		if err := s.vault.ClearTokens(ctx); err != nil {
			logger.ErrorContext(ctx, "failed to clear vault", "error", err)
		}
	}
	if wasAuthenticated {
		logger.InfoContext(ctx, "logged out")
	}
}

// ForceLogout discards the session and records a user facing message
// explaining why. Used when the backend starts rejecting the held token.
func (s *SessionStore) ForceLogout(ctx context.Context, message string) {
	if s == nil {
		return
	}
	s.forceLogout(ctx, message)
}

func (s *SessionStore) forceLogout(ctx context.Context, message string) {
	s.Logout(ctx)
	s.recordError(message)
	s.loggerWith(ctx, "ForceLogout").WarnContext(ctx, "session invalidated", "reason", message)
}

// SetUser merges updated profile fields into the held profile. Nil fields
// keep their current value. A no-op when signed out.
func (s *SessionStore) SetUser(update ProfileUpdate) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return
	}
	if update.FirstName != nil {
		s.user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		s.user.LastName = *update.LastName
	}
	if update.Email != nil {
		s.user.Email = *update.Email
	}
	if update.Phone != nil {
		s.user.Phone = *update.Phone
	}
	if update.ResidenceNumber != nil {
		s.user.ResidenceNumber = *update.ResidenceNumber
	}
}

// ReplaceUser swaps the whole held profile, keeping authentication state.
func (s *SessionStore) ReplaceUser(profile UserProfile) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated {
		return
	}
	s.user = &profile
}

// Snapshot returns a consistent copy of the session state.
func (s *SessionStore) Snapshot() SessionSnapshot {
	if s == nil {
		return SessionSnapshot{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := SessionSnapshot{
		Loading:       s.loading,
		Authenticated: s.authenticated,
		LastError:     s.lastError,
	}
	if s.user != nil {
		user := *s.user
		snapshot.User = &user
		snapshot.IsAdmin = user.Role.IsAdmin()
	}
	return snapshot
}

// Principal returns the acting principal, or ErrUnauthorized when signed out.
func (s *SessionStore) Principal() (Principal, error) {
	if s == nil {
		return Principal{}, ErrUnauthorized
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticated || s.user == nil {
		return Principal{}, ErrUnauthorized
	}
	return Principal{UserID: s.user.ID, IsAdmin: s.user.Role.IsAdmin()}, nil
}

// Token implements the token source consumed by the backend client.
func (s *SessionStore) Token(ctx context.Context) (string, error) {
	if s == nil {
		return "", ErrUnauthorized
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tokens.Access == "" {
		return "", ErrUnauthorized
	}
	return s.tokens.Access, nil
}

func (s *SessionStore) recordError(message string) {
	s.mu.Lock()
	s.lastError = message
	s.mu.Unlock()
}

// loginErrorMessage maps a login failure onto the Spanish message shown to
// the operator. Backend supplied detail wins over the canned texts.
func loginErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthorized):
		return "Credenciales incorrectas. Verifica tu usuario y contraseña."
	case errors.Is(err, ErrBackendUnavailable):
		return "No se pudo conectar con el servidor. Verifica tu conexión a internet."
	case errors.Is(err, ErrTooManyAttempts):
		return "Demasiados intentos. Espera un momento e intenta nuevamente."
	}
	if detail := RemoteDetail(err); detail != "" {
		return detail
	}
	return "Error al iniciar sesión"
}

// LoginErrorMessage exposes the login failure text for transport handlers.
func LoginErrorMessage(err error) string {
	return loginErrorMessage(err)
}

// tokenExpiresWithin reports whether the JWT expires before now+margin.
// Unparseable tokens are treated as expired so the refresh path decides.
func tokenExpiresWithin(token string, now time.Time, margin time.Duration) bool {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsed, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return true
	}
	expiry, err := parsed.Claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return true
	}
	return !expiry.After(now.Add(margin))
}
