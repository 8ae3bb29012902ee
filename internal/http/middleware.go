package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/cuentas-claras/panel/internal/application"
)

// SessionReader is the slice of the session store the middleware needs.
type SessionReader interface {
	Snapshot() application.SessionSnapshot
	Principal() (application.Principal, error)
}

// Guard gates a route on the session state. While the session is still
// restoring it answers 503 with a Retry-After so the caller tries again;
// signed out requests are redirected to the login page; authorized ones
// proceed with the principal attached to the context.
func Guard(sessions SessionReader, logger *slog.Logger) func(http.Handler) http.Handler {
	base := defaultLogger(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snapshot := sessions.Snapshot()

			if snapshot.Loading {
				w.Header().Set("Retry-After", "1")
				newResponder(base).writeError(r.Context(), w, http.StatusServiceUnavailable, nil)
				return
			}
			if !snapshot.Authenticated {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			principal, err := sessions.Principal()
			if err != nil {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireAdmin redirects authenticated non-admin principals to the resident
// dashboard instead of serving the admin route.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok || !principal.IsAdmin {
				http.Redirect(w, r, "/resident", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger attaches a request scoped logger carrying a request id and
// logs start and completion of every request.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := base.With(
				"request_id", uuid.NewString(),
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}
