package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// RouterConfig carries the handlers and middleware the router assembles.
type RouterConfig struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Expenses      *ExpenseHandler
	Fines         *FineHandler
	Notifications *NotificationHandler
	Dashboard     *DashboardHandler
	Sessions      SessionReader
	Metrics       http.Handler
	Logger        *slog.Logger
	Middleware    []func(http.Handler) http.Handler
}

// NewRouter assembles the panel routes. Admin sections live under /admin,
// resident sections under /resident, and notifications are shared by any
// authenticated principal. Unknown paths land on the login page.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	logger := defaultLogger(cfg.Logger)

	guard := func(next http.Handler) http.Handler { return next }
	if cfg.Sessions != nil {
		guard = Guard(cfg.Sessions, logger)
	}
	adminOnly := RequireAdmin()

	guarded := func(h http.HandlerFunc) http.Handler { return guard(h) }
	adminGuarded := func(h http.HandlerFunc) http.Handler { return guard(adminOnly(h)) }

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		redirectToRoleRoot(w, r, cfg.Sessions)
	})

	if cfg.Auth != nil {
		mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Login(w, r)
		})
		mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Logout(w, r)
		})
		mux.HandleFunc("/session", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Auth.Session(w, r)
		})
	}

	if cfg.Metrics != nil {
		mux.Handle("/metrics", cfg.Metrics)
	}

	if cfg.Dashboard != nil {
		mux.Handle("/admin", adminGuarded(cfg.Dashboard.AdminStats))
		mux.Handle("/resident", guarded(cfg.Dashboard.ResidentSummary))
	}

	if cfg.Expenses != nil {
		mux.Handle("/admin/gastocomun", adminGuarded(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Expenses.List(w, r)
			case http.MethodPost:
				cfg.Expenses.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		}))
		mux.Handle("/admin/gastocomun/", adminGuarded(func(w http.ResponseWriter, r *http.Request) {
			expenseSubroute(cfg.Expenses, w, r, "/admin/gastocomun/", true)
		}))
		mux.Handle("/resident/gastocomun", guarded(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Expenses.List(w, r)
		}))
		mux.Handle("/resident/gastocomun/", guarded(func(w http.ResponseWriter, r *http.Request) {
			expenseSubroute(cfg.Expenses, w, r, "/resident/gastocomun/", false)
		}))
	}

	if cfg.Fines != nil {
		mux.Handle("/admin/multas", adminGuarded(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Fines.List(w, r)
			case http.MethodPost:
				cfg.Fines.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		}))
		mux.Handle("/admin/multas/", adminGuarded(func(w http.ResponseWriter, r *http.Request) {
			fineSubroute(cfg.Fines, w, r, "/admin/multas/", true)
		}))
		mux.Handle("/resident/multas", guarded(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Fines.List(w, r)
		}))
		mux.Handle("/resident/multas/", guarded(func(w http.ResponseWriter, r *http.Request) {
			fineSubroute(cfg.Fines, w, r, "/resident/multas/", false)
		}))
	}

	if cfg.Users != nil {
		mux.Handle("/admin/residentes", adminGuarded(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Users.List(w, r)
			case http.MethodPost:
				cfg.Users.Register(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		}))
		mux.Handle("/admin/residentes/", adminGuarded(func(w http.ResponseWriter, r *http.Request) {
			id, rest, ok := parseIDPath(r.URL.Path, "/admin/residentes/")
			if !ok || rest != "" {
				http.NotFound(w, r)
				return
			}
			switch r.Method {
			case http.MethodGet:
				cfg.Users.Get(w, r, id)
			case http.MethodPut:
				cfg.Users.Update(w, r, id)
			case http.MethodDelete:
				cfg.Users.Delete(w, r, id)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		}))
		if cfg.Auth != nil {
			mux.Handle("/resident/profile", guarded(func(w http.ResponseWriter, r *http.Request) {
				switch r.Method {
				case http.MethodGet:
					cfg.Auth.Session(w, r)
				case http.MethodPut:
					cfg.Users.UpdateProfile(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut)
				}
			}))
		}
	}

	if cfg.Notifications != nil {
		mux.Handle("/notificaciones", guarded(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Notifications.List(w, r)
		}))
		mux.Handle("/notificaciones/contador", guarded(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Notifications.UnreadCount(w, r)
		}))
		mux.Handle("/notificaciones/leer-todas", guarded(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Notifications.MarkAllRead(w, r)
		}))
		mux.Handle("/notificaciones/", guarded(func(w http.ResponseWriter, r *http.Request) {
			notificationSubroute(cfg.Notifications, w, r)
		}))
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}

func redirectToRoleRoot(w http.ResponseWriter, r *http.Request, sessions SessionReader) {
	if sessions == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	snapshot := sessions.Snapshot()
	switch {
	case snapshot.Loading:
		w.Header().Set("Retry-After", "1")
		newResponder(nil).writeError(r.Context(), w, http.StatusServiceUnavailable, nil)
	case !snapshot.Authenticated:
		http.Redirect(w, r, "/login", http.StatusFound)
	case snapshot.IsAdmin:
		http.Redirect(w, r, "/admin", http.StatusFound)
	default:
		http.Redirect(w, r, "/resident", http.StatusFound)
	}
}

func expenseSubroute(h *ExpenseHandler, w http.ResponseWriter, r *http.Request, prefix string, admin bool) {
	id, rest, ok := parseIDPath(r.URL.Path, prefix)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch rest {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.Get(w, r, id)
		case http.MethodPut:
			if !admin {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			h.Update(w, r, id)
		case http.MethodDelete:
			if !admin {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			h.Delete(w, r, id)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	case "pagar":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		h.Pay(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func fineSubroute(h *FineHandler, w http.ResponseWriter, r *http.Request, prefix string, admin bool) {
	id, rest, ok := parseIDPath(r.URL.Path, prefix)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch rest {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.Get(w, r, id)
		case http.MethodPut:
			if !admin {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			h.Update(w, r, id)
		case http.MethodDelete:
			if !admin {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			h.Delete(w, r, id)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	case "pagar":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		h.Pay(w, r, id)
	case "anular":
		if !admin || r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		h.Void(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func notificationSubroute(h *NotificationHandler, w http.ResponseWriter, r *http.Request) {
	id, rest, ok := parseIDPath(r.URL.Path, "/notificaciones/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch rest {
	case "":
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, http.MethodDelete)
			return
		}
		h.Delete(w, r, id)
	case "leer":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		h.MarkRead(w, r, id)
	case "abrir":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		h.Open(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

// parseIDPath splits "<prefix><id>[/<rest>]" into its numeric id and the
// remainder after the id.
func parseIDPath(path, prefix string) (int, string, bool) {
	trimmed := strings.TrimPrefix(path, prefix)
	if trimmed == path || trimmed == "" {
		return 0, "", false
	}

	idPart := trimmed
	rest := ""
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		idPart = trimmed[:idx]
		rest = strings.Trim(trimmed[idx+1:], "/")
	}

	id, err := strconv.Atoi(idPart)
	if err != nil || id <= 0 {
		return 0, "", false
	}
	return id, rest, true
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
