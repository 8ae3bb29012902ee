// Package http provides the panel's HTTP handlers and middleware.
//
// The router exposes the following endpoints:
//   - POST /login: exchanges {"username","password"} for an authenticated
//     session. Responds with {"redirect","user"} pointing at the role
//     dashboard.
//   - POST /logout: discards the session. Always 204.
//   - GET /session: reports the session snapshot, including the loading
//     flag, so callers can decide which view to show.
//   - GET /admin, GET /resident: role dashboards with aggregate summaries.
//   - /admin/gastocomun, /resident/gastocomun: common expense CRUD plus
//     POST .../{id}/pagar. Mutations are admin only.
//   - /admin/multas, /resident/multas: fine CRUD plus POST .../{id}/pagar
//     and admin only POST .../{id}/anular.
//   - /admin/residentes: account management, admin only.
//   - GET /resident/profile, PUT /resident/profile: the acting account.
//   - /notificaciones: the cached notification list, unread counter, read
//     acknowledgements, and POST .../{id}/abrir which resolves the panel
//     path the notification points at.
//   - GET /metrics: Prometheus scrape endpoint.
//
// Every guarded route answers 503 with Retry-After while the session is
// still restoring, redirects to /login when signed out, and redirects
// non-admins from /admin/* to /resident.
//
// Request/response DTOs live alongside their respective handlers so tests
// and documentation share the same ground truth.
package http
