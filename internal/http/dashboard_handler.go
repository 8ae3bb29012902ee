package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cuentas-claras/panel/internal/application"
)

type dashboardService interface {
	AdminStats(ctx context.Context, principal application.Principal) (application.DashboardStats, error)
	ResidentSummary(ctx context.Context, principal application.Principal) (application.ResidentSummary, error)
}

// DashboardHandler serves the aggregate summaries for both dashboards.
type DashboardHandler struct {
	service   dashboardService
	responder responder
}

// NewDashboardHandler wires the dashboard endpoints.
func NewDashboardHandler(service dashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

// AdminStats answers with the backend aggregated statistics. Admin only.
func (h *DashboardHandler) AdminStats(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	stats, err := h.service.AdminStats(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, adminStatsResponse{
		Expenses: expenseStatsDTO{
			Total:         stats.Expenses.Total,
			Pending:       stats.Expenses.Pending,
			Paid:          stats.Expenses.Paid,
			PendingAmount: stats.Expenses.PendingAmount,
			PaidAmount:    stats.Expenses.PaidAmount,
		},
		Fines: fineStatsDTO{
			Total:         stats.Fines.Total,
			Pending:       stats.Fines.Pending,
			Paid:          stats.Fines.Paid,
			Voided:        stats.Fines.Voided,
			PendingAmount: stats.Fines.PendingAmount,
			PaidAmount:    stats.Fines.PaidAmount,
		},
	})
}

// ResidentSummary answers with the resident's pending counts.
func (h *DashboardHandler) ResidentSummary(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	summary, err := h.service.ResidentSummary(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, residentSummaryResponse{
		PendingExpenses: summary.PendingExpenses,
		PendingFines:    summary.PendingFines,
		Unread:          summary.Unread,
	})
}

type expenseStatsDTO struct {
	Total         int     `json:"total_gastos"`
	Pending       int     `json:"total_pendientes"`
	Paid          int     `json:"total_pagados"`
	PendingAmount float64 `json:"monto_pendiente"`
	PaidAmount    float64 `json:"monto_pagado"`
}

type fineStatsDTO struct {
	Total         int     `json:"total_multas"`
	Pending       int     `json:"total_pendientes"`
	Paid          int     `json:"total_pagadas"`
	Voided        int     `json:"total_anuladas"`
	PendingAmount float64 `json:"monto_pendiente"`
	PaidAmount    float64 `json:"monto_pagado"`
}

type adminStatsResponse struct {
	Expenses expenseStatsDTO `json:"gastos"`
	Fines    fineStatsDTO    `json:"multas"`
}

type residentSummaryResponse struct {
	PendingExpenses int `json:"gastos_pendientes"`
	PendingFines    int `json:"multas_pendientes"`
	Unread          int `json:"notificaciones_no_leidas"`
}
