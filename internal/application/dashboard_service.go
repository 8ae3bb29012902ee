package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DashboardService aggregates the summaries shown on the two dashboards.
// Admin aggregates come straight from the backend statistics endpoints and
// are cached briefly; the resident summary is derived from the resident's
// own lists plus the local unread counter.
type DashboardService struct {
	expenses ExpenseGateway
	fines    FineGateway
	center   *NotificationCenter
	cache    *statsCache
	logger   *slog.Logger
}

// NewDashboardService wires dependencies for the dashboard service.
func NewDashboardService(expenses ExpenseGateway, fines FineGateway, center *NotificationCenter, now func() time.Time) *DashboardService {
	return NewDashboardServiceWithLogger(expenses, fines, center, now, nil)
}

// NewDashboardServiceWithLogger constructs a DashboardService with a specified logger.
func NewDashboardServiceWithLogger(expenses ExpenseGateway, fines FineGateway, center *NotificationCenter, now func() time.Time, logger *slog.Logger) *DashboardService {
	return &DashboardService{
		expenses: expenses,
		fines:    fines,
		center:   center,
		cache:    newStatsCache(30*time.Second, 32, now),
		logger:   defaultLogger(logger),
	}
}

// AdminStats returns the backend aggregated expense and fine statistics.
// Admin only. Results are cached for a short window per principal.
func (s *DashboardService) AdminStats(ctx context.Context, principal Principal) (stats DashboardStats, err error) {
	if s == nil {
		err = fmt.Errorf("DashboardService is nil")
		return
	}
	if !principal.IsAdmin {
		err = ErrForbidden
		return
	}
	if s.expenses == nil || s.fines == nil {
		err = fmt.Errorf("stats gateways not configured")
		return
	}

	key := buildStatsCacheKey(principal)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	logger := serviceLogger(ctx, s.logger, "DashboardService", "AdminStats", "user_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "stats fetch failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var expenseStats ExpenseStats
	expenseStats, err = s.expenses.ExpenseStats(ctx)
	if err != nil {
		return
	}
	var fineStats FineStats
	fineStats, err = s.fines.FineStats(ctx)
	if err != nil {
		return
	}

	stats = DashboardStats{Expenses: expenseStats, Fines: fineStats}
	s.cache.Store(key, stats)
	return
}

// ResidentSummary derives the resident's pending counts from their own
// visible records. The backend scopes both lists to the caller.
func (s *DashboardService) ResidentSummary(ctx context.Context, principal Principal) (summary ResidentSummary, err error) {
	if s == nil {
		err = fmt.Errorf("DashboardService is nil")
		return
	}
	if s.expenses == nil || s.fines == nil {
		err = fmt.Errorf("stats gateways not configured")
		return
	}

	var pending []CommonExpense
	pending, err = s.expenses.ListExpenses(ctx, ExpenseFilterPending)
	if err != nil {
		return
	}
	var fines []Fine
	fines, err = s.fines.ListFines(ctx)
	if err != nil {
		return
	}

	summary.PendingExpenses = len(pending)
	for _, fine := range fines {
		if fine.Status == FineStatusPending {
			summary.PendingFines++
		}
	}
	summary.Unread = s.center.Unread()
	return
}

// InvalidateStats drops the cached aggregates. Called after any mutation
// that changes them.
func (s *DashboardService) InvalidateStats() {
	if s == nil {
		return
	}
	s.cache.Invalidate()
}
