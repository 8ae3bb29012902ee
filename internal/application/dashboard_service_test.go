package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDashboardServiceAdminStats(t *testing.T) {
	t.Parallel()

	admin := Principal{UserID: 1, IsAdmin: true}

	t.Run("residents cannot fetch admin stats", func(t *testing.T) {
		t.Parallel()

		service := NewDashboardService(&stubExpenseGateway{}, &stubFineGateway{}, nil, fixedNow)
		if _, err := service.AdminStats(context.Background(), Principal{UserID: 3}); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("combines both backend aggregates", func(t *testing.T) {
		t.Parallel()

		expenses := &stubExpenseGateway{stats: ExpenseStats{Total: 10, Pending: 3, Paid: 7, PendingAmount: 45000}}
		fines := &stubFineGateway{stats: FineStats{Total: 5, Pending: 2, Paid: 2, Voided: 1}}
		service := NewDashboardService(expenses, fines, nil, fixedNow)

		stats, err := service.AdminStats(context.Background(), admin)
		if err != nil {
			t.Fatalf("AdminStats returned error: %v", err)
		}
		if stats.Expenses.Pending != 3 || stats.Fines.Voided != 1 {
			t.Fatalf("unexpected stats: %+v", stats)
		}
	})

	t.Run("serves the cached aggregate inside the ttl", func(t *testing.T) {
		t.Parallel()

		expenses := &stubExpenseGateway{stats: ExpenseStats{Total: 10}}
		fines := &stubFineGateway{}
		service := NewDashboardService(expenses, fines, nil, fixedNow)

		if _, err := service.AdminStats(context.Background(), admin); err != nil {
			t.Fatalf("AdminStats returned error: %v", err)
		}

		expenses.statsErr = ErrServerFault
		stats, err := service.AdminStats(context.Background(), admin)
		if err != nil {
			t.Fatalf("cached AdminStats returned error: %v", err)
		}
		if stats.Expenses.Total != 10 {
			t.Fatalf("expected cached value, got %+v", stats)
		}
	})

	t.Run("expired entries are refetched", func(t *testing.T) {
		t.Parallel()

		current := fixedNow()
		expenses := &stubExpenseGateway{stats: ExpenseStats{Total: 10}}
		service := NewDashboardService(expenses, &stubFineGateway{}, nil, func() time.Time { return current })

		if _, err := service.AdminStats(context.Background(), admin); err != nil {
			t.Fatalf("AdminStats returned error: %v", err)
		}

		expenses.stats = ExpenseStats{Total: 12}
		current = current.Add(31 * time.Second)

		stats, err := service.AdminStats(context.Background(), admin)
		if err != nil {
			t.Fatalf("AdminStats returned error: %v", err)
		}
		if stats.Expenses.Total != 12 {
			t.Fatalf("expected the stale entry to be refetched, got %+v", stats)
		}
	})

	t.Run("invalidation forces a refetch", func(t *testing.T) {
		t.Parallel()

		expenses := &stubExpenseGateway{stats: ExpenseStats{Total: 10}}
		service := NewDashboardService(expenses, &stubFineGateway{}, nil, fixedNow)

		if _, err := service.AdminStats(context.Background(), admin); err != nil {
			t.Fatalf("AdminStats returned error: %v", err)
		}

		expenses.stats = ExpenseStats{Total: 11}
		service.InvalidateStats()

		stats, err := service.AdminStats(context.Background(), admin)
		if err != nil {
			t.Fatalf("AdminStats returned error: %v", err)
		}
		if stats.Expenses.Total != 11 {
			t.Fatalf("expected fresh value, got %+v", stats)
		}
	})
}

func TestDashboardServiceResidentSummary(t *testing.T) {
	t.Parallel()

	expenses := &stubExpenseGateway{expenses: []CommonExpense{{ID: 1, Status: ExpenseStatusPending}, {ID: 2, Status: ExpenseStatusPending}}}
	fines := &stubFineGateway{fines: []Fine{
		{ID: 1, Status: FineStatusPending},
		{ID: 2, Status: FineStatusPaid},
		{ID: 3, Status: FineStatusVoided},
	}}

	gateway := &stubNotificationGateway{count: 3}
	center := NewNotificationCenter(gateway, &stubNotificationCache{}, authenticatedSource(false), time.Second, fixedNow)
	if err := center.PollUnreadCount(context.Background()); err != nil {
		t.Fatalf("PollUnreadCount returned error: %v", err)
	}

	service := NewDashboardService(expenses, fines, center, fixedNow)

	summary, err := service.ResidentSummary(context.Background(), Principal{UserID: 3})
	if err != nil {
		t.Fatalf("ResidentSummary returned error: %v", err)
	}
	if summary.PendingExpenses != 2 {
		t.Fatalf("unexpected pending expenses: %d", summary.PendingExpenses)
	}
	if summary.PendingFines != 1 {
		t.Fatalf("unexpected pending fines: %d", summary.PendingFines)
	}
	if summary.Unread != 3 {
		t.Fatalf("unexpected unread: %d", summary.Unread)
	}
}
