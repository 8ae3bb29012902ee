package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type stubNotificationGateway struct {
	mu sync.Mutex

	items       []Notification
	listErr     error
	count       int
	countErr    error
	markReadErr error
	markAllErr  error
	deleteErr   error

	countCalls   int
	markReadIDs  []int
	markAllCalls int
	deletedIDs   []int
}

func (g *stubNotificationGateway) FetchNotifications(_ context.Context) ([]Notification, error) {
	if g.listErr != nil {
		return nil, g.listErr
	}
	items := make([]Notification, len(g.items))
	copy(items, g.items)
	return items, nil
}

func (g *stubNotificationGateway) FetchUnreadCount(_ context.Context) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.countCalls++
	if g.countErr != nil {
		return 0, g.countErr
	}
	return g.count, nil
}

func (g *stubNotificationGateway) MarkRead(_ context.Context, id int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.markReadIDs = append(g.markReadIDs, id)
	return g.markReadErr
}

func (g *stubNotificationGateway) MarkAllRead(_ context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.markAllCalls++
	return g.markAllErr
}

func (g *stubNotificationGateway) Delete(_ context.Context, id int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deletedIDs = append(g.deletedIDs, id)
	return g.deleteErr
}

type stubNotificationCache struct {
	mu       sync.Mutex
	items    []Notification
	loadErr  error
	storeErr error
	replaces int
}

func (c *stubNotificationCache) ReplaceNotifications(_ context.Context, items []Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaces++
	if c.storeErr != nil {
		return c.storeErr
	}
	c.items = items
	return nil
}

func (c *stubNotificationCache) CachedNotifications(_ context.Context) ([]Notification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loadErr != nil {
		return nil, c.loadErr
	}
	if len(c.items) == 0 {
		return nil, ErrNotFound
	}
	return c.items, nil
}

type stubSessionSource struct {
	mu            sync.Mutex
	snapshot      SessionSnapshot
	forcedReasons []string
}

func (s *stubSessionSource) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func (s *stubSessionSource) ForceLogout(_ context.Context, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Authenticated = false
	s.forcedReasons = append(s.forcedReasons, message)
}

func authenticatedSource(isAdmin bool) *stubSessionSource {
	return &stubSessionSource{snapshot: SessionSnapshot{Authenticated: true, IsAdmin: isAdmin}}
}

func sampleNotifications(base time.Time) []Notification {
	return []Notification{
		{ID: 1, Kind: "multa", Title: "Nueva multa", Target: TargetFine, IsRead: false, CreatedAt: base.Add(-time.Hour)},
		{ID: 2, Kind: "gasto_comun", Title: "Gasto común", Target: TargetCommonExpense, IsRead: false, CreatedAt: base.Add(-2 * time.Hour)},
		{ID: 3, Kind: "sistema", Title: "Bienvenida", IsRead: true, CreatedAt: base.Add(-48 * time.Hour)},
	}
}

func TestNotificationCenterPollUnreadCount(t *testing.T) {
	t.Parallel()

	t.Run("overwrites the local counter", func(t *testing.T) {
		t.Parallel()

		gateway := &stubNotificationGateway{count: 4}
		center := NewNotificationCenter(gateway, &stubNotificationCache{}, authenticatedSource(false), time.Second, fixedNow)

		if err := center.PollUnreadCount(context.Background()); err != nil {
			t.Fatalf("PollUnreadCount returned error: %v", err)
		}
		if got := center.Unread(); got != 4 {
			t.Fatalf("expected 4 unread, got %d", got)
		}

		gateway.count = 1
		if err := center.PollUnreadCount(context.Background()); err != nil {
			t.Fatalf("PollUnreadCount returned error: %v", err)
		}
		if got := center.Unread(); got != 1 {
			t.Fatalf("expected last write to win, got %d", got)
		}
	})

	t.Run("rejected token forces a logout", func(t *testing.T) {
		t.Parallel()

		gateway := &stubNotificationGateway{countErr: ErrUnauthorized}
		sessions := authenticatedSource(false)
		center := NewNotificationCenter(gateway, &stubNotificationCache{}, sessions, time.Second, fixedNow)

		err := center.PollUnreadCount(context.Background())
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if len(sessions.forcedReasons) != 1 {
			t.Fatalf("expected one forced logout, got %d", len(sessions.forcedReasons))
		}
	})

	t.Run("cancelled context never writes state", func(t *testing.T) {
		t.Parallel()

		gateway := &stubNotificationGateway{count: 9}
		center := NewNotificationCenter(gateway, &stubNotificationCache{}, authenticatedSource(false), time.Second, fixedNow)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := center.PollUnreadCount(ctx); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if got := center.Unread(); got != 0 {
			t.Fatalf("expected counter untouched, got %d", got)
		}
	})
}

func TestNotificationCenterRun(t *testing.T) {
	t.Parallel()

	t.Run("skips polls while signed out", func(t *testing.T) {
		t.Parallel()

		gateway := &stubNotificationGateway{count: 2}
		sessions := &stubSessionSource{}
		center := NewNotificationCenter(gateway, &stubNotificationCache{}, sessions, 5*time.Millisecond, fixedNow)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		if err := center.Run(ctx); err != nil {
			t.Fatalf("Run returned error: %v", err)
		}

		gateway.mu.Lock()
		calls := gateway.countCalls
		gateway.mu.Unlock()
		if calls != 0 {
			t.Fatalf("expected no polls while signed out, got %d", calls)
		}
	})

	t.Run("polls immediately when authenticated", func(t *testing.T) {
		t.Parallel()

		gateway := &stubNotificationGateway{count: 2}
		center := NewNotificationCenter(gateway, &stubNotificationCache{}, authenticatedSource(false), time.Minute, fixedNow)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = center.Run(ctx)
		}()

		deadline := time.After(time.Second)
		for center.Unread() != 2 {
			select {
			case <-deadline:
				t.Fatal("first poll never happened")
			case <-time.After(time.Millisecond):
			}
		}
		cancel()
		<-done
	})
}

func TestNotificationCenterRefreshList(t *testing.T) {
	t.Parallel()

	t.Run("recomputes unread and writes through the cache", func(t *testing.T) {
		t.Parallel()

		gateway := &stubNotificationGateway{items: sampleNotifications(fixedNow())}
		cache := &stubNotificationCache{}
		center := NewNotificationCenter(gateway, cache, authenticatedSource(true), time.Second, fixedNow)

		items, err := center.RefreshList(context.Background())
		if err != nil {
			t.Fatalf("RefreshList returned error: %v", err)
		}
		if len(items) != 3 {
			t.Fatalf("expected 3 notifications, got %d", len(items))
		}
		if got := center.Unread(); got != 2 {
			t.Fatalf("expected 2 unread, got %d", got)
		}
		if items[0].ID != 1 {
			t.Fatalf("expected newest first, got id %d", items[0].ID)
		}
		if items[0].RelativeAge != "Hace 1 hora" {
			t.Fatalf("unexpected relative age: %q", items[0].RelativeAge)
		}
		if cache.replaces != 1 {
			t.Fatalf("expected one cache write, got %d", cache.replaces)
		}
	})

	t.Run("cache failures do not fail the refresh", func(t *testing.T) {
		t.Parallel()

		gateway := &stubNotificationGateway{items: sampleNotifications(fixedNow())}
		cache := &stubNotificationCache{storeErr: errors.New("disk full")}
		center := NewNotificationCenter(gateway, cache, authenticatedSource(true), time.Second, fixedNow)

		if _, err := center.RefreshList(context.Background()); err != nil {
			t.Fatalf("RefreshList returned error: %v", err)
		}
	})
}

func TestNotificationCenterMarkRead(t *testing.T) {
	t.Parallel()

	newCenter := func(t *testing.T, gateway *stubNotificationGateway) *NotificationCenter {
		t.Helper()
		center := NewNotificationCenter(gateway, &stubNotificationCache{}, authenticatedSource(false), time.Second, fixedNow)
		if _, err := center.RefreshList(context.Background()); err != nil {
			t.Fatalf("RefreshList returned error: %v", err)
		}
		return center
	}

	t.Run("decrements the counter exactly once", func(t *testing.T) {
		t.Parallel()

		gateway := &stubNotificationGateway{items: sampleNotifications(fixedNow())}
		center := newCenter(t, gateway)

		if err := center.MarkRead(context.Background(), 1); err != nil {
			t.Fatalf("MarkRead returned error: %v", err)
		}
		if got := center.Unread(); got != 1 {
			t.Fatalf("expected 1 unread, got %d", got)
		}

		if err := center.MarkRead(context.Background(), 1); err != nil {
			t.Fatalf("repeat MarkRead returned error: %v", err)
		}
		if got := center.Unread(); got != 1 {
			t.Fatalf("repeat must not decrement again, got %d", got)
		}
		if len(gateway.markReadIDs) != 2 {
			t.Fatalf("every call must reach the backend, got %d", len(gateway.markReadIDs))
		}
	})

	t.Run("marking an already read notification keeps the counter", func(t *testing.T) {
		t.Parallel()

		gateway := &stubNotificationGateway{items: sampleNotifications(fixedNow())}
		center := newCenter(t, gateway)

		if err := center.MarkRead(context.Background(), 3); err != nil {
			t.Fatalf("MarkRead returned error: %v", err)
		}
		if got := center.Unread(); got != 2 {
			t.Fatalf("expected counter untouched, got %d", got)
		}
	})

	t.Run("backend failure keeps the optimistic state", func(t *testing.T) {
		t.Parallel()

		gateway := &stubNotificationGateway{items: sampleNotifications(fixedNow()), markReadErr: ErrServerFault}
		center := newCenter(t, gateway)

		err := center.MarkRead(context.Background(), 1)
		if !errors.Is(err, ErrServerFault) {
			t.Fatalf("expected ErrServerFault, got %v", err)
		}
		if got := center.Unread(); got != 1 {
			t.Fatalf("optimistic decrement must survive, got %d", got)
		}
		for _, item := range center.Items() {
			if item.ID == 1 && !item.IsRead {
				t.Fatal("optimistic read flag must survive")
			}
		}
	})
}

func TestNotificationCenterMarkAllRead(t *testing.T) {
	t.Parallel()

	gateway := &stubNotificationGateway{items: sampleNotifications(fixedNow())}
	center := NewNotificationCenter(gateway, &stubNotificationCache{}, authenticatedSource(false), time.Second, fixedNow)
	if _, err := center.RefreshList(context.Background()); err != nil {
		t.Fatalf("RefreshList returned error: %v", err)
	}

	if err := center.MarkAllRead(context.Background()); err != nil {
		t.Fatalf("MarkAllRead returned error: %v", err)
	}
	if got := center.Unread(); got != 0 {
		t.Fatalf("expected 0 unread, got %d", got)
	}
	for _, item := range center.Items() {
		if !item.IsRead {
			t.Fatalf("notification %d still unread", item.ID)
		}
	}
	if gateway.markAllCalls != 1 {
		t.Fatalf("expected one backend call, got %d", gateway.markAllCalls)
	}
}

func TestNotificationCenterDelete(t *testing.T) {
	t.Parallel()

	t.Run("removing an unread notification drops the counter", func(t *testing.T) {
		t.Parallel()

		gateway := &stubNotificationGateway{items: sampleNotifications(fixedNow())}
		center := NewNotificationCenter(gateway, &stubNotificationCache{}, authenticatedSource(false), time.Second, fixedNow)
		if _, err := center.RefreshList(context.Background()); err != nil {
			t.Fatalf("RefreshList returned error: %v", err)
		}

		if err := center.Delete(context.Background(), 2); err != nil {
			t.Fatalf("Delete returned error: %v", err)
		}
		if got := center.Unread(); got != 1 {
			t.Fatalf("expected 1 unread, got %d", got)
		}
		if got := len(center.Items()); got != 2 {
			t.Fatalf("expected 2 items, got %d", got)
		}
	})

	t.Run("removing a read notification keeps the counter", func(t *testing.T) {
		t.Parallel()

		gateway := &stubNotificationGateway{items: sampleNotifications(fixedNow())}
		center := NewNotificationCenter(gateway, &stubNotificationCache{}, authenticatedSource(false), time.Second, fixedNow)
		if _, err := center.RefreshList(context.Background()); err != nil {
			t.Fatalf("RefreshList returned error: %v", err)
		}

		if err := center.Delete(context.Background(), 3); err != nil {
			t.Fatalf("Delete returned error: %v", err)
		}
		if got := center.Unread(); got != 2 {
			t.Fatalf("expected 2 unread, got %d", got)
		}
	})
}

func TestNotificationCenterOpen(t *testing.T) {
	t.Parallel()

	t.Run("resolves the tagged section and marks read", func(t *testing.T) {
		t.Parallel()

		gateway := &stubNotificationGateway{items: sampleNotifications(fixedNow())}
		center := NewNotificationCenter(gateway, &stubNotificationCache{}, authenticatedSource(true), time.Second, fixedNow)
		if _, err := center.RefreshList(context.Background()); err != nil {
			t.Fatalf("RefreshList returned error: %v", err)
		}

		path, err := center.Open(context.Background(), 1)
		if err != nil {
			t.Fatalf("Open returned error: %v", err)
		}
		if path != "/admin/multas" {
			t.Fatalf("unexpected path: %s", path)
		}
		if got := center.Unread(); got != 1 {
			t.Fatalf("expected 1 unread after open, got %d", got)
		}
	})

	t.Run("untagged notification falls back to the dashboard", func(t *testing.T) {
		t.Parallel()

		gateway := &stubNotificationGateway{items: sampleNotifications(fixedNow())}
		center := NewNotificationCenter(gateway, &stubNotificationCache{}, authenticatedSource(false), time.Second, fixedNow)
		if _, err := center.RefreshList(context.Background()); err != nil {
			t.Fatalf("RefreshList returned error: %v", err)
		}

		path, err := center.Open(context.Background(), 3)
		if err != nil {
			t.Fatalf("Open returned error: %v", err)
		}
		if path != "/resident" {
			t.Fatalf("unexpected path: %s", path)
		}
	})

	t.Run("unknown notification is not found", func(t *testing.T) {
		t.Parallel()

		center := NewNotificationCenter(&stubNotificationGateway{}, &stubNotificationCache{}, authenticatedSource(false), time.Second, fixedNow)
		if _, err := center.Open(context.Background(), 99); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestNotificationCenterRestore(t *testing.T) {
	t.Parallel()

	cache := &stubNotificationCache{items: sampleNotifications(fixedNow())}
	center := NewNotificationCenter(&stubNotificationGateway{}, cache, authenticatedSource(false), time.Second, fixedNow)

	if err := center.Restore(context.Background()); err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if got := len(center.Items()); got != 3 {
		t.Fatalf("expected 3 cached items, got %d", got)
	}
	if got := center.Unread(); got != 2 {
		t.Fatalf("expected recomputed unread of 2, got %d", got)
	}
}
