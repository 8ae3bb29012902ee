package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// NotificationGateway abstracts the backend notification endpoints.
type NotificationGateway interface {
	FetchNotifications(ctx context.Context) ([]Notification, error)
	FetchUnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id int) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id int) error
}

// NotificationCache persists the last fetched list so a restart can show
// something before the first poll completes.
type NotificationCache interface {
	ReplaceNotifications(ctx context.Context, items []Notification) error
	CachedNotifications(ctx context.Context) ([]Notification, error)
}

// SessionSource is the slice of the session store the center depends on.
type SessionSource interface {
	Snapshot() SessionSnapshot
	ForceLogout(ctx context.Context, message string)
}

const sessionExpiredMessage = "Tu sesión ha expirado. Por favor, inicia sesión nuevamente."

// NotificationCenter keeps a local copy of the operator's notifications in
// sync with the backend. Local mutations are optimistic: the list and the
// unread counter change immediately, the backend call follows, and any
// divergence is corrected by the next poll or full refresh.
type NotificationCenter struct {
	gateway  NotificationGateway
	cache    NotificationCache
	sessions SessionSource
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu     sync.RWMutex
	items  []Notification
	unread int
}

// NewNotificationCenter constructs a NotificationCenter with the provided dependencies.
func NewNotificationCenter(gateway NotificationGateway, cache NotificationCache, sessions SessionSource, interval time.Duration, now func() time.Time) *NotificationCenter {
	return NewNotificationCenterWithLogger(gateway, cache, sessions, interval, now, nil)
}

// NewNotificationCenterWithLogger constructs a NotificationCenter with a specified logger.
func NewNotificationCenterWithLogger(gateway NotificationGateway, cache NotificationCache, sessions SessionSource, interval time.Duration, now func() time.Time, logger *slog.Logger) *NotificationCenter {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &NotificationCenter{
		gateway:  gateway,
		cache:    cache,
		sessions: sessions,
		interval: interval,
		now:      now,
		logger:   defaultLogger(logger),
	}
}

func (c *NotificationCenter) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, c.logger, "NotificationCenter", operation, attrs...)
}

// Run polls the unread counter until the context is cancelled. The first
// poll happens immediately; polls are skipped while signed out. Run never
// writes state after cancellation.
func (c *NotificationCenter) Run(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("NotificationCenter is nil")
	}

	logger := c.loggerWith(ctx, "Run", "interval", c.interval.String())
	logger.InfoContext(ctx, "notification polling started")

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "notification polling stopped")
			return nil
		case <-ticker.C:
			c.pollOnce(ctx)
		}
	}
}

func (c *NotificationCenter) pollOnce(ctx context.Context) {
	if !c.sessions.Snapshot().Authenticated {
		return
	}
	if err := c.PollUnreadCount(ctx); err != nil && !errors.Is(err, context.Canceled) {
		c.loggerWith(ctx, "Run").ErrorContext(ctx, "unread poll failed", "error", err, "error_kind", ErrorKind(err))
	}
}

// PollUnreadCount fetches the scalar unread counter and overwrites the
// local value. Later responses win; there is no merging.
func (c *NotificationCenter) PollUnreadCount(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("NotificationCenter is nil")
	}
	if c.gateway == nil {
		return fmt.Errorf("notification gateway not configured")
	}

	count, err := c.gateway.FetchUnreadCount(ctx)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrSessionExpired) {
			c.sessions.ForceLogout(ctx, sessionExpiredMessage)
		}
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	c.mu.Lock()
	c.unread = count
	c.mu.Unlock()
	return nil
}

// RefreshList fetches the full notification list, recomputes the unread
// counter from it, and writes the result through to the cache.
func (c *NotificationCenter) RefreshList(ctx context.Context) (items []Notification, err error) {
	if c == nil {
		err = fmt.Errorf("NotificationCenter is nil")
		return
	}
	if c.gateway == nil {
		err = fmt.Errorf("notification gateway not configured")
		return
	}

	logger := c.loggerWith(ctx, "RefreshList")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "notification refresh failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "notifications refreshed", "count", len(items), "unread", c.Unread())
	}()

	var fetched []Notification
	fetched, err = c.gateway.FetchNotifications(ctx)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrSessionExpired) {
			c.sessions.ForceLogout(ctx, sessionExpiredMessage)
		}
		return
	}
	if ctx.Err() != nil {
		err = ctx.Err()
		return
	}

	now := c.now()
	for i := range fetched {
		if fetched[i].RelativeAge == "" {
			fetched[i].RelativeAge = RelativeAge(fetched[i].CreatedAt, now)
		}
	}
	sort.SliceStable(fetched, func(i, j int) bool {
		return fetched[i].CreatedAt.After(fetched[j].CreatedAt)
	})

	c.mu.Lock()
	c.items = fetched
	c.unread = countUnread(fetched)
	c.mu.Unlock()

	c.persist(ctx)
	items = c.Items()
	return
}

// MarkRead flips a notification to read locally, then tells the backend.
// The unread counter drops at most once per notification; repeated calls
// are no-ops locally but are still forwarded. The local change is never
// rolled back: the next poll reconciles any divergence.
func (c *NotificationCenter) MarkRead(ctx context.Context, id int) error {
	if c == nil {
		return fmt.Errorf("NotificationCenter is nil")
	}
	if c.gateway == nil {
		return fmt.Errorf("notification gateway not configured")
	}

	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID != id || c.items[i].IsRead {
			continue
		}
		c.items[i].IsRead = true
		if c.unread > 0 {
			c.unread--
		}
		break
	}
	c.mu.Unlock()
	c.persist(ctx)

	if err := c.gateway.MarkRead(ctx, id); err != nil {
		if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrSessionExpired) {
			c.sessions.ForceLogout(ctx, sessionExpiredMessage)
		}
		c.loggerWith(ctx, "MarkRead", "notification_id", id).ErrorContext(ctx, "mark read failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	return nil
}

// MarkAllRead flips every notification to read and zeroes the counter,
// then tells the backend.
func (c *NotificationCenter) MarkAllRead(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("NotificationCenter is nil")
	}
	if c.gateway == nil {
		return fmt.Errorf("notification gateway not configured")
	}

	c.mu.Lock()
	for i := range c.items {
		c.items[i].IsRead = true
	}
	c.unread = 0
	c.mu.Unlock()
	c.persist(ctx)

	if err := c.gateway.MarkAllRead(ctx); err != nil {
		if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrSessionExpired) {
			c.sessions.ForceLogout(ctx, sessionExpiredMessage)
		}
		c.loggerWith(ctx, "MarkAllRead").ErrorContext(ctx, "mark all read failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	return nil
}

// Delete removes a notification locally, then tells the backend. Deleting
// an unread notification also drops the counter.
func (c *NotificationCenter) Delete(ctx context.Context, id int) error {
	if c == nil {
		return fmt.Errorf("NotificationCenter is nil")
	}
	if c.gateway == nil {
		return fmt.Errorf("notification gateway not configured")
	}

	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID != id {
			continue
		}
		if !c.items[i].IsRead && c.unread > 0 {
			c.unread--
		}
		c.items = append(c.items[:i], c.items[i+1:]...)
		break
	}
	c.mu.Unlock()
	c.persist(ctx)

	if err := c.gateway.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrSessionExpired) {
			c.sessions.ForceLogout(ctx, sessionExpiredMessage)
		}
		c.loggerWith(ctx, "Delete", "notification_id", id).ErrorContext(ctx, "delete failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	return nil
}

// Open marks a notification read and resolves the panel path it points at.
func (c *NotificationCenter) Open(ctx context.Context, id int) (string, error) {
	if c == nil {
		return "", fmt.Errorf("NotificationCenter is nil")
	}

	c.mu.RLock()
	var found *Notification
	for i := range c.items {
		if c.items[i].ID == id {
			item := c.items[i]
			found = &item
			break
		}
	}
	c.mu.RUnlock()

	if found == nil {
		return "", ErrNotFound
	}

	if err := c.MarkRead(ctx, id); err != nil {
		c.loggerWith(ctx, "Open", "notification_id", id).WarnContext(ctx, "mark read during open failed", "error", err)
	}
	return SectionPath(*found, c.sessions.Snapshot().IsAdmin), nil
}

// Restore loads the cached list so the panel has data before the first
// poll. Cache misses are not errors.
func (c *NotificationCenter) Restore(ctx context.Context) error {
	if c == nil || c.cache == nil {
		return nil
	}

	cached, err := c.cache.CachedNotifications(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	c.mu.Lock()
	c.items = cached
	c.unread = countUnread(cached)
	c.mu.Unlock()
	return nil
}

// Unread returns the current unread counter.
func (c *NotificationCenter) Unread() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.unread
}

// Items returns a copy of the current notification list.
func (c *NotificationCenter) Items() []Notification {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	items := make([]Notification, len(c.items))
	copy(items, c.items)
	return items
}

// Reset drops all local notification state. Called on logout.
func (c *NotificationCenter) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.items = nil
	c.unread = 0
	c.mu.Unlock()
}

func (c *NotificationCenter) persist(ctx context.Context) {
	if c.cache == nil {
		return
	}
	if err := c.cache.ReplaceNotifications(ctx, c.Items()); err != nil {
		c.loggerWith(ctx, "persist").ErrorContext(ctx, "failed to write notification cache", "error", err)
	}
}

func countUnread(items []Notification) int {
	unread := 0
	for _, item := range items {
		if !item.IsRead {
			unread++
		}
	}
	return unread
}
