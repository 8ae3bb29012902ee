package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cuentas-claras/panel/internal/persistence"
)

// NotificationCache persists the last fetched notification list. The whole
// list is replaced on every write; it is a warm-start cache, not a log.
type NotificationCache struct {
	db *sql.DB
}

// ReplaceNotifications swaps the cached list atomically.
func (c *NotificationCache) ReplaceNotifications(ctx context.Context, items []persistence.CachedNotification) error {
	if c == nil || c.db == nil {
		return fmt.Errorf("sqlite: notification cache not initialized")
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `DELETE FROM notification_cache`); err != nil {
		return fmt.Errorf("sqlite: clear notification cache: %w", err)
	}

	for _, item := range items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO notification_cache (id, kind, title, message, target, is_read, created_at, relative_age)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			item.ID,
			item.Kind,
			item.Title,
			item.Message,
			item.Target,
			boolToInt(item.IsRead),
			item.CreatedAt.UTC().Format(time.RFC3339Nano),
			item.RelativeAge,
		)
		if err != nil {
			return fmt.Errorf("sqlite: insert notification %d: %w", item.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit replace: %w", err)
	}
	return nil
}

// ListNotifications returns the cached list, newest first.
func (c *NotificationCache) ListNotifications(ctx context.Context) ([]persistence.CachedNotification, error) {
	if c == nil || c.db == nil {
		return nil, fmt.Errorf("sqlite: notification cache not initialized")
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, kind, title, message, target, is_read, created_at, relative_age
		FROM notification_cache
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list notification cache: %w", err)
	}
	defer rows.Close()

	var items []persistence.CachedNotification
	for rows.Next() {
		var item persistence.CachedNotification
		var isRead int
		var createdAt string
		if err := rows.Scan(&item.ID, &item.Kind, &item.Title, &item.Message, &item.Target, &isRead, &createdAt, &item.RelativeAge); err != nil {
			return nil, fmt.Errorf("sqlite: scan notification: %w", err)
		}
		item.IsRead = isRead != 0
		if parsed, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			item.CreatedAt = parsed
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate notification cache: %w", err)
	}
	return items, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
