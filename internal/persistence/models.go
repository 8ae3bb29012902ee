package persistence

import "time"

// SealedCredentials is the encrypted token pair blob stored at rest. The
// panel is single operator, so there is exactly one row.
type SealedCredentials struct {
	Sealed    []byte
	UpdatedAt time.Time
}

// CachedNotification is the locally persisted copy of a backend
// notification row.
type CachedNotification struct {
	ID          int
	Kind        string
	Title       string
	Message     string
	Target      string
	IsRead      bool
	CreatedAt   time.Time
	RelativeAge string
}
