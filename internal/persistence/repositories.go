package persistence

import "context"

// CredentialStore persists the single sealed credential blob.
type CredentialStore interface {
	SaveSealedCredentials(ctx context.Context, creds SealedCredentials) error
	LoadSealedCredentials(ctx context.Context) (SealedCredentials, error)
	ClearSealedCredentials(ctx context.Context) error
}

// NotificationCache persists the last fetched notification list.
type NotificationCache interface {
	ReplaceNotifications(ctx context.Context, items []CachedNotification) error
	ListNotifications(ctx context.Context) ([]CachedNotification, error)
}
