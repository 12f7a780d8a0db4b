package session

import "context"

// Store persists sessions keyed by user id.
type Store interface {
	Get(ctx context.Context, userID string) (*Session, error)
	GetOrCreate(ctx context.Context, userID string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, userID string) error
}
