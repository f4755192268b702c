package domain

import "context"

// Emitter records notifications as a side effect of a committed command.
// Emit never fails the caller; failures are logged and counted.
type Emitter interface {
	Emit(ctx context.Context, drafts ...Draft)
}

type Service interface {
	Emitter

	Create(ctx context.Context, draft Draft) (Notification, error)
	// List returns newest first.
	List(ctx context.Context) ([]Notification, error)
	ListForPartner(ctx context.Context, partnerID string) ([]Notification, error)
	// MarkRead is idempotent; an unknown id is a silent no-op.
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) (int, error)
	UnreadCount(ctx context.Context) (int, error)
}
