package activity

import "context"

type Repository interface {
	Create(ctx context.Context, a *Activity) error
	// List returns up to limit entries, most recent first.
	List(ctx context.Context, limit int) ([]*Activity, error)
}
