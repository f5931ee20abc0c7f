package memory

import "context"

type Repository interface {
	Create(ctx context.Context, m *Memory) error
	Get(ctx context.Context, id string) (*Memory, error)
	List(ctx context.Context) ([]*Memory, error)
	FindByPath(ctx context.Context, path string) (*Memory, error)
	Update(ctx context.Context, m *Memory) error
	Delete(ctx context.Context, id string) error
}
