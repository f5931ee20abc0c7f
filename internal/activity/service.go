package activity

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/himbot/mission-control/pkg/cerr"
)

const DefaultListLimit = 20

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Log appends one entry. Appends are best-effort by convention: callers
// logging alongside another mutation are expected to tolerate a failed
// append rather than roll anything back.
func (s *Service) Log(ctx context.Context, typ, description string, metadata map[string]any) (*Activity, error) {
	if typ == "" || description == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "type and description are required", nil)
	}
	a := &Activity{
		ID:          ulid.Make().String(),
		Type:        typ,
		Description: description,
		Timestamp:   time.Now(),
		Metadata:    metadata,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, limit int) ([]*Activity, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.repo.List(ctx, limit)
}
