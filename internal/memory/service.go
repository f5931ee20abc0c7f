package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/himbot/mission-control/internal/eventbus"
	"github.com/himbot/mission-control/pkg/cerr"
)

const EventUpserted = "memory.upserted"

type UpsertRequest struct {
	Path    string
	Content string
	Type    Type
	Title   string
}

// UpsertResult reports what the upsert did. ContentDiff carries a unified
// diff against the previous revision so callers can attach it to the
// activity log; it is empty for new documents and unchanged content.
type UpsertResult struct {
	Memory      *Memory
	Created     bool
	ContentDiff string
}

type Service struct {
	repo Repository
	bus  *eventbus.Bus
}

func NewService(repo Repository, bus *eventbus.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

// List returns all memories, optionally filtered by type.
func (s *Service) List(ctx context.Context, typeFilter Type) ([]*Memory, error) {
	if typeFilter != "" && !typeFilter.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid memory type %q", typeFilter), nil)
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if typeFilter == "" {
		return all, nil
	}
	var out []*Memory
	for _, m := range all {
		if m.Type == typeFilter {
			out = append(out, m)
		}
	}
	return out, nil
}

// Search is a linear case-insensitive substring scan over path, content and
// title. Deliberately not a search engine.
func (s *Service) Search(ctx context.Context, query string) ([]*Memory, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var out []*Memory
	for _, m := range all {
		if strings.Contains(strings.ToLower(m.Path), q) ||
			strings.Contains(strings.ToLower(m.Content), q) ||
			strings.Contains(strings.ToLower(m.Title), q) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Service) GetByPath(ctx context.Context, path string) (*Memory, error) {
	return s.repo.FindByPath(ctx, path)
}

// Upsert creates or replaces the memory keyed by path, inferring type and
// title when not supplied and re-stamping LastModified.
func (s *Service) Upsert(ctx context.Context, req UpsertRequest) (*UpsertResult, error) {
	if req.Path == "" || req.Content == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "path and content are required", nil)
	}
	if req.Type == "" {
		req.Type = InferType(req.Path)
	}
	if !req.Type.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid memory type %q", req.Type), nil)
	}
	if req.Title == "" {
		req.Title = DefaultTitle(req.Path)
	}

	now := time.Now()
	existing, err := s.repo.FindByPath(ctx, req.Path)
	if err != nil && !cerr.IsCode(err, cerr.NotFound) {
		return nil, err
	}
	if existing != nil {
		diff := contentDiff(req.Path, existing.Content, req.Content)
		existing.Content = req.Content
		existing.Type = req.Type
		existing.Title = req.Title
		existing.LastModified = now
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		s.bus.PublishNew(EventUpserted, existing.ID, map[string]string{"path": existing.Path})
		return &UpsertResult{Memory: existing, ContentDiff: diff}, nil
	}

	m := &Memory{
		ID:           ulid.Make().String(),
		Path:         req.Path,
		Content:      req.Content,
		Type:         req.Type,
		Title:        req.Title,
		LastModified: now,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.bus.PublishNew(EventUpserted, m.ID, map[string]string{"path": m.Path})
	return &UpsertResult{Memory: m, Created: true}, nil
}

func (s *Service) Remove(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func contentDiff(path, before, after string) string {
	if before == after {
		return ""
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: path,
		ToFile:   path,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}
