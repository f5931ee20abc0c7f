package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/himbot/mission-control/internal/eventbus"
	"github.com/himbot/mission-control/pkg/cerr"
)

const (
	EventUpserted      = "agent.upserted"
	EventStatusChanged = "agent.status_changed"
)

type UpsertRequest struct {
	Name        string
	Role        string
	Description string
	Status      Status
	CurrentTask string
	TotalRuns   int
	Avatar      string
}

type Service struct {
	repo Repository
	bus  *eventbus.Bus
}

func NewService(repo Repository, bus *eventbus.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

func (s *Service) List(ctx context.Context) ([]*Agent, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Agent, error) {
	return s.repo.Get(ctx, id)
}

// Upsert creates or updates the agent keyed by name. Every upsert refreshes
// LastActive: a push from the agent process is taken as proof of life.
func (s *Service) Upsert(ctx context.Context, req UpsertRequest) (*Agent, error) {
	if req.Name == "" || req.Role == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "name and role are required", nil)
	}
	if req.Status == "" {
		req.Status = StatusIdle
	}
	if !req.Status.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid status %q", req.Status), nil)
	}

	now := time.Now()
	existing, err := s.repo.FindByName(ctx, req.Name)
	if err != nil && !cerr.IsCode(err, cerr.NotFound) {
		return nil, err
	}
	if existing != nil {
		existing.Role = req.Role
		existing.Description = req.Description
		existing.Status = req.Status
		existing.CurrentTask = req.CurrentTask
		existing.TotalRuns = req.TotalRuns
		if req.Avatar != "" {
			existing.Avatar = req.Avatar
		}
		existing.LastActive = now
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		s.bus.PublishNew(EventUpserted, existing.ID, map[string]string{"name": existing.Name, "status": string(existing.Status)})
		return existing, nil
	}

	a := &Agent{
		ID:          ulid.Make().String(),
		Name:        req.Name,
		Role:        req.Role,
		Description: req.Description,
		Status:      req.Status,
		CurrentTask: req.CurrentTask,
		LastActive:  now,
		TotalRuns:   req.TotalRuns,
		Avatar:      req.Avatar,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.bus.PublishNew(EventUpserted, a.ID, map[string]string{"name": a.Name, "status": string(a.Status)})
	return a, nil
}

// UpdateStatus moves an agent between idle/working/error and refreshes
// LastActive. CurrentTask is replaced wholesale, clearing it when the agent
// goes idle.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status, currentTask string) (*Agent, error) {
	if !status.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid status %q", status), nil)
	}
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	a.Status = status
	a.CurrentTask = currentTask
	a.LastActive = now
	a.UpdatedAt = now
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	s.bus.PublishNew(EventStatusChanged, a.ID, map[string]string{"name": a.Name, "status": string(status)})
	return a, nil
}
