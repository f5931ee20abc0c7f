package cronjob

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/himbot/mission-control/internal/eventbus"
	"github.com/himbot/mission-control/pkg/cerr"
)

const (
	EventUpserted = "cronjob.upserted"
	EventToggled  = "cronjob.toggled"
)

type UpsertRequest struct {
	Name        string
	Schedule    string
	LastRun     *time.Time
	NextRun     *time.Time
	Status      Status
	LastResult  string
	Description string
}

type Service struct {
	repo Repository
	bus  *eventbus.Bus
}

func NewService(repo Repository, bus *eventbus.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

func (s *Service) List(ctx context.Context) ([]*CronJob, error) {
	return s.repo.List(ctx)
}

// Upsert creates or updates the job keyed by name.
func (s *Service) Upsert(ctx context.Context, req UpsertRequest) (*CronJob, error) {
	if req.Name == "" || req.Schedule == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "name and schedule are required", nil)
	}
	if req.Status == "" {
		req.Status = StatusActive
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
		existing.Schedule = req.Schedule
		existing.LastRun = req.LastRun
		existing.NextRun = req.NextRun
		existing.Status = req.Status
		existing.LastResult = req.LastResult
		existing.Description = req.Description
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		s.bus.PublishNew(EventUpserted, existing.ID, map[string]string{"name": existing.Name})
		return existing, nil
	}

	j := &CronJob{
		ID:          ulid.Make().String(),
		Name:        req.Name,
		Schedule:    req.Schedule,
		LastRun:     req.LastRun,
		NextRun:     req.NextRun,
		Status:      req.Status,
		LastResult:  req.LastResult,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, j); err != nil {
		return nil, err
	}
	s.bus.PublishNew(EventUpserted, j.ID, map[string]string{"name": j.Name})
	return j, nil
}

// ToggleStatus flips a job between active and disabled.
func (s *Service) ToggleStatus(ctx context.Context, id string) (*CronJob, error) {
	j, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if j.Status == StatusActive {
		j.Status = StatusDisabled
	} else {
		j.Status = StatusActive
	}
	j.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, j); err != nil {
		return nil, err
	}
	s.bus.PublishNew(EventToggled, j.ID, map[string]string{"name": j.Name, "status": string(j.Status)})
	return j, nil
}
