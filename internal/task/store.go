package task

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/himbot/mission-control/internal/eventbus"
	"github.com/himbot/mission-control/pkg/cerr"
)

// Event types published on every successful mutation. Activity logging is a
// caller-side concern: the store itself only announces the change.
const (
	EventCreated       = "task.created"
	EventUpdated       = "task.updated"
	EventStatusChanged = "task.status_changed"
	EventDeleted       = "task.deleted"
)

type CreateRequest struct {
	Title       string
	Description string
	Status      Status
	Assignee    Assignee
	Priority    Priority
}

// PatchRequest applies only the fields that are set. ID and CreatedAt are
// not patchable.
type PatchRequest struct {
	Title       *string
	Description *string
	Status      *Status
	Assignee    *Assignee
	Priority    *Priority
}

type Filter struct {
	Status   Status
	Assignee Assignee
}

type Counts struct {
	Total      int `json:"total"`
	Backlog    int `json:"backlog"`
	InProgress int `json:"in_progress"`
	Review     int `json:"review"`
	Done       int `json:"done"`
}

// Store owns the task records and enforces field invariants on write.
// Each call is one storage round trip; writes to a single record are atomic
// but there is no ordering guarantee across calls - last write wins.
type Store struct {
	repo Repository
	bus  *eventbus.Bus
	now  func() time.Time
}

func NewStore(repo Repository, bus *eventbus.Bus) *Store {
	return &Store{
		repo: repo,
		bus:  bus,
		now:  time.Now,
	}
}

func (s *Store) Create(ctx context.Context, req CreateRequest) (*Task, error) {
	if req.Title == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "title is required", nil)
	}
	if req.Status == "" {
		req.Status = StatusBacklog
	}
	if req.Assignee == "" {
		req.Assignee = AssigneeHimbot
	}
	if req.Priority == "" {
		req.Priority = PriorityMedium
	}
	if err := validateEnums(req.Status, req.Assignee, req.Priority); err != nil {
		return nil, err
	}

	now := s.now()
	t := &Task{
		ID:          ulid.Make().String(),
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Assignee:    req.Assignee,
		Priority:    req.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.bus.PublishNew(EventCreated, t.ID, map[string]string{"status": string(t.Status)})
	return t, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Task, error) {
	return s.repo.Get(ctx, id)
}

// List returns tasks matching the filter, most recently created first with
// an ID tiebreak for determinism.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Task, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	var tasks []*Task
	for _, t := range all {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Assignee != "" && t.Assignee != filter.Assignee {
			continue
		}
		tasks = append(tasks, t)
	}
	SortTasks(tasks)
	return tasks, nil
}

// Counts tallies statuses against one snapshot, so the per-status counts
// always sum to the total.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return Counts{}, err
	}
	counts := Counts{Total: len(all)}
	for _, t := range all {
		switch t.Status {
		case StatusBacklog:
			counts.Backlog++
		case StatusInProgress:
			counts.InProgress++
		case StatusReview:
			counts.Review++
		case StatusDone:
			counts.Done++
		}
	}
	return counts, nil
}

func (s *Store) Patch(ctx context.Context, id string, req PatchRequest) (*Task, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		if *req.Title == "" {
			return nil, cerr.NewError(cerr.InvalidArgument, "title is required", nil)
		}
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.Assignee != nil {
		t.Assignee = *req.Assignee
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if err := validateEnums(t.Status, t.Assignee, t.Priority); err != nil {
		return nil, err
	}
	t.UpdatedAt = s.stamp(t.UpdatedAt)
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.bus.PublishNew(EventUpdated, t.ID, map[string]string{"status": string(t.Status)})
	return t, nil
}

// SetStatus is the narrow transition call the board reconciler issues. It
// deliberately accepts only id and status so a drag cannot clobber
// concurrent edits to title or description.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) (*Task, error) {
	if !status.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid status %q", status), nil)
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Status = status
	t.UpdatedAt = s.stamp(t.UpdatedAt)
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.bus.PublishNew(EventStatusChanged, t.ID, map[string]string{"new_status": string(status)})
	return t, nil
}

func (s *Store) Remove(ctx context.Context, id string) error {
	// Get task before delete for event metadata.
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.bus.PublishNew(EventDeleted, id, map[string]string{"title": t.Title})
	return nil
}

// stamp returns the new updated-at timestamp. UpdatedAt must strictly
// increase on every successful write, even when two writes land within the
// clock's resolution.
func (s *Store) stamp(prev time.Time) time.Time {
	now := s.now()
	if !now.After(prev) {
		return prev.Add(time.Nanosecond)
	}
	return now
}

func validateEnums(status Status, assignee Assignee, priority Priority) error {
	if !status.Valid() {
		return cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid status %q", status), nil)
	}
	if !assignee.Valid() {
		return cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid assignee %q", assignee), nil)
	}
	if !priority.Valid() {
		return cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid priority %q", priority), nil)
	}
	return nil
}

// SortTasks orders tasks most recently created first, breaking ties on ID
// ascending.
func SortTasks(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
}
