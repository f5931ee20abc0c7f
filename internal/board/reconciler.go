// Package board translates drag gestures on the kanban board into status
// transitions. The resolution step is a pure function, decoupled from any
// pointer-event framework; Session adds the optimistic bookkeeping the
// dashboard needs while a mutation is in flight.
package board

import (
	"context"
	"sync"

	"github.com/himbot/mission-control/internal/task"
)

// DropTarget describes where a dragged card was released. Exactly one of
// Column or CardID is set; the zero value means no valid drop target.
type DropTarget struct {
	Column task.Status
	CardID string
}

// Resolve maps a completed drag to at most one status change. A column
// target wins outright; a card target adopts that card's column. Releasing
// over nothing, over an unknown card, or over the origin column resolves to
// no change - the card snaps back.
func Resolve(origin task.Status, drop DropTarget, cardStatus func(id string) (task.Status, bool)) (task.Status, bool) {
	if drop.Column != "" {
		if !drop.Column.Valid() || drop.Column == origin {
			return "", false
		}
		return drop.Column, true
	}
	if drop.CardID != "" {
		status, ok := cardStatus(drop.CardID)
		if !ok || status == origin {
			return "", false
		}
		return status, true
	}
	return "", false
}

// StatusSetter is the narrow store call a drop issues. *task.Store
// satisfies it.
type StatusSetter interface {
	SetStatus(ctx context.Context, id string, status task.Status) (*task.Task, error)
}

// Session tracks one client's board interaction: the card currently being
// dragged and optimistic status overrides for mutations whose round trip has
// not been confirmed by a view refresh yet. Overrides are cleared on every
// refresh, so a failed write simply snaps the card back once the
// authoritative snapshot arrives - there is no explicit rollback.
type Session struct {
	views  *task.Views
	setter StatusSetter

	mu        sync.Mutex
	activeID  string
	origin    task.Status
	overrides map[string]task.Status
}

func NewSession(views *task.Views, setter StatusSetter) *Session {
	s := &Session{
		views:     views,
		setter:    setter,
		overrides: make(map[string]task.Status),
	}
	views.Observe(s.reset)
	return s
}

// BeginDrag records the dragged card and its originating column.
func (s *Session) BeginDrag(id string) bool {
	t, ok := s.views.Get(id)
	if !ok {
		return false
	}
	s.mu.Lock()
	s.activeID = t.ID
	s.origin = t.Status
	s.mu.Unlock()
	return true
}

// Drop ends the active drag. When the gesture resolves to a transition it
// applies the optimistic override and issues exactly one SetStatus call;
// otherwise nothing is mutated. The mutation error is returned for logging
// only - the optimistic state stands either way until the next refresh.
func (s *Session) Drop(ctx context.Context, drop DropTarget) (bool, error) {
	s.mu.Lock()
	id := s.activeID
	origin := s.origin
	s.activeID = ""
	s.mu.Unlock()
	if id == "" {
		return false, nil
	}

	target, ok := Resolve(origin, drop, func(cardID string) (task.Status, bool) {
		if t, found := s.views.Get(cardID); found {
			return t.Status, true
		}
		return "", false
	})
	if !ok {
		return false, nil
	}

	s.mu.Lock()
	s.overrides[id] = target
	s.mu.Unlock()

	_, err := s.setter.SetStatus(ctx, id, target)
	return true, err
}

// Column returns the cards shown in a column: the view snapshot with
// optimistic overrides applied. Cards moved in optimistically are appended;
// their exact position is not meaningful because intra-column order is not
// persisted and reverts to creation order on refresh.
func (s *Session) Column(status task.Status) []*task.Task {
	s.mu.Lock()
	overrides := make(map[string]task.Status, len(s.overrides))
	for id, st := range s.overrides {
		overrides[id] = st
	}
	s.mu.Unlock()

	var out []*task.Task
	for _, t := range s.views.All() {
		shown := t.Status
		if o, ok := overrides[t.ID]; ok {
			shown = o
		}
		if shown == status {
			out = append(out, t)
		}
	}
	return out
}

// reset drops optimistic state; the refreshed snapshot is authoritative.
func (s *Session) reset() {
	s.mu.Lock()
	s.overrides = make(map[string]task.Status)
	s.mu.Unlock()
}
