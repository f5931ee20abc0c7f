package task

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/himbot/mission-control/internal/eventbus"
)

// Views holds derived read projections over the task set: per-status and
// per-assignee lists plus aggregate counts, all served from one cached
// snapshot. The snapshot refreshes whenever a task event appears on the bus
// (push-based, no polling); observers registered through Observe are invoked
// synchronously after each refresh.
type Views struct {
	store *Store
	bus   *eventbus.Bus

	mu        sync.RWMutex
	tasks     []*Task
	observers map[string]func()
}

func NewViews(store *Store, bus *eventbus.Bus) *Views {
	return &Views{
		store:     store,
		bus:       bus,
		observers: make(map[string]func()),
	}
}

// Run subscribes to the bus and refreshes the snapshot on every task event
// until ctx is cancelled. External changes to the data dir surface as
// "task.external_change" events from the watcher and refresh the same way.
func (v *Views) Run(ctx context.Context) error {
	// Subscribe before the initial refresh so no event can fall between the
	// first snapshot and the subscription.
	subID, ch := v.bus.Subscribe(64)
	defer v.bus.Unsubscribe(subID)
	if err := v.Refresh(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if !strings.HasPrefix(ev.Type, "task.") {
				continue
			}
			if err := v.Refresh(ctx); err != nil {
				slog.WarnContext(ctx, "failed to refresh task views", "error", err)
			}
		}
	}
}

// Refresh re-reads the store snapshot and notifies observers. Exposed so
// tests can drive view updates deterministically.
func (v *Views) Refresh(ctx context.Context) error {
	tasks, err := v.store.List(ctx, Filter{})
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.tasks = tasks
	observers := make([]func(), 0, len(v.observers))
	for _, fn := range v.observers {
		observers = append(observers, fn)
	}
	v.mu.Unlock()

	for _, fn := range observers {
		fn()
	}
	return nil
}

// Observe registers a callback invoked after every snapshot refresh. The
// returned function cancels the registration.
func (v *Views) Observe(fn func()) (cancel func()) {
	id := ulid.Make().String()
	v.mu.Lock()
	v.observers[id] = fn
	v.mu.Unlock()
	return func() {
		v.mu.Lock()
		delete(v.observers, id)
		v.mu.Unlock()
	}
}

// All returns the full snapshot, most recently created first.
func (v *Views) All() []*Task {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return cloneTasks(v.tasks)
}

func (v *Views) ByStatus(status Status) []*Task {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var out []*Task
	for _, t := range v.tasks {
		if t.Status == status {
			out = append(out, t.Clone())
		}
	}
	return out
}

func (v *Views) ByAssignee(assignee Assignee) []*Task {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var out []*Task
	for _, t := range v.tasks {
		if t.Assignee == assignee {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Get looks a task up in the current snapshot.
func (v *Views) Get(id string) (*Task, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, t := range v.tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return nil, false
}

// Counts tallies the snapshot; the per-status counts sum to the total
// because the tally runs against a single consistent slice.
func (v *Views) Counts() Counts {
	v.mu.RLock()
	defer v.mu.RUnlock()
	counts := Counts{Total: len(v.tasks)}
	for _, t := range v.tasks {
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
	return counts
}

func cloneTasks(tasks []*Task) []*Task {
	out := make([]*Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
