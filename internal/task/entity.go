package task

import "time"

// Status is the board column a task lives in. All four statuses are mutually
// reachable: the board imposes no transition order, and done is not terminal.
type Status string

const (
	StatusBacklog    Status = "backlog"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// Statuses returns the board columns in display order.
func Statuses() []Status {
	return []Status{StatusBacklog, StatusInProgress, StatusReview, StatusDone}
}

func (s Status) Valid() bool {
	switch s {
	case StatusBacklog, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Assignee string

const (
	AssigneeRyan   Assignee = "ryan"
	AssigneeHimbot Assignee = "himbot"
)

func (a Assignee) Valid() bool {
	switch a {
	case AssigneeRyan, AssigneeHimbot:
		return true
	}
	return false
}

type Task struct {
	ID          string    `yaml:"id" json:"id"`
	Title       string    `yaml:"title" json:"title"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Status      Status    `yaml:"status" json:"status"`
	Assignee    Assignee  `yaml:"assignee" json:"assignee"`
	Priority    Priority  `yaml:"priority" json:"priority"`
	CreatedAt   time.Time `yaml:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updatedAt"`
}

// Clone returns a copy so view snapshots cannot be mutated through shared
// pointers.
func (t *Task) Clone() *Task {
	c := *t
	return &c
}
