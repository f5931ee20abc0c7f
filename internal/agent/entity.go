package agent

import "time"

type Status string

const (
	StatusIdle    Status = "idle"
	StatusWorking Status = "working"
	StatusError   Status = "error"
)

func (s Status) Valid() bool {
	switch s {
	case StatusIdle, StatusWorking, StatusError:
		return true
	}
	return false
}

// Agent is one sub-agent on the roster. Name is the natural key used by
// upserts.
type Agent struct {
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Role        string    `yaml:"role" json:"role"`
	Description string    `yaml:"description" json:"description"`
	Status      Status    `yaml:"status" json:"status"`
	CurrentTask string    `yaml:"current_task,omitempty" json:"currentTask,omitempty"`
	LastActive  time.Time `yaml:"last_active" json:"lastActive"`
	TotalRuns   int       `yaml:"total_runs" json:"totalRuns"`
	Avatar      string    `yaml:"avatar,omitempty" json:"avatar,omitempty"`
	CreatedAt   time.Time `yaml:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updatedAt"`
}
