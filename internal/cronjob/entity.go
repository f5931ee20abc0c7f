package cronjob

import "time"

type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusDisabled
}

// CronJob is a scheduled job as reported by the agent process. The schedule
// string is stored for display only; nothing here executes jobs, and
// LastRun/NextRun are whatever the pushing side last reported.
type CronJob struct {
	ID          string     `yaml:"id" json:"id"`
	Name        string     `yaml:"name" json:"name"`
	Schedule    string     `yaml:"schedule" json:"schedule"`
	LastRun     *time.Time `yaml:"last_run,omitempty" json:"lastRun,omitempty"`
	NextRun     *time.Time `yaml:"next_run,omitempty" json:"nextRun,omitempty"`
	Status      Status     `yaml:"status" json:"status"`
	LastResult  string     `yaml:"last_result,omitempty" json:"lastResult,omitempty"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time  `yaml:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `yaml:"updated_at" json:"updatedAt"`
}
