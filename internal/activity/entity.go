package activity

import "time"

// Activity is one entry in the append-only feed. Entries are never updated
// or deleted; Metadata is free-form context supplied by whoever logged it.
type Activity struct {
	ID          string         `yaml:"id" json:"id"`
	Type        string         `yaml:"type" json:"type"`
	Description string         `yaml:"description" json:"description"`
	Timestamp   time.Time      `yaml:"timestamp" json:"timestamp"`
	Metadata    map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}
