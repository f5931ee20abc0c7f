package cronjob

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// SeedDemo inserts the default job list when the table is empty.
func (s *Service) SeedDemo(ctx context.Context) error {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	now := time.Now()
	ago := func(d time.Duration) *time.Time {
		t := now.Add(-d)
		return &t
	}
	in := func(d time.Duration) *time.Time {
		t := now.Add(d)
		return &t
	}

	jobs := []CronJob{
		{
			Name:        "Memory Heartbeat",
			Schedule:    "*/30 * * * *",
			Description: "Extract facts from recent conversations",
			Status:      StatusActive,
			LastRun:     ago(15 * time.Minute),
			NextRun:     in(15 * time.Minute),
			LastResult:  "success",
		},
		{
			Name:        "Daily Summary",
			Schedule:    "0 20 * * *",
			Description: "Compile and send daily briefing",
			Status:      StatusActive,
			LastRun:     ago(4 * time.Hour),
			NextRun:     in(20 * time.Hour),
			LastResult:  "success",
		},
		{
			Name:        "Gmail Check",
			Schedule:    "*/15 * * * *",
			Description: "Check for important emails and flag them",
			Status:      StatusActive,
			LastRun:     ago(8 * time.Minute),
			NextRun:     in(7 * time.Minute),
			LastResult:  "success",
		},
		{
			Name:        "ClickUp Sync",
			Schedule:    "0 * * * *",
			Description: "Sync ClickUp tasks to memory",
			Status:      StatusActive,
			LastRun:     ago(45 * time.Minute),
			NextRun:     in(15 * time.Minute),
			LastResult:  "success",
		},
		{
			Name:        "Weekly Memory Synthesis",
			Schedule:    "0 9 * * 1",
			Description: "Rewrite entity summaries from atomic facts",
			Status:      StatusActive,
			LastRun:     ago(3 * 24 * time.Hour),
			NextRun:     in(4 * 24 * time.Hour),
			LastResult:  "success",
		},
		{
			Name:        "OpenRouter Monitor",
			Schedule:    "0 0 * * *",
			Description: "Check OpenRouter balance and usage",
			Status:      StatusActive,
			LastRun:     ago(20 * time.Hour),
			NextRun:     in(4 * time.Hour),
			LastResult:  "success",
		},
	}

	for _, def := range jobs {
		j := def
		j.ID = ulid.Make().String()
		j.CreatedAt = now
		j.UpdatedAt = now
		if err := s.repo.Create(ctx, &j); err != nil {
			return err
		}
	}
	return nil
}
