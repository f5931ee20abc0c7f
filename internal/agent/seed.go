package agent

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// SeedDemo inserts the default roster when the table is empty. Used by the
// demo flag on server start; a populated roster is left untouched.
func (s *Service) SeedDemo(ctx context.Context) error {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	defs := []Agent{
		{Name: "Researcher", Role: "Research & Intel", Description: "Searches the web, analyzes sources, compiles briefings", Status: StatusIdle, Avatar: "🔍"},
		{Name: "Coder", Role: "Software Engineer", Description: "Writes, reviews, and debugs code across all languages", Status: StatusIdle, Avatar: "💻"},
		{Name: "Writer", Role: "Content & Comms", Description: "Drafts emails, docs, posts, and creative content", Status: StatusIdle, Avatar: "✍️"},
		{Name: "Fact Extractor", Role: "Memory Manager", Description: "Extracts and indexes facts from conversations", Status: StatusWorking, CurrentTask: "Running heartbeat extraction"},
		{Name: "Monitor", Role: "System Watch", Description: "Watches for anomalies, alerts, and status changes", Status: StatusIdle, Avatar: "👁️"},
		{Name: "Designer", Role: "UI & Visual", Description: "Creates mockups, SVGs, and design direction", Status: StatusIdle, Avatar: "🎨"},
		{Name: "Analyst", Role: "Data & Metrics", Description: "Crunches numbers, builds reports, spots trends", Status: StatusIdle, Avatar: "📊"},
		{Name: "Ops", Role: "Operations", Description: "Handles integrations, workflows, and infra tasks", Status: StatusIdle, Avatar: "⚙️"},
	}

	now := time.Now()
	for _, def := range defs {
		a := def
		a.ID = ulid.Make().String()
		a.LastActive = now
		a.CreatedAt = now
		a.UpdatedAt = now
		if err := s.repo.Create(ctx, &a); err != nil {
			return err
		}
	}
	return nil
}
