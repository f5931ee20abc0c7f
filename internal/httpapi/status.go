package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/himbot/mission-control/internal/activity"
	"github.com/himbot/mission-control/internal/agent"
	"github.com/himbot/mission-control/internal/cronjob"
	"github.com/himbot/mission-control/internal/task"
	"github.com/himbot/mission-control/pkg/cerr"
)

type statusAgents struct {
	Total        int      `json:"total"`
	Working      int      `json:"working"`
	WorkingNames []string `json:"working_names"`
}

type statusCronJobs struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

type statusLastActivity struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

type statusResponse struct {
	Status       string              `json:"status"`
	Timestamp    time.Time           `json:"timestamp"`
	Tasks        task.Counts         `json:"tasks"`
	Agents       statusAgents        `json:"agents"`
	CronJobs     statusCronJobs      `json:"cronJobs"`
	LastActivity *statusLastActivity `json:"lastActivity"`
}

// status assembles the aggregate snapshot the heartbeat checks hit. The four
// queries are independent, so they run concurrently; the first error wins.
func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		counts     task.Counts
		agents     []*agent.Agent
		cronJobs   []*cronjob.CronJob
		activities []*activity.Activity
	)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		var err error
		counts, err = s.tasks.Counts(ctx)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		agents, err = s.agents.List(ctx)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		cronJobs, err = s.cronJobs.List(ctx)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		activities, err = s.activities.List(ctx, 5)
		return err
	})
	if err := p.Wait(); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	resp := statusResponse{
		Status:    "online",
		Timestamp: time.Now(),
		Tasks:     counts,
		Agents: statusAgents{
			Total:        len(agents),
			WorkingNames: []string{},
		},
	}
	for _, a := range agents {
		if a.Status == agent.StatusWorking {
			resp.Agents.Working++
			resp.Agents.WorkingNames = append(resp.Agents.WorkingNames, a.Name)
		}
	}
	resp.CronJobs.Total = len(cronJobs)
	for _, j := range cronJobs {
		if j.Status == cronjob.StatusActive {
			resp.CronJobs.Active++
		}
	}
	if len(activities) > 0 {
		last := activities[0]
		resp.LastActivity = &statusLastActivity{
			Type:        last.Type,
			Description: last.Description,
			Timestamp:   last.Timestamp,
		}
	}
	cerr.SetJSONResponse(ctx, resp)
}
