package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/himbot/mission-control/internal/agent"
	"github.com/himbot/mission-control/internal/cronjob"
	"github.com/himbot/mission-control/internal/memory"
	"github.com/himbot/mission-control/internal/task"
	"github.com/himbot/mission-control/pkg/cerr"
)

// activityListLimit is the page size for GET /api/activity when the caller
// does not pass one. The service default is smaller; the feed endpoint shows
// more history.
const activityListLimit = 50

type mutationResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return cerr.NewError(cerr.InvalidArgument, "invalid request body", err)
	}
	return nil
}

// logActivityFor appends a feed entry for a mutation that already succeeded.
// The append is best-effort: a failed write is logged and swallowed so the
// mutation's success response is not retracted.
func (s *Server) logActivityFor(ctx context.Context, typ, description string, metadata map[string]any) {
	if _, err := s.activities.Log(ctx, typ, description, metadata); err != nil {
		slog.WarnContext(ctx, "failed to log activity", "type", typ, "error", err)
	}
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tasks, err := s.tasks.List(ctx, task.Filter{})
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, tasks)
}

type createTaskRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      task.Status   `json:"status"`
	Assignee    task.Assignee `json:"assignee"`
	Priority    task.Priority `json:"priority"`
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	t, err := s.tasks.Create(ctx, task.CreateRequest{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Assignee:    req.Assignee,
		Priority:    req.Priority,
	})
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.logActivityFor(ctx, "task_created", fmt.Sprintf("Task created: %s", t.Title), map[string]any{"taskId": t.ID})
	cerr.SetJSONResponse(ctx, mutationResponse{ID: t.ID, Success: true})
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := s.tasks.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, t)
}

type patchTaskRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Status      *task.Status   `json:"status"`
	Assignee    *task.Assignee `json:"assignee"`
	Priority    *task.Priority `json:"priority"`
}

func (s *Server) patchTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req patchTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	t, err := s.tasks.Patch(ctx, chi.URLParam(r, "id"), task.PatchRequest{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Assignee:    req.Assignee,
		Priority:    req.Priority,
	})
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, mutationResponse{ID: t.ID, Success: true})
}

type setTaskStatusRequest struct {
	Status task.Status `json:"status"`
}

func (s *Server) setTaskStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req setTaskStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	t, err := s.tasks.SetStatus(ctx, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, mutationResponse{ID: t.ID, Success: true})
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := s.tasks.Remove(ctx, id); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, mutationResponse{ID: id, Success: true})
}

func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agents, err := s.agents.List(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, agents)
}

type upsertAgentRequest struct {
	Name        string       `json:"name"`
	Role        string       `json:"role"`
	Description string       `json:"description"`
	Status      agent.Status `json:"status"`
	CurrentTask string       `json:"currentTask"`
	TotalRuns   int          `json:"totalRuns"`
	Avatar      string       `json:"avatar"`
}

func (s *Server) upsertAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req upsertAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	a, err := s.agents.Upsert(ctx, agent.UpsertRequest{
		Name:        req.Name,
		Role:        req.Role,
		Description: req.Description,
		Status:      req.Status,
		CurrentTask: req.CurrentTask,
		TotalRuns:   req.TotalRuns,
		Avatar:      req.Avatar,
	})
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	var description string
	if a.Status == agent.StatusWorking {
		currentTask := a.CurrentTask
		if currentTask == "" {
			currentTask = "unknown task"
		}
		description = fmt.Sprintf("Agent %s started working: %s", a.Name, currentTask)
	} else {
		description = fmt.Sprintf("Agent %s status updated to %s", a.Name, a.Status)
	}
	s.logActivityFor(ctx, "agent_spawned", description, map[string]any{"agent": a.Name, "status": string(a.Status)})
	cerr.SetJSONResponse(ctx, mutationResponse{ID: a.ID, Success: true})
}

func (s *Server) listCronJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobs, err := s.cronJobs.List(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, jobs)
}

type upsertCronJobRequest struct {
	Name        string         `json:"name"`
	Schedule    string         `json:"schedule"`
	LastRun     *time.Time     `json:"lastRun"`
	NextRun     *time.Time     `json:"nextRun"`
	Status      cronjob.Status `json:"status"`
	LastResult  string         `json:"lastResult"`
	Description string         `json:"description"`
}

func (s *Server) upsertCronJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req upsertCronJobRequest
	if err := decodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	j, err := s.cronJobs.Upsert(ctx, cronjob.UpsertRequest{
		Name:        req.Name,
		Schedule:    req.Schedule,
		LastRun:     req.LastRun,
		NextRun:     req.NextRun,
		Status:      req.Status,
		LastResult:  req.LastResult,
		Description: req.Description,
	})
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, mutationResponse{ID: j.ID, Success: true})
}

func (s *Server) toggleCronJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	j, err := s.cronJobs.ToggleStatus(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, mutationResponse{ID: j.ID, Success: true})
}

func (s *Server) listMemories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if q := r.URL.Query().Get("q"); q != "" {
		results, err := s.memories.Search(ctx, q)
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		cerr.SetJSONResponse(ctx, results)
		return
	}
	memories, err := s.memories.List(ctx, memory.Type(r.URL.Query().Get("type")))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, memories)
}

type upsertMemoryRequest struct {
	Path    string      `json:"path"`
	Content string      `json:"content"`
	Type    memory.Type `json:"type"`
	Title   string      `json:"title"`
}

func (s *Server) upsertMemory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req upsertMemoryRequest
	if err := decodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	result, err := s.memories.Upsert(ctx, memory.UpsertRequest{
		Path:    req.Path,
		Content: req.Content,
		Type:    req.Type,
		Title:   req.Title,
	})
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	m := result.Memory
	metadata := map[string]any{"path": m.Path, "type": string(m.Type)}
	if result.ContentDiff != "" {
		metadata["diff"] = result.ContentDiff
	}
	s.logActivityFor(ctx, "memory_updated", fmt.Sprintf("Memory synced: %s", m.Path), metadata)
	cerr.SetJSONResponse(ctx, mutationResponse{ID: m.ID, Success: true})
}

func (s *Server) listActivities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := activityListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			cerr.SetNewJSONError(ctx, cerr.InvalidArgument, fmt.Sprintf("invalid limit %q", raw), err)
			return
		}
		limit = n
	}
	activities, err := s.activities.List(ctx, limit)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, activities)
}

type logActivityRequest struct {
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata"`
}

func (s *Server) logActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req logActivityRequest
	if err := decodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	a, err := s.activities.Log(ctx, req.Type, req.Description, req.Metadata)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, mutationResponse{ID: a.ID, Success: true})
}
