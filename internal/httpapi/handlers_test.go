package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himbot/mission-control/internal/activity"
	activityrepo "github.com/himbot/mission-control/internal/activity/repositoryimpl"
	"github.com/himbot/mission-control/internal/agent"
	agentrepo "github.com/himbot/mission-control/internal/agent/repositoryimpl"
	"github.com/himbot/mission-control/internal/config"
	"github.com/himbot/mission-control/internal/cronjob"
	cronjobrepo "github.com/himbot/mission-control/internal/cronjob/repositoryimpl"
	"github.com/himbot/mission-control/internal/eventbus"
	"github.com/himbot/mission-control/internal/memory"
	memoryrepo "github.com/himbot/mission-control/internal/memory/repositoryimpl"
	"github.com/himbot/mission-control/internal/task"
	taskrepo "github.com/himbot/mission-control/internal/task/repositoryimpl"
	"github.com/himbot/mission-control/pkg/storage"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	bus := eventbus.New()
	srv := NewServer(
		&config.Env{},
		task.NewStore(taskrepo.NewYAMLRepository(store), bus),
		agent.NewService(agentrepo.NewYAMLRepository(store), bus),
		cronjob.NewService(cronjobrepo.NewYAMLRepository(store), bus),
		memory.NewService(memoryrepo.NewYAMLRepository(store), bus),
		activity.NewService(activityrepo.NewYAMLRepository(store)),
	)
	return srv, srv.routes()
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	_, handler := newTestServer(t)
	rec := doJSON(t, handler, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateTask_RequiresTitle(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/tasks", map[string]string{"description": "no title"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "title is required", body["error"])
}

func TestCreateTask_DefaultsAndListing(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/tasks", map[string]string{"title": "Ship the report"})
	require.Equal(t, http.StatusOK, rec.Code)
	created := decodeBody[mutationResponse](t, rec)
	assert.True(t, created.Success)
	assert.NotEmpty(t, created.ID)

	rec = doJSON(t, handler, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tasks := decodeBody[[]*task.Task](t, rec)
	require.Len(t, tasks, 1)
	assert.Equal(t, task.StatusBacklog, tasks[0].Status)
	assert.Equal(t, task.AssigneeHimbot, tasks[0].Assignee)
	assert.Equal(t, task.PriorityMedium, tasks[0].Priority)

	// The mutation also left a feed entry.
	rec = doJSON(t, handler, http.MethodGet, "/api/activity", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	activities := decodeBody[[]*activity.Activity](t, rec)
	require.Len(t, activities, 1)
	assert.Equal(t, "task_created", activities[0].Type)
	assert.Equal(t, "Task created: Ship the report", activities[0].Description)
	assert.Equal(t, created.ID, activities[0].Metadata["taskId"])
}

func TestTaskByID(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/tasks", map[string]string{"title": "a"})
	require.Equal(t, http.StatusOK, rec.Code)
	created := decodeBody[mutationResponse](t, rec)

	rec = doJSON(t, handler, http.MethodGet, "/api/tasks/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[*task.Task](t, rec)
	assert.Equal(t, "a", got.Title)

	rec = doJSON(t, handler, http.MethodGet, "/api/tasks/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/tasks/"+created.ID+"/status", map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPatch, "/api/tasks/"+created.ID, map[string]string{"title": "b", "priority": "high"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/tasks/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got = decodeBody[*task.Task](t, rec)
	assert.Equal(t, "b", got.Title)
	assert.Equal(t, task.PriorityHigh, got.Priority)
	assert.Equal(t, task.StatusInProgress, got.Status)

	rec = doJSON(t, handler, http.MethodDelete, "/api/tasks/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, handler, http.MethodGet, "/api/tasks/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpsertAgent_ActivityDescriptionSplit(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/agents", map[string]string{"name": "Coder"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/agents", map[string]any{
		"name":        "Coder",
		"role":        "Software Engineer",
		"status":      "working",
		"currentTask": "Refactoring the parser",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/agents", map[string]any{
		"name": "Coder",
		"role": "Software Engineer",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/activity", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	activities := decodeBody[[]*activity.Activity](t, rec)
	require.Len(t, activities, 2)
	// Newest first: the idle update, then the working one.
	assert.Equal(t, "Agent Coder status updated to idle", activities[0].Description)
	assert.Equal(t, "Agent Coder started working: Refactoring the parser", activities[1].Description)

	rec = doJSON(t, handler, http.MethodGet, "/api/agents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	agents := decodeBody[[]*agent.Agent](t, rec)
	assert.Len(t, agents, 1)
}

func TestMemoryEndpoints(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/memory", map[string]string{"path": "x.md"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/memory", map[string]string{
		"path":    "lessons/retries.md",
		"content": "Back off exponentially.",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/memory", map[string]string{
		"path":    "daily/2026-08-31.md",
		"content": "Shipped the dashboard.",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/memory", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	memories := decodeBody[[]*memory.Memory](t, rec)
	assert.Len(t, memories, 2)

	rec = doJSON(t, handler, http.MethodGet, "/api/memory?type=lesson", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	memories = decodeBody[[]*memory.Memory](t, rec)
	require.Len(t, memories, 1)
	assert.Equal(t, "lessons/retries.md", memories[0].Path)

	rec = doJSON(t, handler, http.MethodGet, "/api/memory?type=journal", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// q takes precedence over type.
	rec = doJSON(t, handler, http.MethodGet, "/api/memory?type=lesson&q=dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	memories = decodeBody[[]*memory.Memory](t, rec)
	require.Len(t, memories, 1)
	assert.Equal(t, "daily/2026-08-31.md", memories[0].Path)
}

func TestMemoryUpsert_DiffInActivity(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/memory", map[string]string{"path": "MEMORY.md", "content": "v1"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, handler, http.MethodPost, "/api/memory", map[string]string{"path": "MEMORY.md", "content": "v2"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/activity", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	activities := decodeBody[[]*activity.Activity](t, rec)
	require.Len(t, activities, 2)
	assert.Equal(t, "Memory synced: MEMORY.md", activities[0].Description)
	assert.Contains(t, activities[0].Metadata, "diff")
	assert.NotContains(t, activities[1].Metadata, "diff")
}

func TestActivityEndpoints(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/activity", map[string]string{"type": "custom"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for i := 0; i < 3; i++ {
		rec = doJSON(t, handler, http.MethodPost, "/api/activity", map[string]any{
			"type":        "heartbeat",
			"description": "Heartbeat ran",
			"metadata":    map[string]any{"round": i},
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/activity?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	activities := decodeBody[[]*activity.Activity](t, rec)
	assert.Len(t, activities, 2)

	rec = doJSON(t, handler, http.MethodGet, "/api/activity?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCronJobEndpoints(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/cronjobs", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/cronjobs", map[string]string{
		"name":     "Memory Heartbeat",
		"schedule": "*/30 * * * *",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	created := decodeBody[mutationResponse](t, rec)

	rec = doJSON(t, handler, http.MethodPost, "/api/cronjobs/"+created.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/cronjobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	jobs := decodeBody[[]*cronjob.CronJob](t, rec)
	require.Len(t, jobs, 1)
	assert.Equal(t, cronjob.StatusDisabled, jobs[0].Status)
}

func TestStatusSnapshot(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/tasks", map[string]string{"title": "a"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, handler, http.MethodPost, "/api/tasks", map[string]string{"title": "b", "status": "done"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, handler, http.MethodPost, "/api/agents", map[string]any{
		"name":        "Fact Extractor",
		"role":        "Memory Manager",
		"status":      "working",
		"currentTask": "Running heartbeat extraction",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, handler, http.MethodPost, "/api/cronjobs", map[string]string{
		"name":     "Memory Heartbeat",
		"schedule": "*/30 * * * *",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decodeBody[statusResponse](t, rec)

	assert.Equal(t, "online", status.Status)
	assert.False(t, status.Timestamp.IsZero())
	assert.Equal(t, 2, status.Tasks.Total)
	assert.Equal(t, 1, status.Tasks.Backlog)
	assert.Equal(t, 1, status.Tasks.Done)
	assert.Equal(t, 1, status.Agents.Total)
	assert.Equal(t, 1, status.Agents.Working)
	assert.Equal(t, []string{"Fact Extractor"}, status.Agents.WorkingNames)
	assert.Equal(t, 1, status.CronJobs.Total)
	assert.Equal(t, 1, status.CronJobs.Active)
	require.NotNil(t, status.LastActivity)
}

func TestUnknownAPIRoute(t *testing.T) {
	_, handler := newTestServer(t)
	rec := doJSON(t, handler, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "not found", body["error"])
}
