// Package httpapi exposes the REST surface the agent process and the
// dashboard talk to. Handlers record their result through the cerr response
// receiver; the middleware turns it into JSON.
package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/himbot/mission-control/internal/activity"
	"github.com/himbot/mission-control/internal/agent"
	"github.com/himbot/mission-control/internal/config"
	"github.com/himbot/mission-control/internal/cronjob"
	"github.com/himbot/mission-control/internal/memory"
	"github.com/himbot/mission-control/internal/task"
	"github.com/himbot/mission-control/pkg/cerr"
	"github.com/himbot/mission-control/pkg/clog"
)

type Server struct {
	server *http.Server
	env    *config.Env

	tasks      *task.Store
	agents     *agent.Service
	cronJobs   *cronjob.Service
	memories   *memory.Service
	activities *activity.Service
}

func NewServer(
	env *config.Env,
	tasks *task.Store,
	agents *agent.Service,
	cronJobs *cronjob.Service,
	memories *memory.Service,
	activities *activity.Service,
) *Server {
	return &Server{
		env:        env,
		tasks:      tasks,
		agents:     agents,
		cronJobs:   cronJobs,
		memories:   memories,
		activities: activities,
	}
}

// routes assembles the full handler tree. Split out of ListenAndServe so
// tests can drive the router without binding a port.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			cerr.NewJSONResponseChiMiddleware(),
		)
		r.Get("/tasks", s.listTasks)
		r.Post("/tasks", s.createTask)
		r.Get("/tasks/{id}", s.getTask)
		r.Patch("/tasks/{id}", s.patchTask)
		r.Post("/tasks/{id}/status", s.setTaskStatus)
		r.Delete("/tasks/{id}", s.deleteTask)
		r.Get("/agents", s.listAgents)
		r.Post("/agents", s.upsertAgent)
		r.Get("/cronjobs", s.listCronJobs)
		r.Post("/cronjobs", s.upsertCronJob)
		r.Post("/cronjobs/{id}/toggle", s.toggleCronJob)
		r.Get("/memory", s.listMemories)
		r.Post("/memory", s.upsertMemory)
		r.Get("/activity", s.listActivities)
		r.Post("/activity", s.logActivity)
		r.Get("/status", s.status)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)
	return mux
}

// ListenAndServe starts the HTTP server. The provided context is used as the
// base context for all incoming requests via http.Server.BaseContext, so
// cancelling it (e.g. on shutdown signal) cancels in-flight handlers too.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr: addr,
		Handler: h2c.NewHandler(cors.New(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}).Handler(s.routes()), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
