package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/gyges/pkg/domain/model/config"
	"github.com/secmon-lab/gyges/pkg/domain/types"
	"github.com/secmon-lab/gyges/pkg/usecase"
	"github.com/secmon-lab/gyges/pkg/utils/logging"
)

type Server struct {
	router    *chi.Mux
	registry  *usecase.Registry
	typeTable *config.ActionTypeTable
	groups    map[types.GroupID]*config.GroupSettings
}

type Options func(*Server)

// WithGroups sets the per-group settings used for permission checks and
// inactivity thresholds
func WithGroups(groups map[types.GroupID]*config.GroupSettings) Options {
	return func(s *Server) {
		s.groups = groups
	}
}

// WithTypeTable sets the action type configuration table
func WithTypeTable(table *config.ActionTypeTable) Options {
	return func(s *Server) {
		s.typeTable = table
	}
}

func New(registry *usecase.Registry, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:    r,
		registry:  registry,
		typeTable: config.DefaultActionTypeTable(),
		groups:    map[types.GroupID]*config.GroupSettings{},
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/groups/{groupID}", func(r chi.Router) {
			r.Post("/actions", s.createAction)
			r.Get("/actions", s.listActions)
			r.Get("/report", s.groupReport)
		})

		r.Route("/actions/{actionID}", func(r chi.Router) {
			r.Get("/", s.getAction)
			r.Delete("/", s.deleteAction)
			r.Post("/coordinator", s.claimCoordinator)
			r.Post("/role-a", s.claimRoleA)
			r.Post("/role-b", s.claimRoleB)
			r.Post("/participants", s.addParticipant)
			r.Delete("/participants/{userID}", s.removeParticipant)
			r.Post("/close", s.closeAction)
			r.Post("/reopen", s.reopenAction)
			r.Post("/result", s.setResult)
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// groupSettings returns the configured settings for a group, or defaults
// for unconfigured groups
func (s *Server) groupSettings(groupID types.GroupID) *config.GroupSettings {
	if gs, ok := s.groups[groupID]; ok {
		return gs
	}
	return config.NewGroupSettings(groupID)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
