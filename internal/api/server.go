package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"ble-atlas/internal/engine"
)

// Server exposes the tracking engine to reporting displays and the
// visualization layer. All state lives in the engine; handlers only
// translate between HTTP and engine operations.
type Server struct {
	engine *engine.Engine
	hub    *Hub
	logger zerolog.Logger
}

func NewServer(eng *engine.Engine, hub *Hub, logger zerolog.Logger) *Server {
	return &Server{
		engine: eng,
		hub:    hub,
		logger: logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/report", s.submitReport)
		r.Get("/snapshot", s.getSnapshot)

		r.Post("/displays/{id}/position", s.setDisplayPosition)
		r.Post("/displays/{id}/name", s.renameDisplay)
		r.Delete("/displays/{id}", s.deleteDisplay)

		r.Post("/scale", s.setScale)
		r.Get("/scale", s.getScale)
	})

	r.Get("/ws", s.hub.ServeWS)
	r.Get("/healthz", s.health)

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Handled request")
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
