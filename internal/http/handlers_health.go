package http

import (
	"context"
	"net/http"
	"time"

	applog "contas/internal/log"
)

type healthResponse struct {
	Status string         `json:"status"`
	Caches map[string]int `json:"caches,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = NewJSONResponse().Body(healthResponse{Status: "ok"}).Write(w)
}

// handleReady pings storage and reports cache sizes.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ready"}
	if s.deps.Caches != nil {
		resp.Caches = s.deps.Caches.Sizes()
	}

	if s.deps.Pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Pinger.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
				applog.FieldComponent, applog.ComponentStorage,
				applog.FieldError, err)
			resp.Status = "unavailable"
			resp.Error = "storage unreachable"
			_ = NewJSONResponse().Status(http.StatusServiceUnavailable).Body(resp).Write(w)
			return
		}
	}

	_ = NewJSONResponse().Body(resp).Write(w)
}
