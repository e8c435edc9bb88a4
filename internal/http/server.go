package http

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"contas/internal/auth"
	"contas/internal/cache"
	applog "contas/internal/log"
	"contas/internal/middleware/ratelimit"
	"contas/internal/middleware/security"
	"contas/internal/middleware/trace"
	"contas/internal/ports"
	"contas/internal/services"
)

// TokenParser turns a bearer token into a user ID.
type TokenParser interface {
	ParseToken(token string) (string, error)
}

// Deps are the collaborators a Server routes requests to.
type Deps struct {
	Salary   *services.SalaryService
	Settings *services.SettingsService
	Tokens   TokenParser
	Pinger   ports.Pinger
	// Caches is optional; when set /readyz reports its sizes and Shutdown
	// stops its cleanup loop.
	Caches *cache.Manager
	Logger *applog.Logger

	RateLimitPerMinute int
}

type Server struct {
	http.Server
	deps     Deps
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	events   *applog.StructuredLogger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.Config{Component: applog.ComponentHTTP})
	}

	s := &Server{
		deps:     deps,
		detector: security.NewDetector(),
		events:   applog.NewStructuredLogger(deps.Logger),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RateLimitPerMinute,
		}),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, s.events.LogHTTPEnd)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.Handle("POST /calculate-net-salary", s.authenticated(s.handleCalculate))

	mux.Handle("GET /api/household", s.authenticated(s.handleGetHousehold))
	mux.Handle("POST /api/household", s.authenticated(s.handleCreateHousehold))
	mux.Handle("POST /api/household/members", s.authenticated(s.handleJoinHousehold))

	mux.Handle("GET /api/base-salaries", s.authenticated(s.handleListBaseSalaries))
	mux.Handle("POST /api/base-salaries", s.authenticated(s.handleCreateBaseSalary))
	mux.Handle("DELETE /api/base-salaries/{id}", s.authenticated(s.handleDeleteBaseSalary))

	mux.Handle("GET /api/components", s.authenticated(s.handleListComponents))
	mux.Handle("POST /api/components", s.authenticated(s.handleCreateComponent))
	mux.Handle("DELETE /api/components/{id}", s.authenticated(s.handleDeleteComponent))

	mux.Handle("GET /api/events", s.authenticated(s.handleListEvents))
	mux.Handle("POST /api/events", s.authenticated(s.handleCreateEvent))
	mux.Handle("DELETE /api/events/{id}", s.authenticated(s.handleDeleteEvent))

	mux.Handle("GET /api/deductions", s.authenticated(s.handleListDeductions))
	mux.Handle("POST /api/deductions", s.authenticated(s.handleCreateDeduction))
	mux.Handle("DELETE /api/deductions/{id}", s.authenticated(s.handleDeleteDeduction))

	s.Server = http.Server{
		Addr:    addr,
		Handler: s.chain(mux),
	}
	return s
}

// chain wraps h with the middleware stack, outermost first.
func (s *Server) chain(h http.Handler) http.Handler {
	h = s.rateLimited(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.detectSuspicious(h)
	h = applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(h)
	h = applog.Middleware(s.deps.Logger)(h)
	return s.tracer.Middleware(h)
}

// rateLimited applies the per-IP limit to everything except probes.
func (s *Server) rateLimited(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r),
			applog.FieldPath, r.URL.Path)
		_ = NewJSONResponse().Error(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isProbe(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

// detectSuspicious logs requests that look like scans. They are still served.
func (s *Server) detectSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request detected",
				applog.FieldComponent, applog.ComponentSecurity,
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldUserAgent, r.UserAgent())
		}
		next.ServeHTTP(w, r)
	})
}

// authenticated requires a valid bearer token and stores the user in the context.
func (s *Server) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		userID, err := s.deps.Tokens.ParseToken(token)
		if err != nil {
			applog.FromContext(r.Context()).DebugContext(r.Context(), "Token rejected",
				applog.FieldComponent, applog.ComponentAuth,
				applog.FieldError, err)
			writeError(w, r, err)
			return
		}
		ctx := auth.WithUser(r.Context(), userID)
		ctx = applog.NewContext(ctx, applog.FromContext(ctx).With(applog.FieldUserID, userID))
		next(w, r.WithContext(ctx))
	})
}

func isProbe(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

// userID returns the authenticated caller. Handlers behind authenticated
// always have one.
func userID(r *http.Request) string {
	id, _ := auth.UserFromContext(r.Context())
	return id
}

// pathID returns the trimmed {id} path value.
func pathID(r *http.Request) string {
	return strings.TrimSpace(r.PathValue("id"))
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.deps.Caches != nil {
			s.deps.Caches.Stop()
		}
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
