package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/dealerhub/api/handler"
	"github.com/fastygo/dealerhub/domain"
	"github.com/fastygo/dealerhub/internal/metrics"
	"github.com/fastygo/dealerhub/internal/middleware"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	Health *apiHandler.HealthHandler
	// Metrics is mounted at /metrics when set.
	Metrics fasthttp.RequestHandler
	// Pprof is mounted at /debug/pprof/ for admins when set.
	Pprof fasthttp.RequestHandler
}

// Guards wraps route handlers with the access gates. Downstream modules mount
// their routes through it.
type Guards struct {
	auth *middleware.Auth
}

func NewGuards(auth *middleware.Auth) Guards {
	return Guards{auth: auth}
}

// Authenticated requires an active identity.
func (g Guards) Authenticated(h fasthttp.RequestHandler) fasthttp.RequestHandler {
	return g.auth.Required(h)
}

// Optional attaches the identity when present and never rejects.
func (g Guards) Optional(h fasthttp.RequestHandler) fasthttp.RequestHandler {
	return g.auth.Optional(h)
}

// Admin requires an active admin.
func (g Guards) Admin(h fasthttp.RequestHandler) fasthttp.RequestHandler {
	return g.auth.Required(g.auth.RequireRole(domain.RoleAdmin)(h))
}

// ApprovedDealer requires an admin or a dealer whose profile is approved.
func (g Guards) ApprovedDealer(h fasthttp.RequestHandler) fasthttp.RequestHandler {
	return g.auth.Required(g.auth.RequireApprovedDealer(h))
}

func New(handlers Handlers, guards Guards) *router.Router {
	r := router.New()
	r.SaveMatchedRoutePath = true

	r.GET("/health", handlers.Health.Check)
	if handlers.Metrics != nil {
		r.GET("/metrics", handlers.Metrics)
	}
	if handlers.Pprof != nil {
		r.GET("/debug/pprof/{profile:*}", guards.Admin(handlers.Pprof))
	}

	auth := r.Group("/api/auth")
	auth.POST("/login", handlers.Auth.Login)
	auth.POST("/logout", handlers.Auth.Logout)
	auth.POST("/refresh", handlers.Auth.Refresh)
	auth.GET("/me", guards.Authenticated(handlers.Auth.Me))

	return r
}

// Handler applies the global middleware chain around the route table.
func Handler(r *router.Router, m *metrics.Metrics, corsOrigins []string) fasthttp.RequestHandler {
	return m.Instrument(middleware.SecurityHeaders(middleware.CORS(corsOrigins)(r.Handler)))
}
