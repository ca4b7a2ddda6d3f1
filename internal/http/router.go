package http

import (
	"log/slog"
	stdhttp "net/http"

	"github.com/geocoder89/userhub/internal/cache"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/http/handlers"
	"github.com/geocoder89/userhub/internal/http/middlewares"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// UserStore is everything the HTTP layer needs from persistence.
type UserStore interface {
	handlers.UserReader
	handlers.UserWriter
	handlers.UsersStore
	handlers.Pinger
}

type TokenService interface {
	handlers.TokenIssuer
	middlewares.TokenVerifier
}

type Deps struct {
	Log    *slog.Logger
	Store  UserStore
	Hasher handlers.PasswordHasher
	Tokens TokenService
	// StatsCache may be nil; statistics are then read from the store every time.
	StatsCache cache.Store
	Prom       *observability.Prom
	Gatherer   prometheus.Gatherer
	// Draining reports true once shutdown has begun so /readyz fails first.
	Draining func() bool

	ServiceName        string
	CORSAllowedOrigins []string
	MaxBodyBytes       int64
}

// Access is the capability set a route requires. Roles implies Authenticated.
type Access struct {
	Authenticated bool
	Roles         []user.Role
}

var (
	public        = Access{}
	authenticated = Access{Authenticated: true}
	adminOnly     = Access{Authenticated: true, Roles: []user.Role{user.RoleAdmin}}
)

func (a Access) requiresAuth() bool {
	return a.Authenticated || len(a.Roles) > 0
}

type Route struct {
	Method  string
	Path    string
	Access  Access
	Handler gin.HandlerFunc
}

func buildRoutes(d Deps) []Route {
	health := handlers.NewHealthHandler(d.Store, d.Draining, d.Log)
	authH := handlers.NewAuthHandler(d.Store, d.Store, d.Hasher, d.Tokens, d.StatsCache, d.Log)
	usersH := handlers.NewUsersHandler(d.Store, d.StatsCache, d.Log)

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return []Route{
		{stdhttp.MethodGet, "/", public, health.Root},
		{stdhttp.MethodGet, "/healthz", public, health.Healthz},
		{stdhttp.MethodGet, "/readyz", public, health.Readyz},
		{stdhttp.MethodGet, "/metrics", public, gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))},
		{stdhttp.MethodGet, "/docs", public, handlers.SwaggerUI},
		{stdhttp.MethodGet, "/docs/openapi.yaml", public, handlers.OpenAPISpec},

		{stdhttp.MethodPost, "/register", public, authH.Register},
		{stdhttp.MethodPost, "/login", public, authH.Login},

		{stdhttp.MethodGet, "/users", adminOnly, usersH.ListUsers},
		{stdhttp.MethodPatch, "/users/:id", adminOnly, usersH.UpdateStatus},
		{stdhttp.MethodGet, "/user-data", authenticated, usersH.UserData},
		{stdhttp.MethodGet, "/statistics", authenticated, usersH.Statistics},
		{stdhttp.MethodGet, "/admin-only", adminOnly, handlers.AdminOnly},
	}
}

func NewRouter(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.ServiceName == "" {
		d.ServiceName = "userhub"
	}
	if d.MaxBodyBytes <= 0 {
		d.MaxBodyBytes = 1 << 20
	}

	handlers.RegisterValidators()

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(d.ServiceName))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(d.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	authMW := middlewares.NewAuthMiddleware(d.Tokens, d.Prom)

	for _, rt := range buildRoutes(d) {
		chain := make([]gin.HandlerFunc, 0, 3)

		if rt.Access.requiresAuth() {
			chain = append(chain, authMW.RequireAuth())
		}
		if len(rt.Access.Roles) > 0 {
			chain = append(chain, authMW.RequireRole(rt.Access.Roles...))
		}

		r.Handle(rt.Method, rt.Path, append(chain, rt.Handler)...)
	}

	return r
}
