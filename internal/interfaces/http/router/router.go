package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/merchpulse/backend/internal/infrastructure/config"
	"github.com/merchpulse/backend/internal/infrastructure/logger"
	"github.com/merchpulse/backend/internal/interfaces/http/handler"
	"github.com/merchpulse/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Use adds middleware applied to every versioned API route
func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.middleware = append(r.middleware, middleware...)
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	if len(r.middleware) > 0 {
		api.Use(r.middleware...)
	}

	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// DomainGroup creates a route group for a specific domain
type DomainGroup struct {
	name       string
	prefix     string
	routes     []routeDefinition
	subgroups  []*DomainGroup
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{
		name:       name,
		prefix:     prefix,
		routes:     make([]routeDefinition, 0),
		subgroups:  make([]*DomainGroup, 0),
		middleware: make([]gin.HandlerFunc, 0),
	}
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodGet, path, handlers)
}

// POST registers a POST route
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPost, path, handlers)
}

// PUT registers a PUT route
func (dg *DomainGroup) PUT(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPut, path, handlers)
}

func (dg *DomainGroup) handle(method, path string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{
		method:   method,
		path:     path,
		handlers: handlers,
	})
	return dg
}

// Group creates a sub-group within this domain
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	subgroup := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, subgroup)
	return subgroup
}

// RegisterRoutes implements RouteRegistrar interface
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)
	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}

	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}

	for _, subgroup := range dg.subgroups {
		subgroup.RegisterRoutes(group)
	}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

// Handlers bundles the API handlers mounted by NewEngine
type Handlers struct {
	Auth       *handler.AuthHandler
	Attendance *handler.AttendanceHandler
	Audit      *handler.AuditHandler
	Employees  *handler.EmployeeHandler
	Health     *handler.HealthHandler
}

// EngineConfig controls the middleware chain built by NewEngine
type EngineConfig struct {
	Logger        *zap.Logger
	Authenticator middleware.Authenticator
	HTTP          config.HTTPConfig
	Tracing       middleware.TracingConfig
	// Meter records HTTP server metrics; nil disables them
	Meter metric.Meter
	// LoginLimiter throttles POST /auth/login per client IP; nil disables it
	LoginLimiter *middleware.RateLimiter
	// Profiling labels request goroutines for the continuous profiler
	Profiling bool
}

// NewEngine builds the gin engine with the full middleware chain and every API route.
//
// Order: request id, recovery, tracing, metrics, profiling labels, access log, security headers,
// CORS, body limit; then JWT and span enrichment on /api/v1.
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(cfg.Tracing))
	engine.Use(middleware.HTTPMetricsWithMeter(cfg.Meter))
	engine.Use(middleware.Profiling(cfg.Profiling))
	engine.Use(logger.GinMiddleware(log, "/health"))
	engine.Use(middleware.Secure())

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(cors))

	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}

	engine.GET("/health", h.Health.Health)

	r := NewRouter(engine, WithAPIVersion("v1"))
	jwtConfig := middleware.DefaultJWTConfig(cfg.Authenticator)
	jwtConfig.Logger = log
	r.Use(
		middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
		middleware.TracingAttributeInjector(),
		middleware.SpanErrorMarker(),
	)

	authRoutes := NewDomainGroup("auth", "/auth")
	if cfg.LoginLimiter != nil {
		authRoutes.POST("/login", middleware.RateLimit(cfg.LoginLimiter), h.Auth.Login)
	} else {
		authRoutes.POST("/login", h.Auth.Login)
	}
	authRoutes.POST("/logout", h.Auth.Logout)

	attendanceRoutes := NewDomainGroup("attendance", "/attendance")
	attendanceRoutes.GET("/status", h.Attendance.Status)
	attendanceRoutes.POST("/punches", h.Attendance.RecordPunch)
	attendanceRoutes.PUT("/punches/:id", h.Attendance.CorrectPunch)
	attendanceRoutes.GET("/team", h.Attendance.TeamDay)

	auditRoutes := NewDomainGroup("audit", "/audit")
	auditRoutes.GET("/recent", h.Audit.Recent)
	auditRoutes.GET("/:entity_type/:entity_id", h.Audit.ForEntity)

	employeeRoutes := NewDomainGroup("employees", "/employees")
	employeeRoutes.GET("", h.Employees.List)
	employeeRoutes.POST("", h.Employees.Create)
	employeeRoutes.PUT("/:id", h.Employees.Update)
	employeeRoutes.POST("/:id/deactivate", h.Employees.Deactivate)

	r.Register(authRoutes).
		Register(attendanceRoutes).
		Register(auditRoutes).
		Register(employeeRoutes)
	r.Setup()

	return engine
}
