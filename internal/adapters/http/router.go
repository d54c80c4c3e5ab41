package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/oyvstu/vegplan/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 300 requests per minute per IP. Planning sessions
	// click-select and drag frequently, so the ceiling is generous.
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Deprecated legacy surface
	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{
			Path:        "/v1/legacy/centerline",
			SunsetDate:  time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC),
			Alternative: "/v1/sessions/{id}/road",
		},
	}))

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1, 15s per-request timeout
	v1 := app.Group("/v1")

	// Work sessions: road selection and placement
	v1.Post("/sessions/:id/road", timeout.NewWithContext(SelectRoadHandler(deps), 15*time.Second))
	v1.Get("/sessions/:id/road", timeout.NewWithContext(GetRoadHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/snap", timeout.NewWithContext(SnapHandler(deps), 15*time.Second))
	v1.Post("/sessions/:id/boundaries/:which", timeout.NewWithContext(SetBoundaryHandler(deps), 15*time.Second))
	v1.Get("/sessions/:id/markers", timeout.NewWithContext(MarkersHandler(deps), 15*time.Second))
	v1.Get("/sessions/:id/chainage", timeout.NewWithContext(ChainageHandler(deps), 15*time.Second))
	v1.Delete("/sessions/:id", timeout.NewWithContext(ClearSessionHandler(deps), 15*time.Second))

	// Traffic plans
	v1.Post("/plans", timeout.NewWithContext(CreatePlanHandler(deps), 15*time.Second))
	v1.Get("/plans", timeout.NewWithContext(ListPlansHandler(deps), 15*time.Second))
	v1.Get("/plans/:id", timeout.NewWithContext(GetPlanHandler(deps), 15*time.Second))
	v1.Put("/plans/:id", timeout.NewWithContext(UpdatePlanHandler(deps), 15*time.Second))
	v1.Delete("/plans/:id", timeout.NewWithContext(DeletePlanHandler(deps), 15*time.Second))

	// Legacy GeoJSON flattening, kept for saved plans from the old client
	v1.Post("/legacy/centerline", timeout.NewWithContext(LegacyCenterlineHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
