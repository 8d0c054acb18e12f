package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/facematch/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/facematch/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/facematch/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facematch/internal/ws"
)

type Dependencies struct {
	FaceService handler.FaceService
	Models      handler.ModelStatus
	Camera      handler.CameraStatus
	Hub         *ws.Hub
	RateLimit   middleware.RateLimiterConfig
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
	cancelHub   context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Facematch API",
		BodyLimit:    12 * 1024 * 1024,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	if r.deps == nil {
		return
	}

	healthHandler := handler.NewHealthHandler(r.deps.Models, r.deps.Camera)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	v1 := r.app.Group("/v1")

	if r.deps.Hub != nil {
		hubCtx, hubCancel := context.WithCancel(context.Background())
		r.cancelHub = hubCancel
		go r.deps.Hub.Run(hubCtx)

		// registered before the rate limiter: a socket is long lived
		v1.Get("/ws", ws.UpgradeMiddleware(), ws.Handler(r.deps.Hub))
	}

	// Rate limiting (per client IP)
	r.rateLimiter = middleware.NewRateLimiter(r.deps.RateLimit)
	v1.Use(r.rateLimiter.Handler())

	faceHandler := handler.NewFaceHandler(r.deps.FaceService, r.logger)

	v1.Get("/state", faceHandler.State)
	v1.Get("/users", faceHandler.ListUsers)
	v1.Post("/users", faceHandler.Register)
	v1.Delete("/users/:name", faceHandler.DeleteUser)
	v1.Post("/match", faceHandler.Match)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	return r.ShutdownWithContext(context.Background())
}

// ShutdownWithContext stops the hub and the rate limiter, then waits for
// in-flight requests until ctx is done.
func (r *Router) ShutdownWithContext(ctx context.Context) error {
	if r.cancelHub != nil {
		r.cancelHub()
	}

	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.ShutdownWithContext(ctx)
}
