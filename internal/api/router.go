package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/examgate/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/examgate/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/examgate/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/examgate/internal/database"
	"github.com/saturnino-fabrica-de-software/examgate/internal/ws"
)

type Dependencies struct {
	Students    handler.StudentService
	Recognition handler.RecognitionService
	Rooms       handler.RoomService
	// Reports is optional; nil leaves the admin reporting routes out.
	Reports handler.ReportService
	// Hub receives recognition events; the router runs it until Shutdown.
	Hub *ws.Hub
	// Store is pinged by /ready. Nil means always ready.
	Store database.Pinger

	APIKey             string
	MaxImageBytes      int64
	RecognizeRateLimit int
	// BodyLimit caps request bodies; it must leave room for the image.
	BodyLimit int
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
	cancelHub   context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	cfg := fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "examgate API",
	}
	if deps != nil && deps.BodyLimit > 0 {
		cfg.BodyLimit = deps.BodyLimit
	}

	return &Router{
		app:    fiber.New(cfg),
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key",
	}))

	// Swagger documentation (no auth required)
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	var store database.Pinger
	if r.deps != nil {
		store = r.deps.Store
	}
	healthHandler := handler.NewHealthHandler(store, r.logger)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	if r.deps.Hub != nil {
		hubCtx, hubCancel := context.WithCancel(context.Background())
		r.cancelHub = hubCancel
		go r.deps.Hub.Run(hubCtx)
	}

	v1 := r.app.Group("/v1")

	admin := middleware.APIKey(r.deps.APIKey)

	r.rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Max:    r.deps.RecognizeRateLimit,
		Window: time.Minute,
	})
	limited := r.rateLimiter.Handler()

	// Students
	students := handler.NewStudentHandler(r.deps.Students, r.deps.MaxImageBytes, r.logger)
	v1.Post("/students", admin, students.Enroll)
	v1.Get("/students", admin, students.List)
	v1.Get("/students/:student_id", admin, students.Get)
	v1.Put("/students/:student_id/face", admin, students.UpdateFace)
	v1.Delete("/students/:student_id/face", admin, students.ClearFace)
	v1.Delete("/students/:student_id", admin, students.Delete)

	// Recognition
	recognition := handler.NewRecognitionHandler(r.deps.Recognition, r.logger)
	v1.Post("/recognize", limited, recognition.Recognize)
	v1.Post("/exam-rooms/:room_code/recognize", limited, recognition.RecognizeInRoom)

	// Exam rooms. Static segments are registered before /:id.
	rooms := handler.NewRoomHandler(r.deps.Rooms, r.logger)
	v1.Post("/exam-rooms", admin, rooms.Create)
	v1.Get("/exam-rooms", admin, rooms.List)
	v1.Get("/exam-rooms/preview", admin, rooms.Preview)
	v1.Get("/exam-rooms/validate/:room_code/:index_number", admin, rooms.Validate)
	v1.Get("/exam-rooms/:id", admin, rooms.Get)
	v1.Get("/exam-rooms/:id/students", admin, rooms.Roster)
	v1.Put("/exam-rooms/:id", admin, rooms.Update)
	v1.Delete("/exam-rooms/:id", admin, rooms.Delete)

	// Admin reporting
	if r.deps.Reports != nil {
		reports := handler.NewReportHandler(r.deps.Reports, r.logger)
		v1.Get("/admin/stats", admin, reports.Stats)
		v1.Get("/admin/recognition-logs", admin, reports.Logs)
	}

	// Live feeds
	if r.deps.Hub != nil {
		v1.Get("/feed", admin, ws.RequireUpgrade(), ws.Subscribe(r.deps.Hub))
		v1.Get("/exam-rooms/:room_code/feed", admin, ws.RequireUpgrade(), ws.Subscribe(r.deps.Hub))
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop WebSocket hub
	if r.cancelHub != nil {
		r.cancelHub()
	}

	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
