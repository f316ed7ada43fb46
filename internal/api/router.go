package api

import (
	"net/http"

	"github.com/avelhart/opsuite/internal/api/handler"
	custommiddleware "github.com/avelhart/opsuite/internal/api/middleware"
	"github.com/avelhart/opsuite/internal/config"
	"github.com/avelhart/opsuite/internal/domain"
	"github.com/avelhart/opsuite/internal/repository/postgres"
	"github.com/avelhart/opsuite/internal/repository/redis"
	"github.com/avelhart/opsuite/internal/security"
	"github.com/avelhart/opsuite/internal/service"
	"github.com/avelhart/opsuite/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, db *postgres.DB, redisClient *redis.Client, files storage.FileStore) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Security components
	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	workflowRepo := postgres.NewWorkflowRepository(db)
	approvalRepo := postgres.NewApprovalRepository(db)
	documentRepo := postgres.NewDocumentRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	scheduleRepo := postgres.NewScheduleRepository(db)
	availabilityRepo := postgres.NewAvailabilityRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)

	// Redis-backed components
	rateLimiter := redis.NewRateLimiter(
		redisClient,
		cfg.Security.RateLimit.RequestsPerMinute,
		cfg.Security.RateLimit.Burst,
	)
	workflowCache := redis.NewWorkflowCache(redisClient)

	// Services
	authService := service.NewAuthService(userRepo, jwtManager)
	workflowService := service.NewWorkflowService(workflowRepo, workflowCache)
	approvalService := service.NewApprovalService(approvalRepo, documentRepo, workflowService, db)
	documentService := service.NewDocumentService(documentRepo, files, db)
	profileService := service.NewProfileService(profileRepo)
	scheduleService := service.NewScheduleService(scheduleRepo, profileRepo, availabilityRepo, db)
	bookingService := service.NewBookingService(availabilityRepo, appointmentRepo, profileRepo, db)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	workflowHandler := handler.NewWorkflowHandler(workflowService)
	approvalHandler := handler.NewApprovalHandler(approvalService)
	documentHandler := handler.NewDocumentHandler(documentService, cfg.Storage.MaxUploadSize)
	profileHandler := handler.NewProfileHandler(profileService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	bookingHandler := handler.NewBookingHandler(bookingService)

	// Middleware
	authMiddleware := custommiddleware.NewAuthMiddleware(jwtManager)
	rateLimitMiddleware := custommiddleware.NewRateLimitMiddleware(rateLimiter)
	adminOnly := authMiddleware.RequireRole(domain.RoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(db))

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(rateLimitMiddleware.Limit)

			r.Get("/auth/me", authHandler.Me)

			// Role management
			r.Route("/roles", func(r chi.Router) {
				r.Get("/", authHandler.ListRoles)
			})
			r.Route("/users/{userID}/roles", func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/", authHandler.AssignRole)
				r.Delete("/", authHandler.RevokeRole)
			})

			// Workflow definitions
			r.Route("/workflows", func(r chi.Router) {
				r.Get("/", workflowHandler.List)
				r.With(adminOnly).Post("/", workflowHandler.Create)

				r.Route("/{workflowID}", func(r chi.Router) {
					r.Get("/", workflowHandler.Get)
					r.With(adminOnly).Patch("/active", workflowHandler.SetActive)
				})
			})

			// Documents
			r.Route("/documents", func(r chi.Router) {
				r.Get("/", documentHandler.List)
				r.Post("/", documentHandler.Create)

				r.Route("/{documentID}", func(r chi.Router) {
					r.Get("/", documentHandler.Get)
					r.Delete("/", documentHandler.Delete)
					r.Post("/versions", documentHandler.UploadVersion)
					r.Get("/download", documentHandler.DownloadVersion)
					r.Post("/submit", approvalHandler.Submit)

					r.Route("/tags/{tagID}", func(r chi.Router) {
						r.Put("/", documentHandler.AttachTag)
						r.Delete("/", documentHandler.DetachTag)
					})
				})
			})

			// Folders and tags
			r.Route("/folders", func(r chi.Router) {
				r.Get("/", documentHandler.ListFolders)
				r.Post("/", documentHandler.CreateFolder)
			})
			r.Route("/tags", func(r chi.Router) {
				r.Get("/", documentHandler.ListTags)
				r.Post("/", documentHandler.CreateTag)
			})

			// Approval requests
			r.Route("/approval-requests/{requestID}", func(r chi.Router) {
				r.Get("/", approvalHandler.Status)
				r.Post("/approve", approvalHandler.Approve)
				r.Post("/reject", approvalHandler.Reject)
				r.Post("/cancel", approvalHandler.Cancel)
			})

			// Scheduling profiles
			r.Route("/profiles", func(r chi.Router) {
				r.Get("/", profileHandler.List)
				r.Post("/", profileHandler.Create)

				r.Route("/{profileID}", func(r chi.Router) {
					r.Get("/", profileHandler.Get)

					// Recurring schedules
					r.Route("/schedules", func(r chi.Router) {
						r.Get("/", scheduleHandler.List)
						r.Post("/", scheduleHandler.Create)
					})

					// Availabilities and slots
					r.Post("/availabilities", bookingHandler.CreateAvailability)
					r.Get("/slots", bookingHandler.ListSlots)
					r.Post("/slots/block", bookingHandler.BlockSlots)
					r.Post("/slots/unblock", bookingHandler.UnblockSlots)

					r.Get("/appointments", bookingHandler.ListAppointments)
				})
			})

			// Schedules
			r.Route("/schedules/{scheduleID}", func(r chi.Router) {
				r.Post("/pause", scheduleHandler.Pause)
				r.Post("/resume", scheduleHandler.Resume)
				r.Post("/generate", scheduleHandler.Generate)
			})

			// Appointments
			r.Route("/appointments", func(r chi.Router) {
				r.Post("/", bookingHandler.Book)

				r.Route("/{appointmentID}", func(r chi.Router) {
					r.Post("/cancel", bookingHandler.Cancel)
					r.Post("/complete", bookingHandler.Complete)
				})
			})
		})
	})

	return r
}
