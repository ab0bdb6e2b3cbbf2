// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "facegram/docs" // swagger docs
	"facegram/internal/cache"
	"facegram/internal/config"
	"facegram/internal/database"
	"facegram/internal/middleware"
	"facegram/internal/models"
	"facegram/internal/notifications"
	"facegram/internal/observability"
	"facegram/internal/repository"
	"facegram/internal/service"
	"facegram/internal/validation"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const tokenCookie = "token"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          cache.Store
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	limiter        *middleware.Limiter
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	relay  *notifications.Relay
	bridge *notifications.Bridge

	sessions      *service.SessionResolver
	authService   *service.AuthService
	userService   *service.UserService
	postService   *service.PostService
	chatService   *service.ChatService
	uploadService *service.UploadService
}

// NewServer connects to the database and Redis and builds a Server. When
// Redis is unreachable the server runs with caching disabled and a
// single-instance relay.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		observability.GlobalLogger.Warn("redis unavailable, caching disabled",
			slog.String("addr", cfg.RedisURL),
			slog.String("error", err.Error()),
		)
		rdb = nil
	}

	return NewServerWithDeps(cfg, db, rdb, nil)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil store derives one from rdb: Redis when present, otherwise a store
// that always misses.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, rdb *redis.Client, store cache.Store) (*Server, error) {
	if store == nil {
		if rdb != nil {
			store = cache.NewRedisStore(rdb)
		} else {
			store = cache.NopStore{}
		}
	}

	userRepo := repository.NewUserRepository(db)
	followerRepo := repository.NewFollowerRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	chatRepo := repository.NewChatRepository(db)

	sessions := service.NewSessionResolver(userRepo, store, cfg.JWTSecret, cfg.JWTTTL)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          rdb,
		store:          store,
		promMiddleware: middleware.InitMetrics("facegram-api"),
		limiter:        middleware.NewLimiter(rdb, cfg.Env),
		relay:          notifications.NewRelay(notifications.WithVerifiedSetup(cfg.RealtimeVerifySetup)),
		sessions:       sessions,
		authService: service.NewAuthService(userRepo, sessions, store, validation.New(),
			service.WithAutoVerify(cfg.AutoVerify),
			service.WithGoogleOAuth(service.GoogleOAuthConfig{
				ClientID:    cfg.GoogleClientID,
				RedirectURL: cfg.GoogleRedirectURL,
			}),
		),
		userService:   service.NewUserService(userRepo, followerRepo),
		postService:   service.NewPostService(postRepo, commentRepo, followerRepo, userRepo, store),
		chatService:   service.NewChatService(chatRepo, userRepo, store),
		uploadService: service.NewUploadService(service.NewLocalStorage(cfg.UploadDir), cfg.UploadMaxMB),
	}
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())

	if rdb != nil {
		s.bridge = notifications.NewBridge(rdb, s.relay)
		s.relay.SetBridge(s.bridge)
	}

	return s, nil
}

// newApp builds the fiber app with the full middleware chain and routes.
func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "FaceGram API",
		BodyLimit:    (service.MaxImagesPerPost + 1) * s.uploadLimitBytes(),
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func (s *Server) uploadLimitBytes() int {
	if s.uploadService == nil {
		return service.DefaultUploadMaxMB * 1024 * 1024
	}
	return int(s.uploadService.MaxBytes())
}

// errorHandler turns errors escaping handlers into the JSON error body.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message, Message: fe.Message})
	}
	return respondError(c, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		// Uploaded images are loaded cross-origin by the SPA.
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS must run before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	perMinute := s.config.RateLimitPerMin
	if perMinute <= 0 {
		perMinute = 100
	}
	app.Use(limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || strings.HasPrefix(c.Path(), "/health")
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			msg := "Too many requests, please try again later."
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{Error: msg, Message: msg})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Static("/uploads", s.config.UploadDir, fiber.Static{MaxAge: 86400})

	api := app.Group("/api")
	if !s.config.IsProduction() {
		api.Get("/monitor", monitor.New(monitor.Config{Title: "FaceGram API Monitor"}))
	}

	// Public auth routes
	api.Post("/register", s.Register)
	api.Post("/verify", s.VerifyEmail)
	api.Post("/login", s.Login)
	api.Get("/logout", s.Logout)
	api.Get("/auth/google", s.GoogleAuth)

	protected := api.Group("", s.AuthRequired())
	protected.Get("/me", s.Me)

	// Posts
	protected.Get("/posts/search", s.SearchPosts)
	protected.Get("/posts", s.GetPosts)
	protected.Post("/create", s.writeLimit("create_post", 10, 5*time.Minute), s.CreatePost)
	protected.Get("/post/hide/:postid", s.HidePost)
	protected.Delete("/post/delete/:postid", s.DeletePost)
	protected.Post("/post/comment", s.writeLimit("create_comment", 30, time.Minute), s.CommentPost)
	protected.Post("/post/like", s.LikePost)
	protected.Get("/post/:postid", s.GetPost)

	// Users
	protected.Get("/user/profile/:userid", s.GetUserProfile)
	protected.Get("/user/posts/:userid", s.GetUserPosts)
	protected.Get("/user/follow/:followid", s.ToggleFollow)
	protected.Get("/user/search", s.SearchUsers)

	// Chats
	protected.Post("/create/chat", s.writeLimit("create_chat", 20, time.Minute), s.CreateChat)
	protected.Post("/send/message", s.writeLimit("send_message", 60, time.Minute), s.SendMessage)
	protected.Get("/get/chatlist", s.GetChatList)
	protected.Get("/chat/:chatid/messages", s.GetMessages)

	// Websocket relay, authenticated like the REST API
	app.Get("/ws", s.AuthRequired(), s.requireUpgrade, s.WebsocketHandler())
}

// writeLimit applies the per-user Redis limit used on write endpoints.
func (s *Server) writeLimit(resource string, limit int, window time.Duration) fiber.Handler {
	return s.limiter.Handler(resource, limit, window, middleware.FailOpen)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so a
// server running without it is still ready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"realtime": fiber.Map{
			"connections": s.relay.ClientCount(),
		},
		"time": time.Now(),
	})
}

// AuthRequired resolves the session from the token cookie or a bearer
// header and stores the user in locals. The websocket endpoint also accepts
// a token query parameter because browsers cannot set headers on upgrade.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(tokenCookie)
		if token == "" {
			if parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				token = strings.TrimSpace(parts[1])
			}
		}
		if token == "" && c.Path() == "/ws" {
			token = c.Query("token")
		}

		user, err := s.sessions.Resolve(c.UserContext(), token)
		if err != nil {
			return respondError(c, err)
		}

		c.Locals("user", user)
		c.Locals("userID", user.UserID)
		c.SetUserContext(observability.WithUserID(c.UserContext(), user.UserID))
		return c.Next()
	}
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.newApp()

	if s.bridge != nil {
		if err := s.bridge.Start(s.shutdownCtx); err != nil {
			observability.GlobalLogger.Error("relay bridge unavailable, realtime is single-instance",
				slog.String("error", err.Error()))
		}
	}

	observability.GlobalLogger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.GlobalLogger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	s.relay.Shutdown()

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			observability.GlobalLogger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			observability.GlobalLogger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	observability.GlobalLogger.Info("Server shutdown complete")
	return nil
}
