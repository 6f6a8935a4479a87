package server

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/encryptcookie"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/gofiber/storage/redis/v3"
	"github.com/gofiber/template/html/v3"

	"top100/internal/config"
)

// Server wraps the Fiber app and configuration.
type Server struct {
	App    *fiber.App
	Cfg    *config.Config
	Logger *slog.Logger
}

// Options tune the server for environments other than production.
type Options struct {
	// ViewsDir holds the HTML templates. Defaults to ./views.
	ViewsDir string
	// StaticDir holds CSS and images served under /static. Defaults to ./static.
	StaticDir string
	// SessionStorage overrides the session store. When nil the Redis store
	// is used if REDIS_URL is set, memory otherwise.
	SessionStorage fiber.Storage
}

// New creates a new server with middleware configured.
func New(cfg *config.Config, log *slog.Logger, opts Options) *Server {
	if log == nil {
		log = slog.Default()
	}
	if opts.ViewsDir == "" {
		opts.ViewsDir = "./views"
	}
	if opts.StaticDir == "" {
		opts.StaticDir = "./static"
	}

	engine := html.New(opts.ViewsDir, ".html")
	engine.Reload(cfg.IsDev())

	app := fiber.New(fiber.Config{
		Views:        engine,
		ViewsLayout:  "layouts/main",
		BodyLimit:    int(cfg.MaxImageBytes) + 1024*1024,
		ErrorHandler: errorHandler(cfg, log),
	})

	app.Use(recover.New())
	app.Use(logger.New())

	corsOrigins := cfg.BaseURL
	if cfg.CORSOrigins != "" {
		corsOrigins = cfg.CORSOrigins
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(corsOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: deriveEncryptionKey(cfg.SessionSecret),
	}))

	sessionStorage := opts.SessionStorage
	if sessionStorage == nil && cfg.RedisURL != "" {
		sessionStorage = redis.New(redis.Config{URL: cfg.RedisURL})
		log.Info("using redis session storage")
	}
	sessionMiddleware, _ := session.NewWithStore(session.Config{
		Storage:        sessionStorage,
		CookieSecure:   !cfg.IsDev(),
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})
	app.Use(sessionMiddleware)

	// 100 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:          100,
		Expiration:   1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string { return c.IP() },
		LimitReached: rateLimited,
		Next: func(c fiber.Ctx) bool {
			// Long-lived streams and health checks are not counted.
			return c.Path() == "/healthz" || c.Path() == "/api/admin/changes"
		},
	}))

	app.Get("/static/*", static.New(opts.StaticDir))

	return &Server{
		App:    app,
		Cfg:    cfg,
		Logger: log,
	}
}

func rateLimited(c fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"status": "error",
		"error":  "Rate limit exceeded. Please try again later.",
	})
}

// errorHandler answers API paths with the JSON envelope and renders the
// error page everywhere else.
func errorHandler(cfg *config.Config, log *slog.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		} else {
			log.Error("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
		}

		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(code).JSON(fiber.Map{
				"status": "error",
				"error":  message,
			})
		}

		return c.Status(code).Render("error", fiber.Map{
			"Title":       "Error",
			"Code":        code,
			"Message":     message,
			"SiteTitle":   cfg.SiteTitle,
			"SiteTagline": cfg.SiteTagline,
			"BaseURL":     cfg.BaseURL,
		})
	}
}

// Start starts the server on the configured address.
func (s *Server) Start() error {
	s.Logger.Info("starting server", "addr", s.Cfg.ServerAddr, "env", s.Cfg.Env)
	return s.App.Listen(s.Cfg.ServerAddr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown gracefully shuts down the server, waiting up to timeout for
// in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.App.ShutdownWithTimeout(timeout)
}

// deriveEncryptionKey derives a 32-byte encryption key from the session secret.
func deriveEncryptionKey(secret string) string {
	hash := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(hash[:])
}
