package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"timetable_go/config"
	"timetable_go/database"
	"timetable_go/middleware"
	"timetable_go/routes"
	"timetable_go/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadConfig()
	setupLogging()

	database.Connect()
	defer database.Close()

	app := fiber.New(fiber.Config{
		AppName:      "Timetable API",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))
	app.Use(middleware.LoggerMiddleware())
	app.Use(middleware.AuditMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "timetable-api",
		})
	})

	routes.SetupRoutes(app)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
		})
	})

	auditFlush := services.NewAuditFlushService()
	auditFlush.Start()
	defer auditFlush.Stop()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logrus.Info("Shutting down server...")
		auditFlush.Stop()
		_ = app.Shutdown()
	}()

	port := config.AppConfig.Port
	logrus.Infof("Starting server on port %s (env=%s)", port, config.AppConfig.AppEnv)
	if err := app.Listen(":" + port); err != nil {
		logrus.Fatal("Server stopped: ", err)
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	logrus.WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
		"status": code,
	}).WithError(err).Error("Unhandled request error")

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// setupLogging configures logrus with JSON output. In production the log
// also goes to the configured file so it survives restarts.
func setupLogging() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(config.AppConfig.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if config.AppConfig.AppEnv == "production" && config.AppConfig.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(config.AppConfig.LogFile), 0o755); err == nil {
			if f, err := os.OpenFile(config.AppConfig.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				logrus.SetOutput(f)
			}
		}
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
