package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"

	"github.com/SyedDaiam9101/gender-service/internal/middleware"
)

// DefaultBodyLimit caps uploads at 10 MiB.
const DefaultBodyLimit = 10 << 20

// NewApp wires the middleware chain and routes.
func NewApp(h *Handler, bodyLimit int, logger logrus.FieldLogger) *fiber.App {
	if bodyLimit <= 0 {
		bodyLimit = DefaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		AppName:               h.service,
		BodyLimit:             bodyLimit,
		ErrorHandler:          ErrorHandler(logger),
		DisableStartupMessage: true,
	})

	app.Use(middleware.Recover(logger))
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logger))
	app.Use(middleware.Metrics())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
	}))

	app.Get("/", h.Alive)
	app.Post("/analyze-gender", h.AnalyzeGender)

	return app
}
