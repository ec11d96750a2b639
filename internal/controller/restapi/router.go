package restapi

import (
	"github.com/andreyxaxa/Resource-Service/config"
	v1 "github.com/andreyxaxa/Resource-Service/internal/controller/restapi/v1"
	"github.com/andreyxaxa/Resource-Service/internal/usecase"
	"github.com/andreyxaxa/Resource-Service/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// @title Resource service
// @version 1.0.0
// @host localhost:8080
// @BasePath /
func NewRouter(app *fiber.App, cfg *config.Config, res usecase.ResourceUseCase, l logger.Interface) {
	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	// Routers
	v1.NewResourceRoutes(app, res, l)
}
