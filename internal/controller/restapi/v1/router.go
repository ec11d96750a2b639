package v1

import (
	"github.com/andreyxaxa/Resource-Service/internal/usecase"
	"github.com/andreyxaxa/Resource-Service/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func NewResourceRoutes(router fiber.Router, res usecase.ResourceUseCase, l logger.Interface) {
	r := &V1{res: res, logger: l}

	resourcesGroup := router.Group("/resources")
	{
		resourcesGroup.Post("/", r.uploadResource)
		resourcesGroup.Get("/:id", r.getResource)
		resourcesGroup.Delete("/", r.deleteResources)
	}
}
