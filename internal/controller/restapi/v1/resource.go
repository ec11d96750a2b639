package v1

import (
	"net/http"

	"github.com/andreyxaxa/Resource-Service/internal/controller/restapi/v1/response"
	"github.com/gofiber/fiber/v2"
)

// @Summary  	Upload MP3 resource
// @Description Stores the audio in S3, the resource row and its CREATE outbox event in one transaction
// @Tags 		resources
// @Accept 		audio/mpeg
// @Produce 	json
// @Param 		file body []byte true "MP3 bytes"
// @Success 	200 {object} response.UploadResource
// @Failure 	400 {object} response.Error "Not an MP3, too large or invalid metadata"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/resources [post]
func (r *V1) uploadResource(ctx *fiber.Ctx) error {
	id, err := r.res.Upload(ctx.UserContext(), ctx.Body(), ctx.Get(fiber.HeaderContentType))
	if err != nil {
		return r.handleError(ctx, err, "restapi - v1 - uploadResource")
	}

	return ctx.Status(http.StatusOK).JSON(response.UploadResource{ID: id})
}

// @Summary 	Get resource
// @Description Downloads the MP3 bytes of a resource
// @Tags 		resources
// @Produce 	audio/mpeg
// @Param 		id path string true "Resource ID"
// @Success 	200 {file} 	binary
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Resource not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/resources/{id} [get]
func (r *V1) getResource(ctx *fiber.Ctx) error {
	data, contentType, err := r.res.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return r.handleError(ctx, err, "restapi - v1 - getResource")
	}

	ctx.Set(fiber.HeaderContentType, contentType)

	return ctx.Status(http.StatusOK).Send(data)
}

// @Summary 	Delete resources
// @Description Deletes existing resources and records DELETE outbox events for them
// @Tags 		resources
// @Produce 	json
// @Param		id query string true "Comma separated resource IDs, at most 200 characters"
// @Success		200 {object} response.DeleteResources
// @Failure 	400 {object} response.Error "Invalid CSV or ID"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/resources [delete]
func (r *V1) deleteResources(ctx *fiber.Ctx) error {
	ids, err := r.res.Delete(ctx.UserContext(), ctx.Query("id"))
	if err != nil {
		return r.handleError(ctx, err, "restapi - v1 - deleteResources")
	}

	return ctx.Status(http.StatusOK).JSON(response.DeleteResources{IDs: ids})
}
