package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/andreyxaxa/Resource-Service/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/Resource-Service/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
)

func errorResponse(ctx *fiber.Ctx, code int, msg string) error {
	return errorResponseWithDetails(ctx, code, msg, nil)
}

func errorResponseWithDetails(ctx *fiber.Ctx, code int, msg string, details map[string]string) error {
	return ctx.Status(code).JSON(response.Error{
		ErrorMessage: msg,
		Details:      details,
		ErrorCode:    strconv.Itoa(code),
	})
}

// handleError maps client errors to 400/404 and hides everything else behind 500.
func (r *V1) handleError(ctx *fiber.Ctx, err error, where string) error {
	var inputErr *errs.InputError
	if errors.As(err, &inputErr) {
		if errors.Is(inputErr, errs.ErrRecordNotFound) {
			r.logger.Info("%s: %s", where, inputErr.Message)

			return errorResponse(ctx, http.StatusNotFound, inputErr.Message)
		}

		r.logger.Warn("%s: %s", where, inputErr.Message)

		return errorResponseWithDetails(ctx, http.StatusBadRequest, inputErr.Message, inputErr.Details)
	}

	r.logger.Error(err, where)

	return errorResponse(ctx, http.StatusInternalServerError, "An unexpected error occurred")
}
