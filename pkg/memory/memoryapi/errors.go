package memoryapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/memorai/memorai/pkg/errx"
	"github.com/memorai/memorai/pkg/logx"
	"github.com/memorai/memorai/pkg/memory"
)

// ErrorHandler renders every error as {detail, code, type, status, request_id, details?}.
// With redact set, upstream failures only expose the failed operation, not the cause.
func ErrorHandler(redact bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		reqID := requestID(c)

		if e, ok := err.(*fiber.Error); ok {
			return c.Status(e.Code).JSON(fiber.Map{
				"detail":     e.Message,
				"code":       "FIBER_ERROR",
				"type":       string(errx.TypeBadRequest),
				"status":     e.Code,
				"request_id": reqID,
			})
		}

		e, ok := errx.As(err)
		if !ok {
			logx.WithFields(logx.Fields{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": reqID,
			}).Errorf("Unhandled error: %v", err)

			detail := err.Error()
			if redact {
				detail = "Internal Server Error"
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"detail":     detail,
				"code":       "INTERNAL_ERROR",
				"type":       string(errx.TypeInternal),
				"status":     fiber.StatusInternalServerError,
				"request_id": reqID,
			})
		}

		detail := e.Message
		details := e.Details
		if redact && e.Code == memory.CodeUpstreamFailure.Code {
			if op, ok := e.Details["operation"].(string); ok {
				detail = op
			} else {
				detail = memory.CodeUpstreamFailure.Message
			}
			details = nil
		}

		response := fiber.Map{
			"detail":     detail,
			"code":       e.Code,
			"type":       string(e.Type),
			"status":     e.HTTPStatus,
			"request_id": reqID,
		}
		if len(details) > 0 {
			response["details"] = details
		}
		return c.Status(e.HTTPStatus).JSON(response)
	}
}

// NotFoundHandler answers unknown routes; register it last
func NotFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"detail":     "Not Found",
		"code":       "ROUTE_NOT_FOUND",
		"type":       string(errx.TypeNotFound),
		"status":     fiber.StatusNotFound,
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": requestID(c),
	})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok && id != "" {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}
