package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"jurisgate/internal/http/middleware"
)

// errorPayload is the body of every non-Gate error response. Gate
// rejections use the Gate envelope instead and are never written here.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func requestIDFromCtx(c *fiber.Ctx) string {
	s, _ := c.Locals(middleware.RequestIDLocalKey).(string)
	return s
}

// writeError writes the error envelope. message must be safe to show to callers.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

type statusError struct {
	code    string
	message string
}

// statusErrors maps the statuses Fiber and the middleware raise to safe
// codes and messages. An empty message means the error's own message is safe.
var statusErrors = map[int]statusError{
	fiber.StatusBadRequest:            {"BAD_REQUEST", "bad request"},
	fiber.StatusUnauthorized:          {"UNAUTHORIZED", ""},
	fiber.StatusNotFound:              {"NOT_FOUND", "resource not found"},
	fiber.StatusMethodNotAllowed:      {"METHOD_NOT_ALLOWED", "method not allowed"},
	fiber.StatusRequestEntityTooLarge: {"PAYLOAD_TOO_LARGE", "request body too large"},
}

// ErrorHandler returns the Fiber error handler. Anything that is not a
// known *fiber.Error becomes a 500 without internal detail.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if !errors.As(err, &fe) {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		se, ok := statusErrors[fe.Code]
		if !ok {
			return writeError(c, fe.Code, "INTERNAL_ERROR", "internal server error")
		}
		msg := se.message
		if msg == "" {
			msg = fe.Message
		}
		return writeError(c, fe.Code, se.code, msg)
	}
}
