package response

import "github.com/gofiber/fiber/v2"

// Response is the JSON envelope every endpoint replies with. Success
// replies carry Message and Data; failures carry Error only, so clients
// can branch on the Success flag alone.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func send(c *fiber.Ctx, status int, body Response) error {
	return c.Status(status).JSON(body)
}

// Success sends a 200 envelope
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return send(c, fiber.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created sends a 201 envelope for freshly recorded resources
func Created(c *fiber.Ctx, message string, data interface{}) error {
	return send(c, fiber.StatusCreated, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends a failure envelope with the given status
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return send(c, statusCode, Response{
		Success: false,
		Error:   message,
	})
}

// BadRequest rejects malformed or invalid input (400)
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// Unauthorized rejects missing or bad credentials (401)
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message)
}

// Forbidden rejects a valid user lacking the required role (403)
func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, message)
}

// NotFound reports an unknown resource (404)
func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

// Conflict reports a state clash, e.g. settling an already paid
// obligation or a busy member ledger (409)
func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, message)
}

// InternalServerError reports an unexpected failure (500)
func InternalServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}
