package handlers

import (
	"errors"
	"log"

	"assofund/internal/core/domain"
	"assofund/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// respondDomainError maps ledger domain errors onto HTTP statuses.
// Anything unrecognized is treated as a persistence failure.
func respondDomainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrMemberNotFound),
		errors.Is(err, domain.ErrObligationNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrMemberAlreadyExists),
		errors.Is(err, domain.ErrAlreadySettled),
		errors.Is(err, domain.ErrNoMatchingObligation),
		errors.Is(err, domain.ErrConcurrencyConflict):
		return response.Conflict(c, err.Error())
	case errors.Is(err, domain.ErrMemberInactive):
		return response.Conflict(c, err.Error())
	case errors.Is(err, domain.ErrDuplicateEntry):
		return response.Conflict(c, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrTokenExpired):
		return response.Unauthorized(c, err.Error())
	default:
		log.Printf("❌ Unhandled error: %v", err)
		return response.InternalServerError(c, "Something went wrong")
	}
}
