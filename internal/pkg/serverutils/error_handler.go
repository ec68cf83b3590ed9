package serverutils

import (
	"errors"
	"io/fs"

	"ideawalker-core/internal/entity"
	"ideawalker-core/pkg/writing"

	"github.com/gofiber/fiber/v2"
)

var notFoundErrors = []error{
	writing.ErrTrajectoryNotFound,
	writing.ErrSegmentNotFound,
	writing.ErrCardNotFound,
	fs.ErrNotExist,
}

var badRequestErrors = []error{
	writing.ErrInvalidIntent,
	writing.ErrEmptyRationale,
	writing.ErrInvalidOperation,
	writing.ErrInvalidSourceTag,
	writing.ErrInvalidStage,
	writing.ErrEmptyPrompt,
	writing.ErrInvalidDefenseStatus,
	writing.ErrInvalidEvidence,
	entity.ErrActionableIndex,
}

var conflictErrors = []error{
	writing.ErrInvalidStageTransition,
	writing.ErrFinalStage,
	writing.ErrDuplicateCard,
	writing.ErrDefenseRegression,
	writing.ErrTrajectoryExists,
}

// StatusFor maps a handler error to an HTTP status.
func StatusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch {
	case matchesAny(err, notFoundErrors):
		return fiber.StatusNotFound
	case matchesAny(err, badRequestErrors):
		return fiber.StatusBadRequest
	case matchesAny(err, conflictErrors):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

func matchesAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		code := StatusFor(err)
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}
