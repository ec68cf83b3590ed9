package serverutils

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"ideawalker-core/internal/entity"
	"ideawalker-core/pkg/writing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name  string  `json:"name" validate:"required"`
	Score float64 `json:"score" validate:"gte=0,lte=1"`
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(sampleRequest{Name: "a", Score: 0.5}))

	err := ValidateRequest(sampleRequest{Score: 3})
	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusBadRequest, fe.Code)
	assert.Equal(t, "name: required; score: lte=1", fe.Message)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("load: %w", writing.ErrTrajectoryNotFound), fiber.StatusNotFound},
		{writing.ErrEmptyRationale, fiber.StatusBadRequest},
		{fmt.Errorf("%w: Intent -> Final", writing.ErrInvalidStageTransition), fiber.StatusConflict},
		{fmt.Errorf("read note Nota_x.md: %w", fs.ErrNotExist), fiber.StatusNotFound},
		{fmt.Errorf("%w: 4 of 2", entity.ErrActionableIndex), fiber.StatusBadRequest},
		{fiber.NewError(fiber.StatusTeapot, "tea"), fiber.StatusTeapot},
		{errors.New("disk full"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}
