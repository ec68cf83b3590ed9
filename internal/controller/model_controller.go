package controller

import (
	"ideawalker-core/internal/dto"
	"ideawalker-core/internal/pkg/serverutils"
	"ideawalker-core/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IModelController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Select(ctx *fiber.Ctx) error
}

type modelController struct {
	models service.IModelService
}

func NewModelController(models service.IModelService) IModelController {
	return &modelController{models: models}
}

func (c *modelController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/models")
	h.Get("", c.List)
	h.Put("current", c.Select)
}

func (c *modelController) List(ctx *fiber.Ctx) error {
	res := dto.ModelListResponse{
		Current:   c.models.Current(),
		Available: c.models.List(ctx.UserContext()),
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get models", res))
}

func (c *modelController) Select(ctx *fiber.Ctx) error {
	var req dto.SelectModelRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if err := c.models.Select(ctx.UserContext(), req.Model); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Success select model", dto.ModelListResponse{Current: c.models.Current()}))
}
