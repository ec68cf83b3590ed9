package controller

import (
	"ideawalker-core/internal/dto"
	"ideawalker-core/internal/pkg/serverutils"
	"ideawalker-core/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ITrajectoryController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	AddSegment(ctx *fiber.Ctx) error
	ReviseSegment(ctx *fiber.Ctx) error
	AttachEvidence(ctx *fiber.Ctx) error
	AdvanceStage(ctx *fiber.Ctx) error
	AddDefenseCard(ctx *fiber.Ctx) error
	UpdateDefenseStatus(ctx *fiber.Ctx) error
	Coherence(ctx *fiber.Ctx) error
	SuggestDefenseCards(ctx *fiber.Ctx) error
}

type trajectoryController struct {
	writingService service.IWritingService
}

func NewTrajectoryController(writingService service.IWritingService) ITrajectoryController {
	return &trajectoryController{writingService: writingService}
}

func (c *trajectoryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/trajectories")
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Post(":id/segments", c.AddSegment)
	h.Post(":id/segments/:segmentId/revisions", c.ReviseSegment)
	h.Post(":id/segments/:segmentId/evidence", c.AttachEvidence)
	h.Post(":id/stage", c.AdvanceStage)
	h.Post(":id/defense-cards", c.AddDefenseCard)
	h.Put(":id/defense-cards/:cardId/status", c.UpdateDefenseStatus)
	h.Get(":id/coherence", c.Coherence)
	h.Get(":id/defense-cards/suggestions", c.SuggestDefenseCards)
}

// parse binds and validates a request body.
func parse(ctx *fiber.Ctx, req interface{}) error {
	if err := ctx.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return serverutils.ValidateRequest(req)
}

func (c *trajectoryController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateTrajectoryRequest
	if err := parse(ctx, &req); err != nil {
		return err
	}
	res, err := c.writingService.Create(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create trajectory", res))
}

func (c *trajectoryController) List(ctx *fiber.Ctx) error {
	res, err := c.writingService.List(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get trajectories", res))
}

func (c *trajectoryController) Show(ctx *fiber.Ctx) error {
	res, err := c.writingService.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get trajectory", res))
}

func (c *trajectoryController) AddSegment(ctx *fiber.Ctx) error {
	var req dto.AddSegmentRequest
	if err := parse(ctx, &req); err != nil {
		return err
	}
	res, err := c.writingService.AddSegment(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success add segment", res))
}

func (c *trajectoryController) ReviseSegment(ctx *fiber.Ctx) error {
	var req dto.ReviseSegmentRequest
	if err := parse(ctx, &req); err != nil {
		return err
	}
	res, err := c.writingService.ReviseSegment(ctx.UserContext(), ctx.Params("id"), ctx.Params("segmentId"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success revise segment", res))
}

func (c *trajectoryController) AttachEvidence(ctx *fiber.Ctx) error {
	var req dto.AttachEvidenceRequest
	if err := parse(ctx, &req); err != nil {
		return err
	}
	res, err := c.writingService.AttachEvidence(ctx.UserContext(), ctx.Params("id"), ctx.Params("segmentId"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success attach evidence", res))
}

func (c *trajectoryController) AdvanceStage(ctx *fiber.Ctx) error {
	var req dto.AdvanceStageRequest
	if err := parse(ctx, &req); err != nil {
		return err
	}
	res, err := c.writingService.AdvanceStage(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success advance stage", res))
}

func (c *trajectoryController) AddDefenseCard(ctx *fiber.Ctx) error {
	var req dto.AddDefenseCardRequest
	if err := parse(ctx, &req); err != nil {
		return err
	}
	res, err := c.writingService.AddDefenseCard(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success add defense card", res))
}

func (c *trajectoryController) UpdateDefenseStatus(ctx *fiber.Ctx) error {
	var req dto.UpdateDefenseStatusRequest
	if err := parse(ctx, &req); err != nil {
		return err
	}
	res, err := c.writingService.UpdateDefenseStatus(ctx.UserContext(), ctx.Params("id"), ctx.Params("cardId"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update defense status", res))
}

func (c *trajectoryController) Coherence(ctx *fiber.Ctx) error {
	res, err := c.writingService.Coherence(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success check coherence", res))
}

func (c *trajectoryController) SuggestDefenseCards(ctx *fiber.Ctx) error {
	res, err := c.writingService.SuggestDefenseCards(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success suggest defense cards", res))
}
