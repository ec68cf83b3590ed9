package controller

import (
	"context"
	"fmt"

	"ideawalker-core/internal/dto"
	"ideawalker-core/internal/pkg/serverutils"
	"ideawalker-core/internal/repository/contract"
	"ideawalker-core/internal/service"
	"ideawalker-core/internal/task"

	"github.com/gofiber/fiber/v2"
)

// IPipelineController starts the long running pipelines as background tasks
// and exposes what they leave behind.
type IPipelineController interface {
	RegisterRoutes(r fiber.Router)
	ProcessInbox(ctx *fiber.Ctx) error
	IngestObservations(ctx *fiber.Ctx) error
	IngestScientific(ctx *fiber.Ctx) error
	LatestValidation(ctx *fiber.Ctx) error
	Activity(ctx *fiber.Ctx) error
}

type pipelineController struct {
	tasks        task.IManager
	organizer    service.IOrganizerService
	observations service.IObservationService
	scientific   service.IScientificService
	thoughts     contract.ThoughtRepository
}

func NewPipelineController(
	tasks task.IManager,
	organizer service.IOrganizerService,
	observations service.IObservationService,
	scientific service.IScientificService,
	thoughts contract.ThoughtRepository,
) IPipelineController {
	return &pipelineController{
		tasks:        tasks,
		organizer:    organizer,
		observations: observations,
		scientific:   scientific,
		thoughts:     thoughts,
	}
}

func (c *pipelineController) RegisterRoutes(r fiber.Router) {
	r.Post("/inbox/process", c.ProcessInbox)
	r.Post("/observations/ingest", c.IngestObservations)
	r.Post("/scientific/ingest", c.IngestScientific)
	r.Get("/scientific/validation/latest", c.LatestValidation)
	r.Get("/activity", c.Activity)
}

func (c *pipelineController) ProcessInbox(ctx *fiber.Ctx) error {
	var req dto.ProcessInboxRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	description := "Organizing inbox"
	if req.Filename != "" {
		description = fmt.Sprintf("Organizing %s", req.Filename)
	}
	h := c.tasks.Submit(task.CategoryAIProcessing, description, func(tctx context.Context, p *task.Progress) error {
		var (
			res *service.BatchResult
			err error
		)
		if req.Filename != "" {
			res, err = c.organizer.ProcessItem(tctx, req.Filename, req.Fast, req.Force)
		} else {
			res, err = c.organizer.ProcessInbox(tctx, req.Fast, req.Force, p.Step)
		}
		if err != nil {
			return err
		}
		if res.Failed > 0 {
			return fmt.Errorf("%d of %d items failed", res.Failed, res.Processed+res.Failed)
		}
		return nil
	})
	return accepted(ctx, "Inbox processing started", h)
}

func (c *pipelineController) IngestObservations(ctx *fiber.Ctx) error {
	h := c.tasks.Submit(task.CategoryAIProcessing, "Observing artifacts", func(tctx context.Context, p *task.Progress) error {
		_, err := c.observations.IngestPending(tctx, p.Step)
		return err
	})
	return accepted(ctx, "Observation started", h)
}

func (c *pipelineController) IngestScientific(ctx *fiber.Ctx) error {
	var req dto.IngestScientificRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	h := c.tasks.Submit(task.CategoryAIProcessing, "Scientific ingestion", func(tctx context.Context, p *task.Progress) error {
		_, err := c.scientific.IngestPending(tctx, req.Purge, p.Step)
		return err
	})
	return accepted(ctx, "Scientific ingestion started", h)
}

func (c *pipelineController) LatestValidation(ctx *fiber.Ctx) error {
	summary, err := c.scientific.LatestValidationSummary()
	if err != nil {
		return err
	}
	if summary == nil {
		return fiber.NewError(fiber.StatusNotFound, "no validation report yet")
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get validation", summary))
}

func (c *pipelineController) Activity(ctx *fiber.Ctx) error {
	activity, err := c.thoughts.GetActivityHistory(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get activity", activity))
}

func accepted(ctx *fiber.Ctx, message string, h *task.Handle) error {
	res := dto.TaskAcceptedResponse{Task: h.Snapshot()}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.Response{
		Success: true,
		Code:    fiber.StatusAccepted,
		Message: message,
		Data:    res,
	})
}
