package controller

import (
	"ideawalker-core/internal/dto"
	"ideawalker-core/internal/pkg/logger"
	"ideawalker-core/internal/pkg/serverutils"
	"ideawalker-core/internal/task"

	"github.com/gofiber/fiber/v2"
)

const recentTasksShown = 10

// ITaskController serves the polling endpoints of the GUI: running tasks and logs.
type ITaskController interface {
	RegisterRoutes(r fiber.Router)
	ListTasks(ctx *fiber.Ctx) error
	ListLogs(ctx *fiber.Ctx) error
	ShowLog(ctx *fiber.Ctx) error
}

type taskController struct {
	tasks  task.IManager
	logger logger.ILogger
}

func NewTaskController(tasks task.IManager, log logger.ILogger) ITaskController {
	return &taskController{tasks: tasks, logger: log}
}

func (c *taskController) RegisterRoutes(r fiber.Router) {
	r.Get("/tasks", c.ListTasks)
	r.Get("/logs", c.ListLogs)
	r.Get("/logs/:id", c.ShowLog)
}

func (c *taskController) ListTasks(ctx *fiber.Ctx) error {
	res := dto.TaskListResponse{
		Active: c.tasks.ActiveTasks(),
		Recent: c.tasks.Recent(recentTasksShown),
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get tasks", res))
}

func (c *taskController) ListLogs(ctx *fiber.Ctx) error {
	level := ctx.Query("level")
	limit := ctx.QueryInt("limit", 100)
	offset := ctx.QueryInt("offset", 0)

	logs, err := c.logger.GetLogs(level, limit, offset)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get logs", logs))
}

func (c *taskController) ShowLog(ctx *fiber.Ctx) error {
	entry, err := c.logger.GetLogById(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get log", entry))
}
