package controller

import (
	"ideawalker-core/internal/dto"
	"ideawalker-core/internal/pkg/serverutils"
	"ideawalker-core/internal/repository/contract"
	"ideawalker-core/internal/service"

	"github.com/gofiber/fiber/v2"
)

type INoteController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	ShowVersion(ctx *fiber.Ctx) error
	ToggleActionable(ctx *fiber.Ctx) error
	Related(ctx *fiber.Ctx) error
}

type noteController struct {
	thoughts          contract.ThoughtRepository
	suggestionService service.ISuggestionService
}

func NewNoteController(thoughts contract.ThoughtRepository, suggestionService service.ISuggestionService) INoteController {
	return &noteController{thoughts: thoughts, suggestionService: suggestionService}
}

func (c *noteController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/notes")
	h.Get("", c.List)
	h.Get(":filename", c.Show)
	h.Put(":filename", c.Update)
	h.Get(":filename/versions/:version", c.ShowVersion)
	h.Put(":filename/actionables/:index", c.ToggleActionable)
	h.Get(":filename/related", c.Related)
}

func (c *noteController) List(ctx *fiber.Ctx) error {
	notes, err := c.thoughts.FetchHistory(ctx.UserContext())
	if err != nil {
		return err
	}
	res := make([]dto.NoteSummary, 0, len(notes))
	for _, n := range notes {
		res = append(res, dto.NoteSummary{
			Id:          n.Metadata.Id,
			Title:       n.Metadata.Title,
			Date:        n.Metadata.Date,
			Tags:        n.Metadata.Tags,
			Actionables: n.Actionables(),
		})
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get notes", res))
}

func (c *noteController) Show(ctx *fiber.Ctx) error {
	filename := ctx.Params("filename")
	content, err := c.thoughts.GetNoteContent(ctx.UserContext(), filename)
	if err != nil {
		return err
	}
	versions, err := c.thoughts.GetVersions(ctx.UserContext(), filename)
	if err != nil {
		return err
	}
	backlinks, err := c.thoughts.GetBacklinks(ctx.UserContext(), filename)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get note", dto.NoteDetailResponse{
		Id:        filename,
		Content:   content,
		Versions:  versions,
		Backlinks: backlinks,
	}))
}

func (c *noteController) Update(ctx *fiber.Ctx) error {
	var req dto.UpdateNoteRequest
	if err := parse(ctx, &req); err != nil {
		return err
	}
	filename := ctx.Params("filename")
	// only existing notes are edited here; new notes come from the inbox
	if _, err := c.thoughts.GetNoteContent(ctx.UserContext(), filename); err != nil {
		return err
	}
	if err := c.thoughts.UpdateNote(ctx.UserContext(), filename, req.Content); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update note", nil))
}

func (c *noteController) ShowVersion(ctx *fiber.Ctx) error {
	content, err := c.thoughts.GetVersionContent(ctx.UserContext(), ctx.Params("version"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get note version", content))
}

func (c *noteController) ToggleActionable(ctx *fiber.Ctx) error {
	index, err := ctx.ParamsInt("index")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "index must be an integer")
	}
	if err := c.thoughts.ToggleActionable(ctx.UserContext(), ctx.Params("filename"), index); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success toggle actionable", nil))
}

func (c *noteController) Related(ctx *fiber.Ctx) error {
	filename := ctx.Params("filename")
	content, err := c.thoughts.GetNoteContent(ctx.UserContext(), filename)
	if err != nil {
		return err
	}
	res, err := c.suggestionService.Suggest(ctx.UserContext(), filename, content)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get related notes", res))
}
