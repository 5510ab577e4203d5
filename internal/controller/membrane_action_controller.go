package controller

import (
	"membrane-connect-be/internal/dto"
	"membrane-connect-be/internal/pkg/serverutils"
	"membrane-connect-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IMembraneActionController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	List(ctx *fiber.Ctx) error
	Run(ctx *fiber.Ctx) error
}

type membraneActionController struct {
	service service.IActionService
}

func NewMembraneActionController(service service.IActionService) IMembraneActionController {
	return &membraneActionController{service: service}
}

// RegisterRoutes mounts the action routes. Run is called by the workflow
// executor and carries no user session.
func (c *membraneActionController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	r.Get("/membrane/actions", auth, c.List)
	r.Post("/membrane/actions/run", c.Run)
}

func (c *membraneActionController) List(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ListActions(ctx.UserContext(), user, ctx.Query("externalAppId"), ctx.Query("connectionId"))
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *membraneActionController) Run(ctx *fiber.Ctx) error {
	var req dto.RunActionRequest
	if err := serverutils.ParseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.RunAction(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
