package controller

import (
	"membrane-connect-be/internal/dto"
	"membrane-connect-be/internal/pkg/serverutils"
	"membrane-connect-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IMembraneSessionController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Create(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
}

type membraneSessionController struct {
	service service.IAgentSessionService
}

func NewMembraneSessionController(service service.IAgentSessionService) IMembraneSessionController {
	return &membraneSessionController{service: service}
}

func (c *membraneSessionController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/membrane/sessions")
	h.Use(auth)
	h.Post("", c.Create)
	h.Get("", c.Status)
}

func (c *membraneSessionController) Create(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateAgentSessionRequest
	if err := serverutils.ParseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), user, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

// Status answers GET ?sessionId=&wait=&timeout=. With wait=1 the request
// is held open by the Integration Backend.
func (c *membraneSessionController) Status(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Status(ctx.UserContext(), user, ctx.Query("sessionId"), ctx.Query("wait"), ctx.Query("timeout"))
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
