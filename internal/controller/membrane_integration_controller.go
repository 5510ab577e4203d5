package controller

import (
	"membrane-connect-be/internal/dto"
	"membrane-connect-be/internal/pkg/serverutils"
	"membrane-connect-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IMembraneIntegrationController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	List(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
}

type membraneIntegrationController struct {
	service service.IIntegrationService
}

func NewMembraneIntegrationController(service service.IIntegrationService) IMembraneIntegrationController {
	return &membraneIntegrationController{service: service}
}

func (c *membraneIntegrationController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/membrane/integrations")
	h.Use(auth)
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Patch("", c.Update)
}

func (c *membraneIntegrationController) List(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), user.Id)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *membraneIntegrationController) Create(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateMembraneServiceRequest
	if err := serverutils.ParseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), user.Id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *membraneIntegrationController) Update(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateMembraneServiceRequest
	if err := serverutils.ParseBody(ctx, &req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdateConnection(ctx.UserContext(), user.Id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
