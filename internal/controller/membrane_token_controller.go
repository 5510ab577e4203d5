package controller

import (
	"membrane-connect-be/internal/pkg/serverutils"
	"membrane-connect-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IMembraneTokenController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Get(ctx *fiber.Ctx) error
}

type membraneTokenController struct {
	service service.ITokenService
}

func NewMembraneTokenController(service service.ITokenService) IMembraneTokenController {
	return &membraneTokenController{service: service}
}

func (c *membraneTokenController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	r.Get("/membrane/token", auth, c.Get)
}

func (c *membraneTokenController) Get(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Issue(ctx.UserContext(), user)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
