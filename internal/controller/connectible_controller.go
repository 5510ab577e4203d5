package controller

import (
	"membrane-connect-be/internal/pkg/serverutils"
	"membrane-connect-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IConnectibleController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Search(ctx *fiber.Ctx) error
}

type connectibleController struct {
	service service.IConnectibleService
}

func NewConnectibleController(service service.IConnectibleService) IConnectibleController {
	return &connectibleController{service: service}
}

func (c *connectibleController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/connectibles")
	h.Use(auth)
	h.Get("/search", c.Search)
}

func (c *connectibleController) Search(ctx *fiber.Ctx) error {
	user, err := serverutils.CurrentUser(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Search(ctx.UserContext(), user, ctx.Query("q"))
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
