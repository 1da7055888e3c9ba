package api

import (
	"context"

	"videorag/store"

	"github.com/gofiber/fiber/v2"
)

type CheckHandler struct {
	store store.VectorStorer
}

func NewCheckHandler(storer store.VectorStorer) *CheckHandler {
	return &CheckHandler{store: storer}
}

func (h *CheckHandler) HandleHealthy(c *fiber.Ctx) error {
	count, err := h.store.Count(context.Background())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"result": "ok", "records": count})
}
