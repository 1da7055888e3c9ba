package api

import (
	"context"

	"videorag/app/agent"
	"videorag/types"

	"github.com/gofiber/fiber/v2"
)

type QueryHandler struct {
	retriever *agent.Retriever
}

func NewQueryHandler(retriever *agent.Retriever) *QueryHandler {
	return &QueryHandler{retriever: retriever}
}

// HandleQuery serves both retrieval methods. Any error past validation
// comes back as a structured 500 body echoing the offending request.
func (h *QueryHandler) HandleQuery(c *fiber.Ctx) error {
	var params types.QueryParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	method := params.Method
	if method == "" {
		method = "retrieve"
	}

	ctx := context.Background()
	switch method {
	case "retrieve":
		docs, err := h.retriever.Retrieve(ctx, params)
		if err != nil {
			return h.internalError(c, params, err)
		}
		return c.JSON(types.QueryResponse{Docs: docs})

	case "retrieve_generate":
		docs, response, err := h.retriever.RetrieveGenerate(ctx, params)
		if err != nil {
			return h.internalError(c, params, err)
		}
		return c.JSON(types.QueryResponse{Docs: docs, Response: response})

	default:
		return ErrInvalidMethod(method)
	}
}

func (h *QueryHandler) internalError(c *fiber.Ctx, params types.QueryParams, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Error: " + err.Error(),
		"event":   params,
	})
}
